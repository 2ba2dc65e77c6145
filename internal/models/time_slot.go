package models

// TimeSlot is a weekly class meeting belonging to a course. Start and end are
// minutes since midnight; the interval is half-open, so a slot ending at the
// exact minute another begins does not overlap it.
type TimeSlot struct {
	ID          string `db:"id" json:"id"`
	CourseID    string `db:"course_id" json:"course_id"`
	DayOfWeek   int    `db:"day_of_week" json:"day_of_week"`
	StartMinute int    `db:"start_minute" json:"start_minute"`
	EndMinute   int    `db:"end_minute" json:"end_minute"`
	Location    string `db:"location" json:"location"`
}

// Overlaps reports whether two slots occupy any common instant.
func (t TimeSlot) Overlaps(other TimeSlot) bool {
	if t.DayOfWeek != other.DayOfWeek {
		return false
	}
	return other.StartMinute < t.EndMinute && other.EndMinute > t.StartMinute
}
