package models

import "time"

// SwapMatchStatus represents the lifecycle of a swap match.
type SwapMatchStatus string

// Possible swap match statuses.
const (
	SwapMatchStatusPending   SwapMatchStatus = "PENDING"
	SwapMatchStatusConfirmed SwapMatchStatus = "CONFIRMED"
	SwapMatchStatusRejected  SwapMatchStatus = "REJECTED"
	SwapMatchStatusCompleted SwapMatchStatus = "COMPLETED"
)

// MatchSide identifies which slot of a match a participant occupies.
type MatchSide int

// Match sides. Side A belongs to the request that triggered the pairing.
const (
	MatchSideA MatchSide = iota
	MatchSideB
)

// SwapMatch pairs two mirror swap requests. Student A gives course A and
// receives course B; student B gives course B and receives course A.
type SwapMatch struct {
	ID              string          `db:"id" json:"id"`
	RequestAID      string          `db:"request_a_id" json:"request_a_id"`
	RequestBID      string          `db:"request_b_id" json:"request_b_id"`
	StudentAID      string          `db:"student_a_id" json:"student_a_id"`
	StudentBID      string          `db:"student_b_id" json:"student_b_id"`
	CourseAID       string          `db:"course_a_id" json:"course_a_id"`
	CourseBID       string          `db:"course_b_id" json:"course_b_id"`
	Status          SwapMatchStatus `db:"status" json:"status"`
	AConfirmed      bool            `db:"a_confirmed" json:"a_confirmed"`
	BConfirmed      bool            `db:"b_confirmed" json:"b_confirmed"`
	AConfirmedAt    *time.Time      `db:"a_confirmed_at" json:"a_confirmed_at,omitempty"`
	BConfirmedAt    *time.Time      `db:"b_confirmed_at" json:"b_confirmed_at,omitempty"`
	ACompleted      bool            `db:"a_completed" json:"a_completed"`
	BCompleted      bool            `db:"b_completed" json:"b_completed"`
	MatchedAt       time.Time       `db:"matched_at" json:"matched_at"`
	ContactSharedAt *time.Time      `db:"contact_shared_at" json:"contact_shared_at,omitempty"`
	CompletedAt     *time.Time      `db:"completed_at" json:"completed_at,omitempty"`
}

// SideOf resolves the caller's slot in the match. The second return value is
// false when the student is not a participant.
func (m *SwapMatch) SideOf(studentID string) (MatchSide, bool) {
	switch studentID {
	case m.StudentAID:
		return MatchSideA, true
	case m.StudentBID:
		return MatchSideB, true
	}
	return MatchSideA, false
}

// CounterpartID returns the other participant's student ID for a side.
func (m *SwapMatch) CounterpartID(side MatchSide) string {
	if side == MatchSideA {
		return m.StudentBID
	}
	return m.StudentAID
}

// ConfirmedBy reports whether the given side has confirmed.
func (m *SwapMatch) ConfirmedBy(side MatchSide) bool {
	if side == MatchSideA {
		return m.AConfirmed
	}
	return m.BConfirmed
}

// CompletedBy reports whether the given side has marked completion.
func (m *SwapMatch) CompletedBy(side MatchSide) bool {
	if side == MatchSideA {
		return m.ACompleted
	}
	return m.BCompleted
}

// GivenCourseID returns the course the given side hands over.
func (m *SwapMatch) GivenCourseID(side MatchSide) string {
	if side == MatchSideA {
		return m.CourseAID
	}
	return m.CourseBID
}

// ReceivedCourseID returns the course the given side gains.
func (m *SwapMatch) ReceivedCourseID(side MatchSide) string {
	if side == MatchSideA {
		return m.CourseBID
	}
	return m.CourseAID
}

// ContactInfo is the counterpart identity revealed after mutual confirmation.
type ContactInfo struct {
	StudentID string `json:"student_id"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	NIM       string `json:"nim"`
	Phone     string `json:"phone,omitempty"`
}

// SwapSummary describes which course each side gives and receives.
type SwapSummary struct {
	YouGive     string `json:"you_give"`
	YouReceive  string `json:"you_receive"`
	TheyGive    string `json:"they_give"`
	TheyReceive string `json:"they_receive"`
}

// SwapMatchFilter provides filters for listing matches.
type SwapMatchFilter struct {
	StudentID string
	Status    SwapMatchStatus
	Page      int
	PageSize  int
}
