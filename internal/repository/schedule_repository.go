package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-swap-api/internal/models"
)

// ScheduleRepository reads course meeting times and student enrollments. The
// schedule data is written by the enrollment system; this service only reads.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs the repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// GetEnrolledTimeSlots returns every weekly slot for the courses a student is
// actively enrolled in.
func (r *ScheduleRepository) GetEnrolledTimeSlots(ctx context.Context, studentID string) ([]models.TimeSlot, error) {
	const query = `SELECT ts.id, ts.course_id, ts.day_of_week, ts.start_minute, ts.end_minute, ts.location
        FROM course_time_slots ts
        INNER JOIN enrollments e ON e.course_id = ts.course_id
        WHERE e.student_id = $1 AND e.status = 'ACTIVE'
        ORDER BY ts.day_of_week, ts.start_minute`
	var slots []models.TimeSlot
	if err := r.db.SelectContext(ctx, &slots, query, studentID); err != nil {
		return nil, fmt.Errorf("get enrolled time slots: %w", err)
	}
	return slots, nil
}

// GetCourseTimeSlots returns the weekly slots of a single course.
func (r *ScheduleRepository) GetCourseTimeSlots(ctx context.Context, courseID string) ([]models.TimeSlot, error) {
	const query = `SELECT id, course_id, day_of_week, start_minute, end_minute, location
        FROM course_time_slots WHERE course_id = $1
        ORDER BY day_of_week, start_minute`
	var slots []models.TimeSlot
	if err := r.db.SelectContext(ctx, &slots, query, courseID); err != nil {
		return nil, fmt.Errorf("get course time slots: %w", err)
	}
	return slots, nil
}

// IsEnrolled checks whether a student currently holds an active enrollment in
// the course.
func (r *ScheduleRepository) IsEnrolled(ctx context.Context, studentID, courseID string) (bool, error) {
	const query = `SELECT 1 FROM enrollments WHERE student_id = $1 AND course_id = $2 AND status = 'ACTIVE' LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, courseID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return true, nil
}

// CourseExists checks the catalog for a course ID.
func (r *ScheduleRepository) CourseExists(ctx context.Context, courseID string) (bool, error) {
	const query = `SELECT 1 FROM courses WHERE id = $1 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, courseID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check course: %w", err)
	}
	return true, nil
}
