package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func timeSlotRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "course_id", "day_of_week", "start_minute", "end_minute", "location"})
}

func TestScheduleRepositoryGetEnrolledTimeSlots(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	rows := timeSlotRows().
		AddRow("slot-1", "course-a", 1, 540, 660, "B101").
		AddRow("slot-2", "course-b", 2, 480, 600, "B202")
	mock.ExpectQuery(regexp.QuoteMeta("INNER JOIN enrollments e ON e.course_id = ts.course_id")).
		WithArgs("stu-1").
		WillReturnRows(rows)

	slots, err := repo.GetEnrolledTimeSlots(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, "course-a", slots[0].CourseID)
	assert.Equal(t, 540, slots[0].StartMinute)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryGetCourseTimeSlots(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	rows := timeSlotRows().
		AddRow("slot-1", "course-a", 3, 720, 840, "Lab 2")
	mock.ExpectQuery(regexp.QuoteMeta("FROM course_time_slots WHERE course_id = $1")).
		WithArgs("course-a").
		WillReturnRows(rows)

	slots, err := repo.GetCourseTimeSlots(context.Background(), "course-a")
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, 3, slots[0].DayOfWeek)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryIsEnrolled(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM enrollments WHERE student_id = $1 AND course_id = $2 AND status = 'ACTIVE' LIMIT 1")).
		WithArgs("stu-1", "course-a").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	enrolled, err := repo.IsEnrolled(context.Background(), "stu-1", "course-a")
	require.NoError(t, err)
	assert.True(t, enrolled)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryIsEnrolledNoRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM enrollments")).
		WithArgs("stu-1", "course-x").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	enrolled, err := repo.IsEnrolled(context.Background(), "stu-1", "course-x")
	require.NoError(t, err)
	assert.False(t, enrolled)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryCourseExists(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM courses WHERE id = $1 LIMIT 1")).
		WithArgs("course-a").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.CourseExists(context.Background(), "course-a")
	require.NoError(t, err)
	assert.True(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}
