package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-swap-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func swapRequestRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "student_id", "offered_course_id", "desired_course_id", "priority", "notes", "status", "created_at", "expires_at"})
}

func TestSwapRequestRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSwapRequestRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO swap_requests")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	request := &models.SwapRequest{
		StudentID:       "stu-1",
		OfferedCourseID: "course-a",
		DesiredCourseID: "course-b",
		ExpiresAt:       time.Now().UTC().Add(24 * time.Hour),
	}
	err := repo.Create(context.Background(), request)
	require.NoError(t, err)
	assert.NotEmpty(t, request.ID)
	assert.Equal(t, models.SwapRequestStatusActive, request.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSwapRequestRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSwapRequestRepository(db)

	now := time.Now()
	rows := swapRequestRows().
		AddRow("req-1", "stu-1", "course-a", "course-b", 2, "", models.SwapRequestStatusActive, now, now.Add(24*time.Hour))
	mock.ExpectQuery(regexp.QuoteMeta("FROM swap_requests WHERE id = $1")).
		WithArgs("req-1").
		WillReturnRows(rows)

	request, err := repo.FindByID(context.Background(), "req-1")
	require.NoError(t, err)
	assert.Equal(t, "stu-1", request.StudentID)
	assert.Equal(t, 2, request.Priority)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSwapRequestRepositoryFindMirrorsFlipsCoursePair(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSwapRequestRepository(db)

	now := time.Now()
	rows := swapRequestRows().
		AddRow("req-2", "stu-2", "course-b", "course-a", 5, "", models.SwapRequestStatusActive, now, now.Add(24*time.Hour))

	// The mirror of (offered a, desired b) offers b and desires a.
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY priority DESC, created_at ASC")).
		WithArgs("course-b", "course-a", models.SwapRequestStatusActive, "stu-1").
		WillReturnRows(rows)

	mirrors, err := repo.FindMirrors(context.Background(), "course-a", "course-b", "stu-1")
	require.NoError(t, err)
	require.Len(t, mirrors, 1)
	assert.Equal(t, "req-2", mirrors[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSwapRequestRepositoryExistsActivePair(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSwapRequestRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM swap_requests WHERE student_id = $1 AND offered_course_id = $2 AND desired_course_id = $3 AND status = $4 LIMIT 1")).
		WithArgs("stu-1", "course-a", "course-b", models.SwapRequestStatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsActivePair(context.Background(), "stu-1", "course-a", "course-b")
	require.NoError(t, err)
	assert.True(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSwapRequestRepositoryExistsActivePairNoRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSwapRequestRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM swap_requests")).
		WithArgs("stu-1", "course-a", "course-b", models.SwapRequestStatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err := repo.ExistsActivePair(context.Background(), "stu-1", "course-a", "course-b")
	require.NoError(t, err)
	assert.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSwapRequestRepositoryUpdateStatusIf(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSwapRequestRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE swap_requests SET status = $3 WHERE id = $1 AND status = $2")).
		WithArgs("req-1", models.SwapRequestStatusActive, models.SwapRequestStatusMatched).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.UpdateStatusIf(context.Background(), "req-1", models.SwapRequestStatusActive, models.SwapRequestStatusMatched)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSwapRequestRepositoryUpdateStatusIfLostRace(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSwapRequestRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE swap_requests SET status = $3")).
		WithArgs("req-1", models.SwapRequestStatusActive, models.SwapRequestStatusMatched).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.UpdateStatusIf(context.Background(), "req-1", models.SwapRequestStatusActive, models.SwapRequestStatusMatched)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSwapRequestRepositoryListExpiredActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSwapRequestRepository(db)

	now := time.Now().UTC()
	rows := swapRequestRows().
		AddRow("req-1", "stu-1", "course-a", "course-b", 0, "", models.SwapRequestStatusActive, now.Add(-48*time.Hour), now.Add(-time.Hour))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE status = $1 AND expires_at <= $2")).
		WithArgs(models.SwapRequestStatusActive, now).
		WillReturnRows(rows)

	expired, err := repo.ListExpiredActive(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}
