package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-swap-api/internal/models"
)

// SwapMatchRepository handles persistence of swap matches.
type SwapMatchRepository struct {
	db *sqlx.DB
}

// NewSwapMatchRepository constructs the repository.
func NewSwapMatchRepository(db *sqlx.DB) *SwapMatchRepository {
	return &SwapMatchRepository{db: db}
}

const swapMatchColumns = `id, request_a_id, request_b_id, student_a_id, student_b_id, course_a_id, course_b_id, status,
        a_confirmed, b_confirmed, a_confirmed_at, b_confirmed_at, a_completed, b_completed, matched_at, contact_shared_at, completed_at`

// Create persists a new match record.
func (r *SwapMatchRepository) Create(ctx context.Context, match *models.SwapMatch) error {
	if match.ID == "" {
		match.ID = uuid.NewString()
	}
	if match.MatchedAt.IsZero() {
		match.MatchedAt = time.Now().UTC()
	}
	if match.Status == "" {
		match.Status = models.SwapMatchStatusPending
	}
	const query = `INSERT INTO swap_matches (id, request_a_id, request_b_id, student_a_id, student_b_id, course_a_id, course_b_id, status,
        a_confirmed, b_confirmed, a_confirmed_at, b_confirmed_at, a_completed, b_completed, matched_at, contact_shared_at, completed_at)
        VALUES (:id, :request_a_id, :request_b_id, :student_a_id, :student_b_id, :course_a_id, :course_b_id, :status,
        :a_confirmed, :b_confirmed, :a_confirmed_at, :b_confirmed_at, :a_completed, :b_completed, :matched_at, :contact_shared_at, :completed_at)`
	if _, err := r.db.NamedExecContext(ctx, query, match); err != nil {
		return fmt.Errorf("create swap match: %w", err)
	}
	return nil
}

// FindByID returns a match by its ID.
func (r *SwapMatchRepository) FindByID(ctx context.Context, id string) (*models.SwapMatch, error) {
	query := fmt.Sprintf(`SELECT %s FROM swap_matches WHERE id = $1`, swapMatchColumns)
	var match models.SwapMatch
	if err := r.db.GetContext(ctx, &match, query, id); err != nil {
		return nil, err
	}
	return &match, nil
}

// List returns matches a student participates in, newest first.
func (r *SwapMatchRepository) List(ctx context.Context, filter models.SwapMatchFilter) ([]models.SwapMatch, int, error) {
	var conditions string
	args := []interface{}{filter.StudentID}
	if filter.Status != "" {
		conditions = " AND status = $2"
		args = append(args, filter.Status)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM swap_matches WHERE (student_a_id = $1 OR student_b_id = $1)%s ORDER BY matched_at DESC LIMIT %d OFFSET %d`,
		swapMatchColumns, conditions, size, offset)
	var matches []models.SwapMatch
	if err := r.db.SelectContext(ctx, &matches, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list swap matches: %w", err)
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM swap_matches WHERE (student_a_id = $1 OR student_b_id = $1)%s`, conditions)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count swap matches: %w", err)
	}
	return matches, total, nil
}

// ExistsPendingForRequests checks whether a pending match already references
// either of the given requests.
func (r *SwapMatchRepository) ExistsPendingForRequests(ctx context.Context, requestIDA, requestIDB string) (bool, error) {
	const query = `SELECT 1 FROM swap_matches
        WHERE status = $1 AND (request_a_id IN ($2, $3) OR request_b_id IN ($2, $3)) LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, models.SwapMatchStatusPending, requestIDA, requestIDB); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check pending swap match: %w", err)
	}
	return true, nil
}

// SetConfirmed flips one side's confirmation flag with a compare-and-set on
// the flag being false, so repeated confirms never restamp the time.
func (r *SwapMatchRepository) SetConfirmed(ctx context.Context, id string, side models.MatchSide, at time.Time) (bool, error) {
	var query string
	if side == models.MatchSideA {
		query = `UPDATE swap_matches SET a_confirmed = TRUE, a_confirmed_at = $2 WHERE id = $1 AND status = $3 AND a_confirmed = FALSE`
	} else {
		query = `UPDATE swap_matches SET b_confirmed = TRUE, b_confirmed_at = $2 WHERE id = $1 AND status = $3 AND b_confirmed = FALSE`
	}
	result, err := r.db.ExecContext(ctx, query, id, at, models.SwapMatchStatusPending)
	if err != nil {
		return false, fmt.Errorf("set match confirmation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set match confirmation: %w", err)
	}
	return affected == 1, nil
}

// PromoteConfirmed transitions the match to confirmed once both flags are set
// and stamps the immutable contact_shared_at exactly once.
func (r *SwapMatchRepository) PromoteConfirmed(ctx context.Context, id string, at time.Time) (bool, error) {
	const query = `UPDATE swap_matches SET status = $3, contact_shared_at = $2
        WHERE id = $1 AND status = $4 AND a_confirmed = TRUE AND b_confirmed = TRUE AND contact_shared_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, id, at, models.SwapMatchStatusConfirmed, models.SwapMatchStatusPending)
	if err != nil {
		return false, fmt.Errorf("promote match to confirmed: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("promote match to confirmed: %w", err)
	}
	return affected == 1, nil
}

// SetCompleted flips one side's completion flag, guarded the same way as
// confirmations.
func (r *SwapMatchRepository) SetCompleted(ctx context.Context, id string, side models.MatchSide) (bool, error) {
	var query string
	if side == models.MatchSideA {
		query = `UPDATE swap_matches SET a_completed = TRUE WHERE id = $1 AND status = $2 AND a_completed = FALSE`
	} else {
		query = `UPDATE swap_matches SET b_completed = TRUE WHERE id = $1 AND status = $2 AND b_completed = FALSE`
	}
	result, err := r.db.ExecContext(ctx, query, id, models.SwapMatchStatusConfirmed)
	if err != nil {
		return false, fmt.Errorf("set match completion: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set match completion: %w", err)
	}
	return affected == 1, nil
}

// PromoteCompleted transitions a confirmed match to completed once both sides
// have marked completion.
func (r *SwapMatchRepository) PromoteCompleted(ctx context.Context, id string, at time.Time) (bool, error) {
	const query = `UPDATE swap_matches SET status = $3, completed_at = $2
        WHERE id = $1 AND status = $4 AND a_completed = TRUE AND b_completed = TRUE`
	result, err := r.db.ExecContext(ctx, query, id, at, models.SwapMatchStatusCompleted, models.SwapMatchStatusConfirmed)
	if err != nil {
		return false, fmt.Errorf("promote match to completed: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("promote match to completed: %w", err)
	}
	return affected == 1, nil
}

// MarkRejected terminates a pending match.
func (r *SwapMatchRepository) MarkRejected(ctx context.Context, id string) (bool, error) {
	const query = `UPDATE swap_matches SET status = $2 WHERE id = $1 AND status = $3`
	result, err := r.db.ExecContext(ctx, query, id, models.SwapMatchStatusRejected, models.SwapMatchStatusPending)
	if err != nil {
		return false, fmt.Errorf("reject swap match: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reject swap match: %w", err)
	}
	return affected == 1, nil
}

// SwapHistoryRow is a completed match flattened for export.
type SwapHistoryRow struct {
	MatchID      string     `db:"match_id"`
	StudentAName string     `db:"student_a_name"`
	StudentBName string     `db:"student_b_name"`
	CourseACode  string     `db:"course_a_code"`
	CourseBCode  string     `db:"course_b_code"`
	MatchedAt    time.Time  `db:"matched_at"`
	CompletedAt  *time.Time `db:"completed_at"`
}

// ListCompletedHistory returns completed matches with participant context.
func (r *SwapMatchRepository) ListCompletedHistory(ctx context.Context) ([]SwapHistoryRow, error) {
	const query = `SELECT m.id AS match_id, sa.full_name AS student_a_name, sb.full_name AS student_b_name,
        ca.code AS course_a_code, cb.code AS course_b_code, m.matched_at, m.completed_at
        FROM swap_matches m
        LEFT JOIN students sa ON sa.id = m.student_a_id
        LEFT JOIN students sb ON sb.id = m.student_b_id
        LEFT JOIN courses ca ON ca.id = m.course_a_id
        LEFT JOIN courses cb ON cb.id = m.course_b_id
        WHERE m.status = $1
        ORDER BY m.completed_at DESC`
	var rows []SwapHistoryRow
	if err := r.db.SelectContext(ctx, &rows, query, models.SwapMatchStatusCompleted); err != nil {
		return nil, fmt.Errorf("list completed swap history: %w", err)
	}
	return rows, nil
}
