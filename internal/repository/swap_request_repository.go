package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-swap-api/internal/models"
)

// SwapRequestRepository handles persistence of swap requests.
type SwapRequestRepository struct {
	db *sqlx.DB
}

// NewSwapRequestRepository constructs the repository.
func NewSwapRequestRepository(db *sqlx.DB) *SwapRequestRepository {
	return &SwapRequestRepository{db: db}
}

const swapRequestColumns = `id, student_id, offered_course_id, desired_course_id, priority, notes, status, created_at, expires_at`

// Create persists a new swap request record.
func (r *SwapRequestRepository) Create(ctx context.Context, request *models.SwapRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	if request.CreatedAt.IsZero() {
		request.CreatedAt = time.Now().UTC()
	}
	if request.Status == "" {
		request.Status = models.SwapRequestStatusActive
	}
	const query = `INSERT INTO swap_requests (id, student_id, offered_course_id, desired_course_id, priority, notes, status, created_at, expires_at)
        VALUES (:id, :student_id, :offered_course_id, :desired_course_id, :priority, :notes, :status, :created_at, :expires_at)`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("create swap request: %w", err)
	}
	return nil
}

// FindByID returns a swap request by its ID.
func (r *SwapRequestRepository) FindByID(ctx context.Context, id string) (*models.SwapRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM swap_requests WHERE id = $1`, swapRequestColumns)
	var request models.SwapRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// FindDetailByID returns a swap request with course context.
func (r *SwapRequestRepository) FindDetailByID(ctx context.Context, id string) (*models.SwapRequestDetail, error) {
	const query = `SELECT r.id, r.student_id, r.offered_course_id, r.desired_course_id, r.priority, r.notes, r.status, r.created_at, r.expires_at,
        oc.code AS offered_course_code, oc.name AS offered_course_name, dc.code AS desired_course_code, dc.name AS desired_course_name
        FROM swap_requests r
        LEFT JOIN courses oc ON oc.id = r.offered_course_id
        LEFT JOIN courses dc ON dc.id = r.desired_course_id
        WHERE r.id = $1`
	var detail models.SwapRequestDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// List returns swap requests filtered by the provided criteria.
func (r *SwapRequestRepository) List(ctx context.Context, filter models.SwapRequestFilter) ([]models.SwapRequestDetail, int, error) {
	base := `FROM swap_requests r
LEFT JOIN courses oc ON oc.id = r.offered_course_id
LEFT JOIN courses dc ON dc.id = r.desired_course_id`
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("r.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("r.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"created_at": "r.created_at",
		"priority":   "r.priority",
		"expires_at": "r.expires_at",
	}
	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	orderBy := allowedSorts[sortBy]
	if orderBy == "" {
		orderBy = "r.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
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

	query := fmt.Sprintf(`SELECT r.id, r.student_id, r.offered_course_id, r.desired_course_id, r.priority, r.notes, r.status, r.created_at, r.expires_at,
        oc.code AS offered_course_code, oc.name AS offered_course_name, dc.code AS desired_course_code, dc.name AS desired_course_name
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var requests []models.SwapRequestDetail
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list swap requests: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count swap requests: %w", err)
	}
	return requests, total, nil
}

// FindMirrors returns active requests offering exactly what the given pair
// desires and desiring what it offers, excluding the requester's own rows.
// Results are ordered best-first: higher priority, then earlier creation.
func (r *SwapRequestRepository) FindMirrors(ctx context.Context, offeredCourseID, desiredCourseID, excludeStudentID string) ([]models.SwapRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM swap_requests
        WHERE offered_course_id = $1 AND desired_course_id = $2 AND status = $3 AND student_id <> $4
        ORDER BY priority DESC, created_at ASC`, swapRequestColumns)
	var requests []models.SwapRequest
	if err := r.db.SelectContext(ctx, &requests, query, desiredCourseID, offeredCourseID, models.SwapRequestStatusActive, excludeStudentID); err != nil {
		return nil, fmt.Errorf("find mirror requests: %w", err)
	}
	return requests, nil
}

// ExistsActivePair checks whether the student already has an active request
// for the same offered/desired course pair.
func (r *SwapRequestRepository) ExistsActivePair(ctx context.Context, studentID, offeredCourseID, desiredCourseID string) (bool, error) {
	const query = `SELECT 1 FROM swap_requests WHERE student_id = $1 AND offered_course_id = $2 AND desired_course_id = $3 AND status = $4 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, offeredCourseID, desiredCourseID, models.SwapRequestStatusActive); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check active swap request: %w", err)
	}
	return true, nil
}

// UpdateStatusIf transitions a request's status only when it still holds the
// expected value. Returns false when another writer got there first.
func (r *SwapRequestRepository) UpdateStatusIf(ctx context.Context, id string, from, to models.SwapRequestStatus) (bool, error) {
	const query = `UPDATE swap_requests SET status = $3 WHERE id = $1 AND status = $2`
	result, err := r.db.ExecContext(ctx, query, id, from, to)
	if err != nil {
		return false, fmt.Errorf("update swap request status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update swap request status: %w", err)
	}
	return affected == 1, nil
}

// ListActive returns all requests still in the active state.
func (r *SwapRequestRepository) ListActive(ctx context.Context) ([]models.SwapRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM swap_requests WHERE status = $1 ORDER BY created_at ASC`, swapRequestColumns)
	var requests []models.SwapRequest
	if err := r.db.SelectContext(ctx, &requests, query, models.SwapRequestStatusActive); err != nil {
		return nil, fmt.Errorf("list active swap requests: %w", err)
	}
	return requests, nil
}

// ListExpiredActive returns active requests whose expiry has passed.
func (r *SwapRequestRepository) ListExpiredActive(ctx context.Context, now time.Time) ([]models.SwapRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM swap_requests WHERE status = $1 AND expires_at <= $2`, swapRequestColumns)
	var requests []models.SwapRequest
	if err := r.db.SelectContext(ctx, &requests, query, models.SwapRequestStatusActive, now); err != nil {
		return nil, fmt.Errorf("list expired swap requests: %w", err)
	}
	return requests, nil
}
