package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/course-swap-api/internal/models"
	appErrors "github.com/noah-isme/course-swap-api/pkg/errors"
)

type swapRequestStore interface {
	Create(ctx context.Context, request *models.SwapRequest) error
	FindByID(ctx context.Context, id string) (*models.SwapRequest, error)
	FindDetailByID(ctx context.Context, id string) (*models.SwapRequestDetail, error)
	List(ctx context.Context, filter models.SwapRequestFilter) ([]models.SwapRequestDetail, int, error)
	ExistsActivePair(ctx context.Context, studentID, offeredCourseID, desiredCourseID string) (bool, error)
	UpdateStatusIf(ctx context.Context, id string, from, to models.SwapRequestStatus) (bool, error)
}

type enrollmentChecker interface {
	IsEnrolled(ctx context.Context, studentID, courseID string) (bool, error)
	CourseExists(ctx context.Context, courseID string) (bool, error)
}

type matchProcessor interface {
	ProcessSwapRequest(ctx context.Context, requestID string) (*MatchResult, error)
}

// CreateSwapRequestRequest describes the creation payload.
type CreateSwapRequestRequest struct {
	OfferedCourseID string `json:"offered_course_id" validate:"required"`
	DesiredCourseID string `json:"desired_course_id" validate:"required"`
	Priority        int    `json:"priority" validate:"gte=0"`
	Notes           string `json:"notes" validate:"max=500"`
}

// CreateSwapRequestResult bundles the created request with the outcome of the
// immediate matching attempt.
type CreateSwapRequestResult struct {
	Request     *models.SwapRequestDetail `json:"request"`
	MatchResult *MatchResult              `json:"match_result"`
}

// SwapRequestService manages the swap request lifecycle owned by students.
type SwapRequestService struct {
	repo       swapRequestStore
	schedules  enrollmentChecker
	matcher    matchProcessor
	validator  *validator.Validate
	logger     *zap.Logger
	requestTTL time.Duration
}

// NewSwapRequestService constructs SwapRequestService.
func NewSwapRequestService(repo swapRequestStore, schedules enrollmentChecker, matcher matchProcessor, validate *validator.Validate, logger *zap.Logger, requestTTL time.Duration) *SwapRequestService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if requestTTL <= 0 {
		requestTTL = 30 * 24 * time.Hour
	}
	return &SwapRequestService{repo: repo, schedules: schedules, matcher: matcher, validator: validate, logger: logger, requestTTL: requestTTL}
}

// Create registers a swap request and synchronously attempts to match it. The
// request survives even when the match attempt fails; an empty pool is a
// normal "not matched" outcome.
func (s *SwapRequestService) Create(ctx context.Context, studentID string, req CreateSwapRequestRequest) (*CreateSwapRequestResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid swap request payload")
	}
	if req.OfferedCourseID == req.DesiredCourseID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "offered and desired course must differ")
	}

	for _, courseID := range []string{req.OfferedCourseID, req.DesiredCourseID} {
		exists, err := s.schedules.CourseExists(ctx, courseID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate course")
		}
		if !exists {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
	}

	enrolled, err := s.schedules.IsEnrolled(ctx, studentID, req.OfferedCourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate enrollment")
	}
	if !enrolled {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "not enrolled in offered course")
	}

	duplicate, err := s.repo.ExistsActivePair(ctx, studentID, req.OfferedCourseID, req.DesiredCourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate swap request")
	}
	if duplicate {
		return nil, appErrors.Clone(appErrors.ErrConflict, "active swap request for this course pair already exists")
	}

	now := time.Now().UTC()
	request := &models.SwapRequest{
		StudentID:       studentID,
		OfferedCourseID: req.OfferedCourseID,
		DesiredCourseID: req.DesiredCourseID,
		Priority:        req.Priority,
		Notes:           req.Notes,
		Status:          models.SwapRequestStatusActive,
		CreatedAt:       now,
		ExpiresAt:       now.Add(s.requestTTL),
	}
	if err := s.repo.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create swap request")
	}

	matchResult, err := s.matcher.ProcessSwapRequest(ctx, request.ID)
	if err != nil {
		// The request is already persisted and stays active.
		return nil, err
	}

	detail, err := s.repo.FindDetailByID(ctx, request.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load swap request detail")
	}
	return &CreateSwapRequestResult{Request: detail, MatchResult: matchResult}, nil
}

// List returns swap requests with pagination metadata.
func (s *SwapRequestService) List(ctx context.Context, filter models.SwapRequestFilter) ([]models.SwapRequestDetail, *models.Pagination, error) {
	requests, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list swap requests")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return requests, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Cancel withdraws an active request. Only the owner may cancel, and only
// while the request is still active.
func (s *SwapRequestService) Cancel(ctx context.Context, requestID, studentID string) (*models.SwapRequest, error) {
	request, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "swap request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load swap request")
	}
	if request.StudentID != studentID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not the owner of this swap request")
	}
	if request.Status != models.SwapRequestStatusActive {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "swap request is not active")
	}

	cancelled, err := s.repo.UpdateStatusIf(ctx, requestID, models.SwapRequestStatusActive, models.SwapRequestStatusCancelled)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel swap request")
	}
	if !cancelled {
		return nil, appErrors.Clone(appErrors.ErrConflict, "swap request was matched concurrently")
	}

	request.Status = models.SwapRequestStatusCancelled
	s.logger.Info("swap request cancelled", zap.String("request_id", requestID))
	return request, nil
}
