package service

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/noah-isme/course-swap-api/internal/models"
	appErrors "github.com/noah-isme/course-swap-api/pkg/errors"
)

type mirrorRequestStore interface {
	FindByID(ctx context.Context, id string) (*models.SwapRequest, error)
	FindMirrors(ctx context.Context, offeredCourseID, desiredCourseID, excludeStudentID string) ([]models.SwapRequest, error)
	UpdateStatusIf(ctx context.Context, id string, from, to models.SwapRequestStatus) (bool, error)
}

type matchCreator interface {
	Create(ctx context.Context, match *models.SwapMatch) error
	ExistsPendingForRequests(ctx context.Context, requestIDA, requestIDB string) (bool, error)
}

type swapSafetyChecker interface {
	CanSwapWithoutConflicts(ctx context.Context, studentAID, studentBID, courseAID, courseBID string) bool
}

// MatchResult reports the outcome of a matching attempt.
type MatchResult struct {
	Matched     bool                `json:"matched"`
	Match       *models.SwapMatch   `json:"match,omitempty"`
	MatchedWith *models.SwapRequest `json:"matched_with,omitempty"`
}

// MatchFinderService locates mirror requests and pairs them. Matching is
// greedy: one request at a time, best candidate wins, no global optimization.
type MatchFinderService struct {
	requests mirrorRequestStore
	matches  matchCreator
	safety   swapSafetyChecker
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewMatchFinderService constructs MatchFinderService.
func NewMatchFinderService(requests mirrorRequestStore, matches matchCreator, safety swapSafetyChecker, metrics *MetricsService, logger *zap.Logger) *MatchFinderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MatchFinderService{requests: requests, matches: matches, safety: safety, metrics: metrics, logger: logger}
}

// FindMutualMatches returns the pool of compatible mirror requests for an
// active swap request, ranked by priority then age. A candidate survives when
// its courses are the exact mirror, the swap passes the schedule safety check,
// and no pending match already touches either request.
func (s *MatchFinderService) FindMutualMatches(ctx context.Context, requestID string) ([]models.SwapRequest, error) {
	request, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "swap request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load swap request")
	}
	if request.Status != models.SwapRequestStatusActive {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "swap request is not active")
	}

	mirrors, err := s.requests.FindMirrors(ctx, request.OfferedCourseID, request.DesiredCourseID, request.StudentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to query mirror requests")
	}

	pool := make([]models.SwapRequest, 0, len(mirrors))
	for _, candidate := range mirrors {
		if !s.safety.CanSwapWithoutConflicts(ctx, request.StudentID, candidate.StudentID, request.OfferedCourseID, candidate.OfferedCourseID) {
			continue
		}
		pending, err := s.matches.ExistsPendingForRequests(ctx, request.ID, candidate.ID)
		if err != nil {
			s.logger.Warn("duplicate match check failed, skipping candidate",
				zap.String("request_id", request.ID), zap.String("candidate_id", candidate.ID), zap.Error(err))
			continue
		}
		if pending {
			continue
		}
		pool = append(pool, candidate)
	}
	return pool, nil
}

// ProcessSwapRequest runs the full matching pipeline for one request. When a
// compatible partner exists it claims both requests with conditional status
// updates and creates exactly one pending match. An empty pool is a normal
// "not matched" outcome, not an error.
func (s *MatchFinderService) ProcessSwapRequest(ctx context.Context, requestID string) (*MatchResult, error) {
	request, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "swap request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load swap request")
	}

	pool, err := s.FindMutualMatches(ctx, requestID)
	if err != nil {
		return nil, err
	}

	for i := range pool {
		candidate := pool[i]

		// Claim the candidate first, then ourselves. Either claim losing the
		// conditional update means a concurrent matcher got there first.
		claimed, err := s.requests.UpdateStatusIf(ctx, candidate.ID, models.SwapRequestStatusActive, models.SwapRequestStatusMatched)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to claim candidate request")
		}
		if !claimed {
			continue
		}

		claimed, err = s.requests.UpdateStatusIf(ctx, request.ID, models.SwapRequestStatusActive, models.SwapRequestStatusMatched)
		if err != nil || !claimed {
			if _, releaseErr := s.requests.UpdateStatusIf(ctx, candidate.ID, models.SwapRequestStatusMatched, models.SwapRequestStatusActive); releaseErr != nil {
				s.logger.Error("failed to release claimed candidate", zap.String("candidate_id", candidate.ID), zap.Error(releaseErr))
			}
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to claim swap request")
			}
			// Our own request was matched concurrently; nothing left to do.
			s.metrics.RecordMatchAttempt(false)
			return &MatchResult{Matched: false}, nil
		}

		match := &models.SwapMatch{
			RequestAID: request.ID,
			RequestBID: candidate.ID,
			StudentAID: request.StudentID,
			StudentBID: candidate.StudentID,
			CourseAID:  request.OfferedCourseID,
			CourseBID:  candidate.OfferedCourseID,
			Status:     models.SwapMatchStatusPending,
		}
		if err := s.matches.Create(ctx, match); err != nil {
			for _, id := range []string{request.ID, candidate.ID} {
				if _, releaseErr := s.requests.UpdateStatusIf(ctx, id, models.SwapRequestStatusMatched, models.SwapRequestStatusActive); releaseErr != nil {
					s.logger.Error("failed to release claimed request", zap.String("request_id", id), zap.Error(releaseErr))
				}
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create swap match")
		}

		s.logger.Info("swap match created",
			zap.String("match_id", match.ID),
			zap.String("request_a_id", request.ID),
			zap.String("request_b_id", candidate.ID))
		s.metrics.RecordMatchAttempt(true)
		return &MatchResult{Matched: true, Match: match, MatchedWith: &candidate}, nil
	}

	s.metrics.RecordMatchAttempt(false)
	return &MatchResult{Matched: false}, nil
}
