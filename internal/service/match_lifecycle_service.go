package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/course-swap-api/internal/models"
	appErrors "github.com/noah-isme/course-swap-api/pkg/errors"
)

// Confirmation and completion outcomes surfaced to callers. "Waiting" is a
// normal state, not a failure.
const (
	ConfirmStatusWaiting   = "waiting_for_other_confirmation"
	ConfirmStatusConfirmed = "confirmed"
	CompleteStatusWaiting  = "waiting_for_other_completion"
	CompleteStatusDone     = "completed"
)

type matchStore interface {
	FindByID(ctx context.Context, id string) (*models.SwapMatch, error)
	List(ctx context.Context, filter models.SwapMatchFilter) ([]models.SwapMatch, int, error)
	SetConfirmed(ctx context.Context, id string, side models.MatchSide, at time.Time) (bool, error)
	PromoteConfirmed(ctx context.Context, id string, at time.Time) (bool, error)
	SetCompleted(ctx context.Context, id string, side models.MatchSide) (bool, error)
	PromoteCompleted(ctx context.Context, id string, at time.Time) (bool, error)
	MarkRejected(ctx context.Context, id string) (bool, error)
}

type requestStatusUpdater interface {
	UpdateStatusIf(ctx context.Context, id string, from, to models.SwapRequestStatus) (bool, error)
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// ConfirmResult is returned from Confirm. Contact info is present only once
// both sides have confirmed.
type ConfirmResult struct {
	Status      string              `json:"status"`
	ContactInfo *models.ContactInfo `json:"contact_info,omitempty"`
}

// CompleteResult is returned from MarkCompleted.
type CompleteResult struct {
	Status string `json:"status"`
}

// ContactDetails aggregates the counterpart contact info with a description of
// the agreed swap.
type ContactDetails struct {
	ContactInfo models.ContactInfo `json:"contact_info"`
	SwapDetails models.SwapSummary `json:"swap_details"`
}

// MatchLifecycleService drives a match through pending, confirmed, rejected
// and completed. Contact information is released only after both participants
// confirm; completion likewise requires both sides.
type MatchLifecycleService struct {
	matches  matchStore
	requests requestStatusUpdater
	students studentReader
	courses  courseReader
	logger   *zap.Logger
}

// NewMatchLifecycleService constructs MatchLifecycleService.
func NewMatchLifecycleService(matches matchStore, requests requestStatusUpdater, students studentReader, courses courseReader, logger *zap.Logger) *MatchLifecycleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MatchLifecycleService{matches: matches, requests: requests, students: students, courses: courses, logger: logger}
}

// List returns the matches a student participates in.
func (s *MatchLifecycleService) List(ctx context.Context, filter models.SwapMatchFilter) ([]models.SwapMatch, *models.Pagination, error) {
	matches, total, err := s.matches.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list matches")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return matches, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Confirm records one participant's agreement. The first confirmer is told to
// wait; the second receives the counterpart's contact info. Re-confirming is a
// no-op on the caller's own flag and never restamps timestamps.
func (s *MatchLifecycleService) Confirm(ctx context.Context, matchID, studentID string) (*ConfirmResult, error) {
	match, side, err := s.loadParticipantMatch(ctx, matchID, studentID)
	if err != nil {
		return nil, err
	}
	if match.Status != models.SwapMatchStatusPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "match already processed")
	}

	now := time.Now().UTC()
	if !match.ConfirmedBy(side) {
		if _, err := s.matches.SetConfirmed(ctx, matchID, side, now); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record confirmation")
		}
	}

	updated, err := s.matches.FindByID(ctx, matchID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload match")
	}

	if updated.Status == models.SwapMatchStatusPending && updated.AConfirmed && updated.BConfirmed {
		if _, err := s.matches.PromoteConfirmed(ctx, matchID, now); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to confirm match")
		}
		updated.Status = models.SwapMatchStatusConfirmed
		s.logger.Info("swap match confirmed", zap.String("match_id", matchID))
	}

	if updated.Status == models.SwapMatchStatusConfirmed {
		contact, err := s.contactFor(ctx, updated, side)
		if err != nil {
			return nil, err
		}
		return &ConfirmResult{Status: ConfirmStatusConfirmed, ContactInfo: contact}, nil
	}
	return &ConfirmResult{Status: ConfirmStatusWaiting}, nil
}

// Reject terminates a pending match and returns both originating requests to
// the active pool. This is the only transition that reverses request status.
func (s *MatchLifecycleService) Reject(ctx context.Context, matchID, studentID string) error {
	match, _, err := s.loadParticipantMatch(ctx, matchID, studentID)
	if err != nil {
		return err
	}
	if match.Status != models.SwapMatchStatusPending {
		return appErrors.Clone(appErrors.ErrConflict, "match already processed")
	}

	rejected, err := s.matches.MarkRejected(ctx, matchID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject match")
	}
	if !rejected {
		return appErrors.Clone(appErrors.ErrConflict, "match already processed")
	}

	var failed error
	for _, requestID := range []string{match.RequestAID, match.RequestBID} {
		if _, err := s.requests.UpdateStatusIf(ctx, requestID, models.SwapRequestStatusMatched, models.SwapRequestStatusActive); err != nil {
			s.logger.Error("failed to reactivate request after rejection", zap.String("request_id", requestID), zap.Error(err))
			failed = err
		}
	}
	if failed != nil {
		return appErrors.Wrap(failed, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reactivate requests")
	}

	s.logger.Info("swap match rejected", zap.String("match_id", matchID), zap.String("by", studentID))
	return nil
}

// GetContactInfo returns the counterpart's contact details for a confirmed
// match, along with a summary of who gives and receives what.
func (s *MatchLifecycleService) GetContactInfo(ctx context.Context, matchID, studentID string) (*ContactDetails, error) {
	match, side, err := s.loadParticipantMatch(ctx, matchID, studentID)
	if err != nil {
		return nil, err
	}
	if match.Status != models.SwapMatchStatusConfirmed {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "contact info not available")
	}

	contact, err := s.contactFor(ctx, match, side)
	if err != nil {
		return nil, err
	}
	summary, err := s.summaryFor(ctx, match, side)
	if err != nil {
		return nil, err
	}
	return &ContactDetails{ContactInfo: *contact, SwapDetails: *summary}, nil
}

// MarkCompleted records one participant's completion. Once both sides have
// marked done, the match and both originating requests become completed.
func (s *MatchLifecycleService) MarkCompleted(ctx context.Context, matchID, studentID string) (*CompleteResult, error) {
	match, side, err := s.loadParticipantMatch(ctx, matchID, studentID)
	if err != nil {
		return nil, err
	}
	if match.Status != models.SwapMatchStatusConfirmed {
		return nil, appErrors.Clone(appErrors.ErrConflict, "match is not confirmed")
	}

	if !match.CompletedBy(side) {
		if _, err := s.matches.SetCompleted(ctx, matchID, side); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record completion")
		}
	}

	updated, err := s.matches.FindByID(ctx, matchID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload match")
	}

	if updated.Status == models.SwapMatchStatusConfirmed && updated.ACompleted && updated.BCompleted {
		now := time.Now().UTC()
		promoted, err := s.matches.PromoteCompleted(ctx, matchID, now)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to complete match")
		}
		if promoted {
			for _, requestID := range []string{match.RequestAID, match.RequestBID} {
				if _, err := s.requests.UpdateStatusIf(ctx, requestID, models.SwapRequestStatusMatched, models.SwapRequestStatusCompleted); err != nil {
					s.logger.Error("failed to complete request", zap.String("request_id", requestID), zap.Error(err))
				}
			}
			s.logger.Info("swap match completed", zap.String("match_id", matchID))
		}
		return &CompleteResult{Status: CompleteStatusDone}, nil
	}
	if updated.Status == models.SwapMatchStatusCompleted {
		return &CompleteResult{Status: CompleteStatusDone}, nil
	}
	return &CompleteResult{Status: CompleteStatusWaiting}, nil
}

func (s *MatchLifecycleService) loadParticipantMatch(ctx context.Context, matchID, studentID string) (*models.SwapMatch, models.MatchSide, error) {
	match, err := s.matches.FindByID(ctx, matchID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, 0, appErrors.Clone(appErrors.ErrNotFound, "match not found")
		}
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load match")
	}
	side, ok := match.SideOf(studentID)
	if !ok {
		return nil, 0, appErrors.Clone(appErrors.ErrForbidden, "not a participant of this match")
	}
	return match, side, nil
}

func (s *MatchLifecycleService) contactFor(ctx context.Context, match *models.SwapMatch, side models.MatchSide) (*models.ContactInfo, error) {
	counterpart, err := s.students.FindByID(ctx, match.CounterpartID(side))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load counterpart")
	}
	return &models.ContactInfo{
		StudentID: counterpart.ID,
		FullName:  counterpart.FullName,
		Email:     counterpart.Email,
		NIM:       counterpart.NIM,
		Phone:     counterpart.Phone,
	}, nil
}

func (s *MatchLifecycleService) summaryFor(ctx context.Context, match *models.SwapMatch, side models.MatchSide) (*models.SwapSummary, error) {
	given, err := s.courseLabel(ctx, match.GivenCourseID(side))
	if err != nil {
		return nil, err
	}
	received, err := s.courseLabel(ctx, match.ReceivedCourseID(side))
	if err != nil {
		return nil, err
	}
	return &models.SwapSummary{
		YouGive:     given,
		YouReceive:  received,
		TheyGive:    received,
		TheyReceive: given,
	}, nil
}

func (s *MatchLifecycleService) courseLabel(ctx context.Context, courseID string) (string, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return courseID, nil
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return fmt.Sprintf("%s %s", course.Code, course.Name), nil
}
