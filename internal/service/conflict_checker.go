package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/course-swap-api/internal/models"
)

// HasConflict reports whether any slot in candidate overlaps any slot in
// existing. Intervals are half-open, so a class ending 10:00 does not
// conflict with one starting 10:00. Empty inputs never conflict.
func HasConflict(existing, candidate []models.TimeSlot) bool {
	for _, e := range existing {
		for _, c := range candidate {
			if e.Overlaps(c) {
				return true
			}
		}
	}
	return false
}

type scheduleStore interface {
	GetEnrolledTimeSlots(ctx context.Context, studentID string) ([]models.TimeSlot, error)
	GetCourseTimeSlots(ctx context.Context, courseID string) ([]models.TimeSlot, error)
}

// SwapSafetyChecker verifies that a proposed swap leaves both students with a
// conflict-free weekly schedule.
type SwapSafetyChecker struct {
	schedules scheduleStore
	cache     *CacheService
	logger    *zap.Logger
}

// NewSwapSafetyChecker constructs the checker.
func NewSwapSafetyChecker(schedules scheduleStore, cache *CacheService, logger *zap.Logger) *SwapSafetyChecker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SwapSafetyChecker{schedules: schedules, cache: cache, logger: logger}
}

// CanSwapWithoutConflicts checks both directions of a swap: student A drops
// courseA and gains courseB, student B drops courseB and gains courseA. Any
// lookup failure counts as unsafe rather than surfacing an error, so a bad
// record can only suppress a match, never break the matching pipeline.
func (s *SwapSafetyChecker) CanSwapWithoutConflicts(ctx context.Context, studentAID, studentBID, courseAID, courseBID string) bool {
	courseASlots, err := s.courseSlots(ctx, courseAID)
	if err != nil {
		s.logger.Warn("swap safety: course slots unavailable", zap.String("course_id", courseAID), zap.Error(err))
		return false
	}
	courseBSlots, err := s.courseSlots(ctx, courseBID)
	if err != nil {
		s.logger.Warn("swap safety: course slots unavailable", zap.String("course_id", courseBID), zap.Error(err))
		return false
	}

	if !s.sideIsSafe(ctx, studentAID, courseAID, courseBSlots) {
		return false
	}
	return s.sideIsSafe(ctx, studentBID, courseBID, courseASlots)
}

// sideIsSafe simulates one student giving up droppedCourseID and gaining the
// provided slots.
func (s *SwapSafetyChecker) sideIsSafe(ctx context.Context, studentID, droppedCourseID string, gainedSlots []models.TimeSlot) bool {
	enrolled, err := s.schedules.GetEnrolledTimeSlots(ctx, studentID)
	if err != nil {
		s.logger.Warn("swap safety: enrolled slots unavailable", zap.String("student_id", studentID), zap.Error(err))
		return false
	}

	remaining := enrolled[:0:0]
	for _, slot := range enrolled {
		if slot.CourseID != droppedCourseID {
			remaining = append(remaining, slot)
		}
	}

	return !HasConflict(remaining, gainedSlots)
}

func (s *SwapSafetyChecker) courseSlots(ctx context.Context, courseID string) ([]models.TimeSlot, error) {
	cacheKey := "schedule:course:" + courseID

	var cached []models.TimeSlot
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return cached, nil
	}

	slots, err := s.schedules.GetCourseTimeSlots(ctx, courseID)
	if err != nil {
		return nil, err
	}

	_ = s.cache.Set(ctx, cacheKey, slots, 0)
	return slots, nil
}
