package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/course-swap-api/internal/models"
	appErrors "github.com/noah-isme/course-swap-api/pkg/errors"
	"github.com/noah-isme/course-swap-api/pkg/jobs"
)

type sweepRequestStore interface {
	ListActive(ctx context.Context) ([]models.SwapRequest, error)
	ListExpiredActive(ctx context.Context, now time.Time) ([]models.SwapRequest, error)
	UpdateStatusIf(ctx context.Context, id string, from, to models.SwapRequestStatus) (bool, error)
}

// SweepOutcome is the per-request result of a sweep pass.
type SweepOutcome struct {
	RequestID string `json:"request_id"`
	Matched   bool   `json:"matched"`
	Expired   bool   `json:"expired,omitempty"`
	Error     string `json:"error,omitempty"`
}

// SweeperService periodically expires overdue requests and re-attempts
// matching for everything still active, catching pairs whose counterpart was
// created after them.
type SweeperService struct {
	requests sweepRequestStore
	matcher  matchProcessor
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewSweeperService constructs SweeperService.
func NewSweeperService(requests sweepRequestStore, matcher matchProcessor, metrics *MetricsService, logger *zap.Logger) *SweeperService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SweeperService{requests: requests, matcher: matcher, metrics: metrics, logger: logger}
}

// Sweep runs one full pass. A failure on one request never aborts the rest;
// it is recorded in that request's outcome instead.
func (s *SweeperService) Sweep(ctx context.Context) ([]SweepOutcome, error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveSweep(time.Since(start))
	}()

	now := time.Now().UTC()
	var outcomes []SweepOutcome

	expired, err := s.requests.ListExpiredActive(ctx, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list expired requests")
	}
	expiredSet := make(map[string]bool, len(expired))
	for _, request := range expired {
		outcome := SweepOutcome{RequestID: request.ID, Expired: true}
		if _, err := s.requests.UpdateStatusIf(ctx, request.ID, models.SwapRequestStatusActive, models.SwapRequestStatusExpired); err != nil {
			outcome.Error = err.Error()
			s.metrics.RecordSweepItem("error")
			s.logger.Warn("failed to expire swap request", zap.String("request_id", request.ID), zap.Error(err))
		} else {
			expiredSet[request.ID] = true
			s.metrics.RecordSweepItem("expired")
		}
		outcomes = append(outcomes, outcome)
	}

	active, err := s.requests.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list active requests")
	}
	for _, request := range active {
		if expiredSet[request.ID] {
			continue
		}
		outcome := SweepOutcome{RequestID: request.ID}
		result, err := s.matcher.ProcessSwapRequest(ctx, request.ID)
		switch {
		case err != nil:
			outcome.Error = err.Error()
			s.metrics.RecordSweepItem("error")
			s.logger.Warn("sweep match attempt failed", zap.String("request_id", request.ID), zap.Error(err))
		case result.Matched:
			outcome.Matched = true
			s.metrics.RecordSweepItem("matched")
		default:
			s.metrics.RecordSweepItem("not_matched")
		}
		outcomes = append(outcomes, outcome)
	}

	s.logger.Info("sweep finished",
		zap.Int("expired", len(expired)),
		zap.Int("processed", len(outcomes)),
		zap.Duration("took", time.Since(start)))
	return outcomes, nil
}

// SweepScheduler triggers sweeps on an interval, dispatching them through the
// background job queue so a failed pass is retried with the queue's policy.
type SweepScheduler struct {
	queue    *jobs.Queue
	interval time.Duration
	logger   *zap.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewSweepScheduler constructs the scheduler around a sweeper.
func NewSweepScheduler(sweeper *SweeperService, interval time.Duration, cfg jobs.QueueConfig) *SweepScheduler {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	handler := func(ctx context.Context, job jobs.Job) error {
		_, err := sweeper.Sweep(ctx)
		return err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SweepScheduler{
		queue:    jobs.NewQueue("sweeper", handler, cfg),
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start launches the queue workers and the periodic trigger.
func (s *SweepScheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.queue.Start(ctx)

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				job := jobs.Job{ID: uuid.NewString(), Type: "sweep"}
				if err := s.queue.Enqueue(job); err != nil {
					s.logger.Warn("failed to enqueue sweep", zap.Error(err))
				}
			}
		}
	}()
}

// Stop halts the trigger and drains the queue workers.
func (s *SweepScheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	<-s.done
	s.queue.Stop()
}
