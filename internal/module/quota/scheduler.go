package quota

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aidash/server/internal/shared/metrics"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ResetScheduler clears all usage on a cron schedule, turning the lifetime
// counter into a per-billing-period one.
//
// Common schedules:
//   - "0 0 1 * *"  first day of every month
//   - "0 0 * * 1"  every Monday
type ResetScheduler struct {
	ledger   Ledger
	schedule string
	cron     *cron.Cron
	logger   *zap.Logger
	metrics  *metrics.Metrics

	mu      sync.Mutex
	running bool
}

// NewResetScheduler creates a scheduler. An empty schedule disables it.
func NewResetScheduler(ledger Ledger, schedule string, logger *zap.Logger, m *metrics.Metrics) *ResetScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResetScheduler{
		ledger:   ledger,
		schedule: schedule,
		cron:     cron.New(),
		logger:   logger.Named("quota.reset"),
		metrics:  m,
	}
}

// Start schedules the reset job and stops it when ctx is done.
func (s *ResetScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		s.logger.Debug("reset schedule not configured, usage is a lifetime counter")
		return nil
	}
	if s.running {
		return nil
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid reset schedule %q: %w", s.schedule, err)
	}
	if _, err := s.cron.AddFunc(s.schedule, func() { s.RunNow(ctx) }); err != nil {
		return fmt.Errorf("schedule usage reset: %w", err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("usage reset scheduler started", zap.String("schedule", s.schedule))

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// RunNow clears all usage records once.
func (s *ResetScheduler) RunNow(ctx context.Context) (int64, error) {
	n, err := s.ledger.ResetAll(ctx)
	if err != nil {
		s.logger.Error("usage reset failed", zap.Error(err))
		return n, err
	}
	if s.metrics != nil {
		s.metrics.RecordQuotaResets(n)
	}
	s.logger.Info("usage reset completed", zap.Int64("cleared", n))
	return n, nil
}

// Stop stops the scheduler and waits for a running reset to finish.
func (s *ResetScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		<-s.cron.Stop().Done()
		s.running = false
		s.logger.Info("usage reset scheduler stopped")
	}
}

// IsRunning reports whether the scheduler is active.
func (s *ResetScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled reset, or nil when not scheduled.
func (s *ResetScheduler) NextRun() *time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
