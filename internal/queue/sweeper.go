package queue

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultSweepInterval is how often dead-lettered reminders are swept
	DefaultSweepInterval = time.Hour

	sweepTimeout = 2 * time.Minute
)

// DeadLetterSweeper drops dead-lettered reminders that could no longer be delivered on time.
// Retention is never shorter than DefaultReminderTTL, so a failed reminder stays
// inspectable for at least as long as it was deliverable.
type DeadLetterSweeper struct {
	purger    DLQPurger
	interval  time.Duration
	retention time.Duration
	logger    *zap.Logger
	swept     atomic.Int64
}

// NewDeadLetterSweeper creates a sweeper. A nil purger makes every sweep a no-op.
func NewDeadLetterSweeper(purger DLQPurger, interval, retention time.Duration, logger *zap.Logger) *DeadLetterSweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if retention < DefaultReminderTTL {
		logger.Warn("reminder_dlq_retention_raised",
			zap.Duration("requested", retention),
			zap.Duration("retention", DefaultReminderTTL),
		)
		retention = DefaultReminderTTL
	}
	return &DeadLetterSweeper{
		purger:    purger,
		interval:  interval,
		retention: retention,
		logger:    logger,
	}
}

// Retention is the age after which a dead-lettered reminder is dropped
func (s *DeadLetterSweeper) Retention() time.Duration { return s.retention }

// Swept is the number of reminders dropped since the sweeper was created
func (s *DeadLetterSweeper) Swept() int64 { return s.swept.Load() }

// Run sweeps once straight away, to catch up after a restart, then every interval
// until ctx is cancelled.
func (s *DeadLetterSweeper) Run(ctx context.Context) error {
	s.sweepAndLog(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweepAndLog(ctx)
		}
	}
}

func (s *DeadLetterSweeper) sweepAndLog(ctx context.Context) {
	if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
		s.logger.Warn("reminder_dlq_sweep_failed", zap.Error(err))
	}
}

// Sweep drops dead-lettered reminders older than retention and reports how many went
func (s *DeadLetterSweeper) Sweep(ctx context.Context) (int, error) {
	if s.purger == nil {
		return 0, nil
	}
	ctx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	n, err := s.purger.PurgeOlderThan(ctx, s.retention)
	if n > 0 {
		s.swept.Add(int64(n))
		s.logger.Info("reminder_dlq_swept",
			zap.Int("count", n),
			zap.Int64("total", s.swept.Load()),
			zap.Duration("retention", s.retention),
		)
	}
	if err != nil {
		return n, fmt.Errorf("failed to sweep dead-lettered reminders: %w", err)
	}
	return n, nil
}
