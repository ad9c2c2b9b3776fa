package reminder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benvon/smart-tasks/internal/models"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultInterval is how often the monitor checks for due reminders
const DefaultInterval = 60 * time.Second

// Source provides the current task snapshot and the path for setting the reminded flag
type Source interface {
	CurrentTasks() []models.Task
	MarkReminded(ctx context.Context, id string) error
}

// Monitor periodically notifies about due reminders and marks them as reminded.
// It checks once on Start and then every interval. A check that is still running when
// the next tick fires causes that tick to be skipped.
type Monitor struct {
	source   Source
	notifier Notifier
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time

	mu      sync.Mutex
	cron    *cron.Cron
	cancel  context.CancelFunc
	startWG sync.WaitGroup
}

// NewMonitor creates a monitor. interval below one second falls back to DefaultInterval.
func NewMonitor(source Source, notifier Notifier, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval < time.Second {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		source:   source,
		notifier: notifier,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Start schedules the periodic check and runs one immediately in the background
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cron != nil {
		return errors.New("reminder monitor already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	c := cron.New(cron.WithLogger(cronLogger{m.logger.Sugar()}))
	job := cron.NewChain(cron.SkipIfStillRunning(cronLogger{m.logger.Sugar()})).Then(cron.FuncJob(func() {
		m.Check(runCtx)
	}))

	if _, err := c.AddJob(fmt.Sprintf("@every %s", m.interval), job); err != nil {
		cancel()
		return fmt.Errorf("failed to schedule reminder check: %w", err)
	}
	c.Start()

	m.cron = c
	m.cancel = cancel

	m.startWG.Add(1)
	go func() {
		defer m.startWG.Done()
		job.Run()
	}()

	m.logger.Info("reminder_monitor_started", zap.Duration("interval", m.interval))
	return nil
}

// Stop cancels the schedule and waits for a running check to finish or ctx to expire
func (m *Monitor) Stop(ctx context.Context) error {
	m.mu.Lock()
	c, cancel := m.cron, m.cancel
	m.cron, m.cancel = nil, nil
	m.mu.Unlock()

	if c == nil {
		return nil
	}

	stopCtx := c.Stop()
	cancel()

	done := make(chan struct{})
	go func() {
		<-stopCtx.Done()
		m.startWG.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("reminder_monitor_stopped")
		return nil
	case <-ctx.Done():
		m.logger.Warn("reminder_monitor_stop_timeout")
		return ctx.Err()
	}
}

// Check notifies about every due task and marks it reminded. It returns the ids of the
// tasks that were due. A failed notification is logged and the task is still marked,
// so an unavailable channel does not cause a reminder storm.
func (m *Monitor) Check(ctx context.Context) []string {
	due := Due(m.source.CurrentTasks(), m.now())
	if len(due) == 0 {
		return nil
	}

	ids := make([]string, 0, len(due))
	for _, task := range due {
		if ctx.Err() != nil {
			break
		}
		if err := m.notifier.Notify(ctx, task); err != nil {
			m.logger.Warn("reminder_notify_failed", zap.String("task_id", task.ID), zap.Error(err))
		}
		if err := m.source.MarkReminded(ctx, task.ID); err != nil {
			m.logger.Warn("reminder_mark_failed", zap.String("task_id", task.ID), zap.Error(err))
		}
		ids = append(ids, task.ID)
	}

	m.logger.Info("reminders_fired", zap.Int("count", len(ids)))
	return ids
}

// cronLogger routes cron's internal logging to zap
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
