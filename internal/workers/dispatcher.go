package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/smart-tasks/internal/logger"
	"github.com/benvon/smart-tasks/internal/queue"
	"github.com/benvon/smart-tasks/internal/services/reminder"
	"go.uber.org/zap"
)

// DefaultPostponeHold caps how long an early job is held before it goes back
// to a queue that cannot delay delivery.
const DefaultPostponeHold = 5 * time.Second

// Requeuer puts a job back on the queue, typically with a NotBefore in the future
type Requeuer interface {
	Enqueue(ctx context.Context, job *queue.Job) error
}

var _ DelayReporter = (*queue.RabbitMQQueue)(nil)

// DelayReporter is implemented by requeuers that know whether a future NotBefore
// actually keeps the job away from consumers. Requeuers without it are trusted to delay.
type DelayReporter interface {
	DelaysDelivery() bool
}

// ReminderDispatcher delivers reminder jobs taken off the queue
type ReminderDispatcher struct {
	notifier reminder.Notifier
	requeue  Requeuer
	logger   *zap.Logger
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration)
	maxHold  time.Duration
}

// NewReminderDispatcher creates a dispatcher. requeue may be nil, in which case
// failed deliveries go straight to the dead-letter queue.
func NewReminderDispatcher(notifier reminder.Notifier, requeue Requeuer, logger *zap.Logger) *ReminderDispatcher {
	return &ReminderDispatcher{
		notifier: notifier,
		requeue:  requeue,
		logger:   logger,
		now:      time.Now,
		sleep:    sleepContext,
		maxHold:  DefaultPostponeHold,
	}
}

// ProcessJob handles one message. The message is always either acked or nacked
// before ProcessJob returns.
func (d *ReminderDispatcher) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()
	if job == nil {
		if err := msg.Nack(false); err != nil {
			d.logger.Warn("job_nack_failed", zap.Error(err))
		}
		return errors.New("message carries no job")
	}

	if job.Type != queue.JobTypeTaskReminder {
		if err := msg.Nack(false); err != nil {
			d.logger.Warn("job_nack_failed", zap.String("job_id", job.ID.String()), zap.Error(err))
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}

	now := d.now()
	if job.IsExpired(now) {
		d.logger.Info("reminder_expired",
			zap.String("job_id", job.ID.String()),
			zap.String("task_id", logger.SanitizeID(job.TaskID)),
		)
		return ack(msg)
	}
	if !job.ShouldProcess(now) {
		return d.postpone(ctx, msg, job)
	}

	if err := d.notifier.Notify(ctx, job.Task()); err != nil {
		return d.handleFailure(ctx, msg, job, err)
	}

	d.logger.Info("reminder_delivered",
		zap.String("job_id", job.ID.String()),
		zap.String("task_id", logger.SanitizeID(job.TaskID)),
		zap.Int("attempt", job.RetryCount+1),
	)
	return ack(msg)
}

// postpone puts a job that arrived before its NotBefore back on the queue unchanged.
func (d *ReminderDispatcher) postpone(ctx context.Context, msg queue.MessageInterface, job *queue.Job) error {
	if !d.requeueDelays() {
		return d.holdAndRequeue(ctx, msg, job)
	}
	if err := d.requeue.Enqueue(ctx, job); err != nil {
		if nackErr := msg.Nack(true); nackErr != nil {
			d.logger.Warn("job_nack_failed", zap.String("job_id", job.ID.String()), zap.Error(nackErr))
		}
		return fmt.Errorf("failed to defer job %s: %w", job.ID, err)
	}
	return ack(msg)
}

func (d *ReminderDispatcher) requeueDelays() bool {
	if d.requeue == nil {
		return false
	}
	if dr, ok := d.requeue.(DelayReporter); ok {
		return dr.DelaysDelivery()
	}
	return true
}

// holdAndRequeue keeps an early job for at most maxHold before handing it back to
// the broker, so a queue without delayed delivery is not spun on.
func (d *ReminderDispatcher) holdAndRequeue(ctx context.Context, msg queue.MessageInterface, job *queue.Job) error {
	wait := job.NotBefore.Sub(d.now())
	if wait > d.maxHold {
		wait = d.maxHold
	}
	if wait > 0 {
		d.logger.Debug("reminder_postpone_hold",
			zap.String("job_id", job.ID.String()),
			zap.Duration("hold", wait),
		)
		d.sleep(ctx, wait)
	}
	if err := msg.Nack(true); err != nil {
		return fmt.Errorf("failed to requeue early job: %w", err)
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func (d *ReminderDispatcher) handleFailure(ctx context.Context, msg queue.MessageInterface, job *queue.Job, cause error) error {
	if job.CanRetry() && d.requeue != nil {
		delay := job.RetryDelay()
		retry := *job
		retry.IncrementRetry()
		notBefore := d.now().Add(delay)
		retry.NotBefore = &notBefore

		err := d.requeue.Enqueue(ctx, &retry)
		if err == nil {
			d.logger.Warn("reminder_retry_scheduled",
				zap.String("job_id", job.ID.String()),
				zap.String("task_id", logger.SanitizeID(job.TaskID)),
				zap.Int("attempt", retry.RetryCount),
				zap.Int("max_retries", job.MaxRetries),
				zap.Duration("delay", delay),
				zap.String("error", logger.SanitizeError(cause)),
			)
			if ackErr := ack(msg); ackErr != nil {
				return ackErr
			}
			return fmt.Errorf("reminder delivery failed (will retry): %w", cause)
		}
		d.logger.Error("reminder_requeue_failed",
			zap.String("job_id", job.ID.String()),
			zap.Error(err),
		)
	}

	d.logger.Error("reminder_dead_lettered",
		zap.String("job_id", job.ID.String()),
		zap.String("task_id", logger.SanitizeID(job.TaskID)),
		zap.Int("retry_count", job.RetryCount),
		zap.String("error", logger.SanitizeError(cause)),
	)
	if err := msg.Nack(false); err != nil {
		d.logger.Warn("job_nack_failed", zap.String("job_id", job.ID.String()), zap.Error(err))
	}
	return fmt.Errorf("reminder delivery failed: %w", cause)
}

func ack(msg queue.MessageInterface) error {
	if err := msg.Ack(); err != nil {
		return fmt.Errorf("failed to ack job: %w", err)
	}
	return nil
}
