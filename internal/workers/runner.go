package workers

import (
	"context"
	"fmt"

	"github.com/benvon/smart-tasks/internal/queue"
	"go.uber.org/zap"
)

// Consumer is the part of queue.JobQueue the runner reads from
type Consumer interface {
	Consume(ctx context.Context, prefetchCount int) (<-chan *queue.Message, <-chan error, error)
}

// Handler processes a single message and must ack or nack it
type Handler func(ctx context.Context, msg queue.MessageInterface) error

// Runner pumps messages from a Consumer into a Handler
type Runner struct {
	consumer Consumer
	handle   Handler
	prefetch int
	logger   *zap.Logger
}

// NewRunner creates a runner. A prefetch below 1 is raised to 1.
func NewRunner(consumer Consumer, handle Handler, prefetch int, logger *zap.Logger) *Runner {
	if prefetch < 1 {
		prefetch = 1
	}
	return &Runner{consumer: consumer, handle: handle, prefetch: prefetch, logger: logger}
}

// Run blocks until ctx is cancelled or the message channel closes. Handler
// errors are logged and do not stop the loop.
func (r *Runner) Run(ctx context.Context) error {
	msgChan, errChan, err := r.consumer.Consume(ctx, r.prefetch)
	if err != nil {
		return fmt.Errorf("failed to start consuming messages: %w", err)
	}

	r.logger.Info("worker_consuming", zap.Int("prefetch", r.prefetch))

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-errChan:
			if !ok {
				errChan = nil
				continue
			}
			r.logger.Error("queue_error", zap.Error(err))
		case msg, ok := <-msgChan:
			if !ok {
				r.logger.Info("message_channel_closed")
				return nil
			}
			if err := r.handle(ctx, msg); err != nil {
				fields := []zap.Field{zap.Error(err)}
				if job := msg.GetJob(); job != nil {
					fields = append(fields,
						zap.String("job_id", job.ID.String()),
						zap.String("job_type", string(job.Type)),
					)
				}
				r.logger.Error("job_processing_failed", fields...)
			}
		}
	}
}
