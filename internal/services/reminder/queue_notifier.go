package reminder

import (
	"context"
	"fmt"

	"github.com/benvon/smart-tasks/internal/models"
	"github.com/benvon/smart-tasks/internal/queue"
)

// Enqueuer is the part of queue.JobQueue used to hand reminders to the worker
type Enqueuer interface {
	Enqueue(ctx context.Context, job *queue.Job) error
}

// QueueNotifier hands reminders to the worker process through the job queue
type QueueNotifier struct {
	queue Enqueuer
}

// NewQueueNotifier creates a notifier that enqueues reminder jobs
func NewQueueNotifier(q Enqueuer) *QueueNotifier {
	return &QueueNotifier{queue: q}
}

// Notify enqueues a reminder job for task
func (n *QueueNotifier) Notify(ctx context.Context, task models.Task) error {
	if err := n.queue.Enqueue(ctx, queue.NewReminderJob(task)); err != nil {
		return fmt.Errorf("failed to enqueue reminder for %s: %w", task.ID, err)
	}
	return nil
}
