package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/smart-tasks/internal/logger"
	"github.com/benvon/smart-tasks/internal/models"
	"go.uber.org/zap"
)

// Notifier delivers a user-facing alert for a task. Channels that are unconfigured or
// not permitted to alert should return nil without doing anything.
type Notifier interface {
	Notify(ctx context.Context, task models.Task) error
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(ctx context.Context, task models.Task) error

// Notify calls f
func (f NotifierFunc) Notify(ctx context.Context, task models.Task) error {
	return f(ctx, task)
}

// LogNotifier writes reminders to the structured log
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a notifier that only logs
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the reminder
func (n *LogNotifier) Notify(_ context.Context, task models.Task) error {
	n.logger.Info("task_reminder",
		zap.String("task_id", task.ID),
		zap.String("title", logger.SanitizeTitle(task.Title)),
		zap.String("priority", string(task.Priority)),
	)
	return nil
}

// MultiNotifier fans a reminder out to every notifier and joins their errors
type MultiNotifier []Notifier

// Notify calls every notifier even when an earlier one fails
func (m MultiNotifier) Notify(ctx context.Context, task models.Task) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, task); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Message renders the alert text for a task
func Message(task models.Task) string {
	msg := fmt.Sprintf("Task reminder: %s", task.Title)
	if task.DueDate != nil {
		msg += fmt.Sprintf(" (due %s)", task.DueDate.Format(time.DateOnly))
	}
	return msg
}
