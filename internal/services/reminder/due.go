// Package reminder finds tasks whose reminder time has passed and notifies about them.
package reminder

import (
	"time"

	"github.com/benvon/smart-tasks/internal/models"
)

// Due returns the tasks that need a reminder at now: reminder time set and not in the
// future, not yet reminded, and not done. Order follows the input.
func Due(tasks []models.Task, now time.Time) []models.Task {
	var due []models.Task
	for _, task := range tasks {
		if task.ReminderTime == nil || task.Reminded || task.Status == models.TaskStatusDone {
			continue
		}
		if task.ReminderTime.After(now) {
			continue
		}
		due = append(due, task)
	}
	return due
}
