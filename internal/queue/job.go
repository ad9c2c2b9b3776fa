package queue

import (
	"time"

	"github.com/benvon/smart-tasks/internal/models"
	"github.com/google/uuid"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypeTaskReminder delivers a reminder for a single task
	JobTypeTaskReminder JobType = "task_reminder"
)

// DefaultReminderTTL bounds how late a reminder may still be delivered
const DefaultReminderTTL = 24 * time.Hour

// Job represents a job in the queue
type Job struct {
	ID           uuid.UUID         `json:"id"`
	Type         JobType           `json:"type"`
	TaskID       string            `json:"task_id"`
	Title        string            `json:"title"`
	DueDate      *time.Time        `json:"due_date,omitempty"`
	ReminderTime *time.Time        `json:"reminder_time,omitempty"`
	NotBefore    *time.Time        `json:"not_before,omitempty"` // nil = immediate
	NotAfter     *time.Time        `json:"not_after,omitempty"`  // nil = no expiration
	Metadata     map[string]string `json:"metadata,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	RetryCount   int               `json:"retry_count"`
	MaxRetries   int               `json:"max_retries"`
}

// NewReminderJob creates a reminder job for task that expires after DefaultReminderTTL
func NewReminderJob(task models.Task) *Job {
	now := time.Now().UTC()
	notAfter := now.Add(DefaultReminderTTL)
	job := &Job{
		ID:         uuid.New(),
		Type:       JobTypeTaskReminder,
		TaskID:     task.ID,
		Title:      task.Title,
		NotAfter:   &notAfter,
		Metadata:   map[string]string{"priority": string(task.Priority)},
		CreatedAt:  now,
		MaxRetries: 3,
	}
	if task.DueDate != nil {
		d := *task.DueDate
		job.DueDate = &d
	}
	if task.ReminderTime != nil {
		r := *task.ReminderTime
		job.ReminderTime = &r
	}
	return job
}

// Task rebuilds the task fields a notifier needs
func (j *Job) Task() models.Task {
	task := models.Task{
		ID:           j.TaskID,
		Title:        j.Title,
		DueDate:      j.DueDate,
		ReminderTime: j.ReminderTime,
		Priority:     models.Priority(j.Metadata["priority"]),
	}
	task.Normalize()
	return task
}

// ShouldProcess reports whether the job falls inside its NotBefore/NotAfter window at now
func (j *Job) ShouldProcess(now time.Time) bool {
	if j.NotBefore != nil && now.Before(*j.NotBefore) {
		return false
	}
	return !j.IsExpired(now)
}

// IsExpired reports whether NotAfter has passed
func (j *Job) IsExpired(now time.Time) bool {
	return j.NotAfter != nil && now.After(*j.NotAfter)
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// IncrementRetry increments the retry count
func (j *Job) IncrementRetry() {
	j.RetryCount++
}

// RetryDelay is the backoff before the next attempt: 30s, 60s, 120s, ...
func (j *Job) RetryDelay() time.Duration {
	return 30 * time.Second << min(j.RetryCount, 6)
}
