package models

import (
	"time"
)

// Priority represents how urgent a task is
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Priorities lists every priority in display order
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// TaskStatus represents the status of a task
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusDone       TaskStatus = "done"
)

// SubtaskStatus represents the status of a subtask
type SubtaskStatus string

const (
	SubtaskStatusTodo SubtaskStatus = "todo"
	SubtaskStatusDone SubtaskStatus = "done"
)

// Task represents a to-do item
type Task struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	DueDate      *time.Time `json:"dueDate"`
	ReminderTime *time.Time `json:"reminderTime"`
	Priority     Priority   `json:"priority"`
	Category     string     `json:"category"`
	Tags         []string   `json:"tags"`
	Status       TaskStatus `json:"status"`
	Subtasks     []Subtask  `json:"subtasks"`
	Reminded     bool       `json:"reminded"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Subtask is a checklist item owned by exactly one task
type Subtask struct {
	ID        string        `json:"id"`
	Title     string        `json:"title" validate:"required,min=1,max=500"`
	Status    SubtaskStatus `json:"status" validate:"omitempty,subtask_status"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// TaskInput carries the caller-supplied fields for a new task
type TaskInput struct {
	Title        string     `json:"title" validate:"required,min=1,max=500"`
	Description  string     `json:"description" validate:"max=10000"`
	DueDate      *time.Time `json:"dueDate,omitempty"`
	ReminderTime *time.Time `json:"reminderTime,omitempty"`
	Priority     Priority   `json:"priority,omitempty" validate:"omitempty,priority"`
	Category     string     `json:"category,omitempty" validate:"max=128"`
	Tags         []string   `json:"tags,omitempty" validate:"max=50,dive,min=1,max=64"`
	Subtasks     []Subtask  `json:"subtasks,omitempty" validate:"omitempty,max=100,dive"`
}

// TaskPatch holds the fields to merge onto an existing task. Nil fields are left alone.
// ClearDueDate and ClearReminderTime unset the optional timestamps.
type TaskPatch struct {
	Title             *string     `json:"title,omitempty" validate:"omitempty,min=1,max=500"`
	Description       *string     `json:"description,omitempty" validate:"omitempty,max=10000"`
	DueDate           *time.Time  `json:"dueDate,omitempty"`
	ClearDueDate      bool        `json:"clearDueDate,omitempty"`
	ReminderTime      *time.Time  `json:"reminderTime,omitempty"`
	ClearReminderTime bool        `json:"clearReminderTime,omitempty"`
	Priority          *Priority   `json:"priority,omitempty" validate:"omitempty,priority"`
	Category          *string     `json:"category,omitempty" validate:"omitempty,max=128"`
	Tags              *[]string   `json:"tags,omitempty"`
	Status            *TaskStatus `json:"status,omitempty" validate:"omitempty,task_status"`
	Reminded          *bool       `json:"reminded,omitempty"`
}

// SubtaskPatch holds the fields to merge onto an existing subtask
type SubtaskPatch struct {
	Title  *string        `json:"title,omitempty" validate:"omitempty,min=1,max=500"`
	Status *SubtaskStatus `json:"status,omitempty" validate:"omitempty,subtask_status"`
}

// Normalize fills in the documented defaults for fields that may be missing from
// stored or remote snapshots.
func (t *Task) Normalize() {
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.Status == "" {
		t.Status = TaskStatusTodo
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	if t.Subtasks == nil {
		t.Subtasks = []Subtask{}
	}
	for i := range t.Subtasks {
		if t.Subtasks[i].Status == "" {
			t.Subtasks[i].Status = SubtaskStatusTodo
		}
	}
}

// Clone returns a deep copy so callers never share slices or pointers with stored state.
func (t Task) Clone() Task {
	c := t
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	if t.ReminderTime != nil {
		r := *t.ReminderTime
		c.ReminderTime = &r
	}
	if t.Tags != nil {
		c.Tags = append([]string{}, t.Tags...)
	}
	if t.Subtasks != nil {
		c.Subtasks = append([]Subtask{}, t.Subtasks...)
	}
	return c
}

// Apply merges the patch onto the task. It does not touch UpdatedAt.
func (p TaskPatch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.ClearDueDate {
		t.DueDate = nil
	} else if p.DueDate != nil {
		d := *p.DueDate
		t.DueDate = &d
	}
	if p.ClearReminderTime {
		t.ReminderTime = nil
	} else if p.ReminderTime != nil {
		r := *p.ReminderTime
		t.ReminderTime = &r
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Tags != nil {
		t.Tags = append([]string{}, (*p.Tags)...)
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Reminded != nil {
		t.Reminded = *p.Reminded
	}
}

// Apply merges the patch onto the subtask. It does not touch UpdatedAt.
func (p SubtaskPatch) Apply(s *Subtask) {
	if p.Title != nil {
		s.Title = *p.Title
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
}

// Overdue reports whether the due date falls on a day before now.
func (t Task) Overdue(now time.Time) bool {
	if t.DueDate == nil || t.Status == TaskStatusDone {
		return false
	}
	return startOfDay(t.DueDate.In(now.Location())).Before(startOfDay(now))
}

// DueToday reports whether the due date falls on the same calendar day as now.
func (t Task) DueToday(now time.Time) bool {
	if t.DueDate == nil {
		return false
	}
	return startOfDay(t.DueDate.In(now.Location())).Equal(startOfDay(now))
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ValidPriority reports whether p is one of the known priorities
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	default:
		return false
	}
}

// ValidTaskStatus reports whether s is one of the known task statuses
func ValidTaskStatus(s TaskStatus) bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return true
	default:
		return false
	}
}

// ValidSubtaskStatus reports whether s is one of the known subtask statuses
func ValidSubtaskStatus(s SubtaskStatus) bool {
	switch s {
	case SubtaskStatusTodo, SubtaskStatusDone:
		return true
	default:
		return false
	}
}
