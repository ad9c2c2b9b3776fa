package models

import (
	"testing"
	"time"
)

func TestTaskStatus_Values(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value TaskStatus
		valid bool
	}{
		{"todo", TaskStatusTodo, true},
		{"in-progress", TaskStatusInProgress, true},
		{"done", TaskStatusDone, true},
		{"invalid", TaskStatus("pending"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ValidTaskStatus(tt.value); got != tt.valid {
				t.Errorf("ValidTaskStatus(%s) = %v, want %v", tt.value, got, tt.valid)
			}
		})
	}
}

func TestTask_Normalize(t *testing.T) {
	t.Parallel()

	task := Task{ID: "a", Title: "x", Subtasks: []Subtask{{ID: "s"}}}
	task.Normalize()

	if task.Priority != PriorityMedium {
		t.Errorf("Priority = %s, want medium", task.Priority)
	}
	if task.Status != TaskStatusTodo {
		t.Errorf("Status = %s, want todo", task.Status)
	}
	if task.Tags == nil {
		t.Error("Tags should default to an empty slice")
	}
	if task.Subtasks[0].Status != SubtaskStatusTodo {
		t.Errorf("Subtask status = %s, want todo", task.Subtasks[0].Status)
	}
}

func TestTask_CloneIsDeep(t *testing.T) {
	t.Parallel()

	due := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	orig := Task{ID: "a", DueDate: &due, Tags: []string{"one"}, Subtasks: []Subtask{{ID: "s", Title: "first"}}}
	c := orig.Clone()

	c.Tags[0] = "changed"
	c.Subtasks[0].Title = "changed"
	*c.DueDate = due.Add(time.Hour)

	if orig.Tags[0] != "one" || orig.Subtasks[0].Title != "first" || !orig.DueDate.Equal(due) {
		t.Error("Clone shares state with the original")
	}
}

func TestTaskPatch_Apply(t *testing.T) {
	t.Parallel()

	due := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	title := "New title"
	status := TaskStatusDone
	tags := []string{"a", "b"}

	task := Task{ID: "id-1", Title: "Old", DueDate: &due, Priority: PriorityLow}
	TaskPatch{Title: &title, Status: &status, Tags: &tags, ClearDueDate: true}.Apply(&task)

	if task.ID != "id-1" {
		t.Error("patch must not change the id")
	}
	if task.Title != title || task.Status != status || task.DueDate != nil {
		t.Errorf("unexpected task after patch: %+v", task)
	}
	if task.Priority != PriorityLow {
		t.Error("nil patch fields must be left alone")
	}
	tags[0] = "mutated"
	if task.Tags[0] != "a" {
		t.Error("patch tags must be copied")
	}
}

func TestTask_OverdueAndDueToday(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 5, 10, 15, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)
	earlierToday := time.Date(2026, 5, 10, 1, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		task     Task
		overdue  bool
		dueToday bool
	}{
		{"no due date", Task{}, false, false},
		{"due yesterday", Task{DueDate: &yesterday, Status: TaskStatusTodo}, true, false},
		{"due yesterday but done", Task{DueDate: &yesterday, Status: TaskStatusDone}, false, false},
		{"due earlier today", Task{DueDate: &earlierToday, Status: TaskStatusTodo}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.task.Overdue(now); got != tt.overdue {
				t.Errorf("Overdue() = %v, want %v", got, tt.overdue)
			}
			if got := tt.task.DueToday(now); got != tt.dueToday {
				t.Errorf("DueToday() = %v, want %v", got, tt.dueToday)
			}
		})
	}
}

func TestFilterCriteria_Merge(t *testing.T) {
	t.Parallel()

	base := DefaultFilterCriteria()
	search := "budget"
	priorities := []Priority{PriorityHigh}
	merged := base.Merge(FilterPatch{Search: &search, Priority: &priorities})

	if merged.Status != StatusAll || merged.Search != "budget" || len(merged.Priority) != 1 {
		t.Errorf("unexpected merged criteria: %+v", merged)
	}
	if base.Search != "" || len(base.Priority) != 0 {
		t.Error("Merge must not modify the receiver")
	}
}

func TestDefaultCategories(t *testing.T) {
	t.Parallel()

	cats := DefaultCategories()
	if len(cats) != 3 {
		t.Fatalf("expected 3 default categories, got %d", len(cats))
	}
	if cats[0].Name != "Work" || cats[1].Color != "#52c41a" || cats[2].ID != "3" {
		t.Errorf("unexpected default categories: %+v", cats)
	}
}
