package database

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/benvon/smart-tasks/internal/models"
	"github.com/google/uuid"
)

// TaskRepository applies task and subtask mutations as read-all, mutate, write-all.
// Every operation returns the resulting collection. When the id is unknown the
// collection is returned unchanged together with models.ErrNotFound.
type TaskRepository struct {
	store TaskStore
	now   func() time.Time
	newID func() string
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(store TaskStore) *TaskRepository {
	return &TaskRepository{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.New().String() },
	}
}

// List returns the full task collection
func (r *TaskRepository) List(ctx context.Context) ([]models.Task, error) {
	return r.store.Tasks(ctx)
}

// Add appends a new task built from input
func (r *TaskRepository) Add(ctx context.Context, input models.TaskInput) ([]models.Task, error) {
	return r.mutate(ctx, func(tasks []models.Task) ([]models.Task, error) {
		now := r.now()
		task := models.Task{
			ID:           r.uniqueID(tasks),
			Title:        input.Title,
			Description:  input.Description,
			DueDate:      copyTime(input.DueDate),
			ReminderTime: copyTime(input.ReminderTime),
			Priority:     input.Priority,
			Category:     input.Category,
			Tags:         append([]string{}, input.Tags...),
			Status:       models.TaskStatusTodo,
			Subtasks:     make([]models.Subtask, 0, len(input.Subtasks)),
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		// Callers supply title and status only; ids and timestamps are assigned here.
		for _, st := range input.Subtasks {
			task.Subtasks = append(task.Subtasks, models.Subtask{
				ID:        r.newID(),
				Title:     st.Title,
				Status:    st.Status,
				CreatedAt: now,
				UpdatedAt: now,
			})
		}
		task.Normalize()
		return append(tasks, task), nil
	})
}

// Update merges patch onto the task with the given id
func (r *TaskRepository) Update(ctx context.Context, id string, patch models.TaskPatch) ([]models.Task, error) {
	return r.mutate(ctx, func(tasks []models.Task) ([]models.Task, error) {
		i := indexOfTask(tasks, id)
		if i < 0 {
			return nil, fmt.Errorf("task %s: %w", id, models.ErrNotFound)
		}
		patch.Apply(&tasks[i])
		tasks[i].UpdatedAt = r.now()
		return tasks, nil
	})
}

// SetStatus is Update with only the status set
func (r *TaskRepository) SetStatus(ctx context.Context, id string, status models.TaskStatus) ([]models.Task, error) {
	return r.Update(ctx, id, models.TaskPatch{Status: &status})
}

// Delete removes the task with the given id along with its subtasks
func (r *TaskRepository) Delete(ctx context.Context, id string) ([]models.Task, error) {
	return r.mutate(ctx, func(tasks []models.Task) ([]models.Task, error) {
		i := indexOfTask(tasks, id)
		if i < 0 {
			return nil, fmt.Errorf("task %s: %w", id, models.ErrNotFound)
		}
		return slices.Delete(tasks, i, i+1), nil
	})
}

// BatchDelete removes every task whose id is in ids. Unknown ids are ignored.
func (r *TaskRepository) BatchDelete(ctx context.Context, ids []string) ([]models.Task, error) {
	remove := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		remove[id] = struct{}{}
	}
	return r.mutate(ctx, func(tasks []models.Task) ([]models.Task, error) {
		kept := slices.DeleteFunc(tasks, func(t models.Task) bool {
			_, ok := remove[t.ID]
			return ok
		})
		return kept, nil
	})
}

// AddSubtask appends a new subtask to the task with the given id
func (r *TaskRepository) AddSubtask(ctx context.Context, taskID, title string) ([]models.Task, error) {
	return r.mutateTask(ctx, taskID, func(task *models.Task, now time.Time) error {
		task.Subtasks = append(task.Subtasks, models.Subtask{
			ID:        r.newID(),
			Title:     title,
			Status:    models.SubtaskStatusTodo,
			CreatedAt: now,
			UpdatedAt: now,
		})
		return nil
	})
}

// UpdateSubtask merges patch onto a subtask of the given task
func (r *TaskRepository) UpdateSubtask(ctx context.Context, taskID, subtaskID string, patch models.SubtaskPatch) ([]models.Task, error) {
	return r.mutateTask(ctx, taskID, func(task *models.Task, now time.Time) error {
		i := indexOfSubtask(task.Subtasks, subtaskID)
		if i < 0 {
			return fmt.Errorf("subtask %s: %w", subtaskID, models.ErrNotFound)
		}
		patch.Apply(&task.Subtasks[i])
		task.Subtasks[i].UpdatedAt = now
		return nil
	})
}

// SetSubtaskStatus is UpdateSubtask with only the status set
func (r *TaskRepository) SetSubtaskStatus(ctx context.Context, taskID, subtaskID string, status models.SubtaskStatus) ([]models.Task, error) {
	return r.UpdateSubtask(ctx, taskID, subtaskID, models.SubtaskPatch{Status: &status})
}

// DeleteSubtask removes a subtask from the given task
func (r *TaskRepository) DeleteSubtask(ctx context.Context, taskID, subtaskID string) ([]models.Task, error) {
	return r.mutateTask(ctx, taskID, func(task *models.Task, _ time.Time) error {
		i := indexOfSubtask(task.Subtasks, subtaskID)
		if i < 0 {
			return fmt.Errorf("subtask %s: %w", subtaskID, models.ErrNotFound)
		}
		task.Subtasks = slices.Delete(task.Subtasks, i, i+1)
		return nil
	})
}

// ClearCategory empties the category of every task referencing categoryID.
// Tasks are kept. Nothing is written when no task references the category.
func (r *TaskRepository) ClearCategory(ctx context.Context, categoryID string) ([]models.Task, error) {
	return r.mutate(ctx, func(tasks []models.Task) ([]models.Task, error) {
		now := r.now()
		changed := false
		for i := range tasks {
			if tasks[i].Category == categoryID {
				tasks[i].Category = ""
				tasks[i].UpdatedAt = now
				changed = true
			}
		}
		if !changed {
			return nil, errUnchanged
		}
		return tasks, nil
	})
}

// errUnchanged tells mutate to skip the write and return the loaded collection
var errUnchanged = errors.New("unchanged")

// mutate loads the collection, applies fn and writes the result back.
// When fn fails the loaded collection is returned without writing.
func (r *TaskRepository) mutate(ctx context.Context, fn func([]models.Task) ([]models.Task, error)) ([]models.Task, error) {
	tasks, loadErr := r.store.Tasks(ctx)
	if tasks == nil {
		tasks = []models.Task{}
	}

	next, err := fn(cloneTasks(tasks))
	if errors.Is(err, errUnchanged) {
		return tasks, loadErr
	}
	if err != nil {
		return tasks, errors.Join(err, loadErr)
	}

	saveErr := r.store.SaveTasks(ctx, next)
	return next, errors.Join(loadErr, saveErr)
}

// mutateTask runs fn against the task with the given id and refreshes its updatedAt
func (r *TaskRepository) mutateTask(ctx context.Context, taskID string, fn func(*models.Task, time.Time) error) ([]models.Task, error) {
	return r.mutate(ctx, func(tasks []models.Task) ([]models.Task, error) {
		i := indexOfTask(tasks, taskID)
		if i < 0 {
			return nil, fmt.Errorf("task %s: %w", taskID, models.ErrNotFound)
		}
		now := r.now()
		if err := fn(&tasks[i], now); err != nil {
			return nil, err
		}
		tasks[i].UpdatedAt = now
		return tasks, nil
	})
}

// uniqueID returns a generated id that no existing task uses
func (r *TaskRepository) uniqueID(tasks []models.Task) string {
	for {
		id := r.newID()
		if indexOfTask(tasks, id) < 0 {
			return id
		}
	}
}

func indexOfTask(tasks []models.Task, id string) int {
	return slices.IndexFunc(tasks, func(t models.Task) bool { return t.ID == id })
}

func indexOfSubtask(subtasks []models.Subtask, id string) int {
	return slices.IndexFunc(subtasks, func(s models.Subtask) bool { return s.ID == id })
}

func cloneTasks(tasks []models.Task) []models.Task {
	out := make([]models.Task, len(tasks))
	for i := range tasks {
		out[i] = tasks[i].Clone()
	}
	return out
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
