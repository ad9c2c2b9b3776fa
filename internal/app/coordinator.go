// Package app holds the Coordinator, the single owner of the in-memory task,
// category and filter state.
package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/benvon/smart-tasks/internal/database"
	"github.com/benvon/smart-tasks/internal/models"
	"github.com/benvon/smart-tasks/internal/services/view"
	"go.uber.org/zap"
)

// SettingsStore persists user preferences
type SettingsStore interface {
	SyncEnabled(ctx context.Context) bool
	SetSyncEnabled(ctx context.Context, enabled bool) error
	Theme(ctx context.Context) models.Theme
	SetTheme(ctx context.Context, theme models.Theme) error
	RemoteConfigured() bool
}

// Coordinator routes every mutation through the repositories and refreshes its
// in-memory snapshot from the collection they return. Mutations are serialised; the
// last full snapshot written wins.
type Coordinator struct {
	taskRepo     database.TaskRepositoryInterface
	categoryRepo database.CategoryRepositoryInterface
	settings     SettingsStore
	logger       *zap.Logger
	now          func() time.Time

	mu         sync.RWMutex
	tasks      []models.Task
	categories []models.Category
	criteria   models.FilterCriteria
}

// NewCoordinator creates a coordinator with empty state. Call Load to read storage.
func NewCoordinator(
	taskRepo database.TaskRepositoryInterface,
	categoryRepo database.CategoryRepositoryInterface,
	settings SettingsStore,
	logger *zap.Logger,
) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		taskRepo:     taskRepo,
		categoryRepo: categoryRepo,
		settings:     settings,
		logger:       logger,
		now:          time.Now,
		tasks:        []models.Task{},
		categories:   []models.Category{},
		criteria:     models.DefaultFilterCriteria(),
	}
}

// Load reads tasks and categories from storage, replacing the in-memory state.
// With sync enabled a non-empty remote collection wins.
func (c *Coordinator) Load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadLocked(ctx)
}

func (c *Coordinator) loadLocked(ctx context.Context) error {
	tasks, taskErr := c.taskRepo.List(ctx)
	c.tasks = nonNilTasks(tasks)
	categories, catErr := c.categoryRepo.List(ctx)
	if categories != nil {
		c.categories = categories
	}

	c.logger.Info("state_loaded", zap.Int("tasks", len(c.tasks)), zap.Int("categories", len(c.categories)))
	return errors.Join(c.settle("load_tasks", taskErr), c.settle("load_categories", catErr))
}

// CurrentTasks returns a copy of the full task collection
func (c *Coordinator) CurrentTasks() []models.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneTasks(c.tasks)
}

// Task returns the task with the given id
func (c *Coordinator) Task(id string) (models.Task, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return findTask(c.tasks, id)
}

// FilteredTasks applies the current filter criteria
func (c *Coordinator) FilteredTasks() []models.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneTasks(view.Filter(c.tasks, c.criteria))
}

// Statistics computes statistics over the full collection
func (c *Coordinator) Statistics() models.Statistics {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return view.ComputeStatistics(c.tasks)
}

// View returns the filtered list, statistics, categories and criteria in one snapshot
func (c *Coordinator) View() view.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap := view.Build(c.tasks, c.categories, c.criteria, c.now())
	snap.Tasks = cloneTasks(snap.Tasks)
	snap.Categories = slices.Clone(snap.Categories)
	snap.Filters = snap.Filters.Clone()
	return snap
}

// AddTask creates a task and returns it
func (c *Coordinator) AddTask(ctx context.Context, input models.TaskInput) (models.Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	before := len(c.tasks)
	tasks, err := c.taskRepo.Add(ctx, input)
	if err := c.applyTasks("task_added", tasks, err); err != nil {
		if len(c.tasks) <= before {
			return models.Task{}, err
		}
		return c.tasks[len(c.tasks)-1].Clone(), err
	}
	task := c.tasks[len(c.tasks)-1]
	c.logger.Info("task_added", zap.String("task_id", task.ID))
	return task.Clone(), nil
}

// UpdateTask merges patch onto a task and returns the result
func (c *Coordinator) UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (models.Task, error) {
	return c.mutateTask("task_updated", id, func() ([]models.Task, error) {
		return c.taskRepo.Update(ctx, id, patch)
	})
}

// SetTaskStatus changes a task's status
func (c *Coordinator) SetTaskStatus(ctx context.Context, id string, status models.TaskStatus) (models.Task, error) {
	return c.mutateTask("task_status_changed", id, func() ([]models.Task, error) {
		return c.taskRepo.SetStatus(ctx, id, status)
	})
}

// MarkReminded sets the reminded flag so the reminder does not fire again
func (c *Coordinator) MarkReminded(ctx context.Context, id string) error {
	reminded := true
	_, err := c.mutateTask("task_reminded", id, func() ([]models.Task, error) {
		return c.taskRepo.Update(ctx, id, models.TaskPatch{Reminded: &reminded})
	})
	return err
}

// DeleteTask removes a task and its subtasks
func (c *Coordinator) DeleteTask(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tasks, err := c.taskRepo.Delete(ctx, id)
	if err := c.applyTasks("task_deleted", tasks, err); err != nil {
		return err
	}
	c.logger.Info("task_deleted", zap.String("task_id", id))
	return nil
}

// BatchDelete removes every task in ids and reports how many were removed
func (c *Coordinator) BatchDelete(ctx context.Context, ids []string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	before := len(c.tasks)
	tasks, err := c.taskRepo.BatchDelete(ctx, ids)
	err = c.applyTasks("tasks_batch_deleted", tasks, err)
	removed := max(before-len(c.tasks), 0)
	if err == nil {
		c.logger.Info("tasks_batch_deleted", zap.Int("requested", len(ids)), zap.Int("removed", removed))
	}
	return removed, err
}

// AddSubtask appends a subtask and returns the parent task
func (c *Coordinator) AddSubtask(ctx context.Context, taskID, title string) (models.Task, error) {
	return c.mutateTask("subtask_added", taskID, func() ([]models.Task, error) {
		return c.taskRepo.AddSubtask(ctx, taskID, title)
	})
}

// UpdateSubtask merges patch onto a subtask and returns the parent task
func (c *Coordinator) UpdateSubtask(ctx context.Context, taskID, subtaskID string, patch models.SubtaskPatch) (models.Task, error) {
	return c.mutateTask("subtask_updated", taskID, func() ([]models.Task, error) {
		return c.taskRepo.UpdateSubtask(ctx, taskID, subtaskID, patch)
	})
}

// SetSubtaskStatus changes a subtask's status and returns the parent task
func (c *Coordinator) SetSubtaskStatus(ctx context.Context, taskID, subtaskID string, status models.SubtaskStatus) (models.Task, error) {
	return c.mutateTask("subtask_status_changed", taskID, func() ([]models.Task, error) {
		return c.taskRepo.SetSubtaskStatus(ctx, taskID, subtaskID, status)
	})
}

// DeleteSubtask removes a subtask and returns the parent task
func (c *Coordinator) DeleteSubtask(ctx context.Context, taskID, subtaskID string) (models.Task, error) {
	return c.mutateTask("subtask_deleted", taskID, func() ([]models.Task, error) {
		return c.taskRepo.DeleteSubtask(ctx, taskID, subtaskID)
	})
}

// Categories returns a copy of the category collection
func (c *Coordinator) Categories() []models.Category {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.categories)
}

// AddCategory creates a category and returns it
func (c *Coordinator) AddCategory(ctx context.Context, input models.CategoryInput) (models.Category, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	before := len(c.categories)
	categories, err := c.categoryRepo.Add(ctx, input)
	err = c.applyCategories("category_added", categories, err)
	if len(c.categories) <= before {
		return models.Category{}, err
	}
	return c.categories[len(c.categories)-1], err
}

// UpdateCategory merges patch onto a category and returns it
func (c *Coordinator) UpdateCategory(ctx context.Context, id string, patch models.CategoryPatch) (models.Category, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	categories, err := c.categoryRepo.Update(ctx, id, patch)
	err = c.applyCategories("category_updated", categories, err)
	if errors.Is(err, models.ErrNotFound) {
		return models.Category{}, err
	}
	i := slices.IndexFunc(c.categories, func(cat models.Category) bool { return cat.ID == id })
	if i < 0 {
		return models.Category{}, fmt.Errorf("category %s: %w", id, models.ErrNotFound)
	}
	return c.categories[i], err
}

// DeleteCategory removes a category and clears it from every task that referenced it.
// The tasks themselves are kept.
func (c *Coordinator) DeleteCategory(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	categories, err := c.categoryRepo.Delete(ctx, id)
	catErr := c.applyCategories("category_deleted", categories, err)
	if errors.Is(catErr, models.ErrNotFound) {
		return catErr
	}

	tasks, err := c.taskRepo.ClearCategory(ctx, id)
	taskErr := c.applyTasks("category_cleared", tasks, err)

	// Drop the id from the active filter so the view does not silently go empty
	c.criteria.Category = slices.DeleteFunc(c.criteria.Category, func(cid string) bool { return cid == id })

	c.logger.Info("category_deleted", zap.String("category_id", id))
	return errors.Join(catErr, taskErr)
}

// Filters returns the current filter criteria
func (c *Coordinator) Filters() models.FilterCriteria {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.criteria.Clone()
}

// UpdateFilters merges patch onto the current criteria
func (c *Coordinator) UpdateFilters(patch models.FilterPatch) models.FilterCriteria {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.criteria = c.criteria.Merge(patch)
	return c.criteria.Clone()
}

// ResetFilters restores the match-everything criteria
func (c *Coordinator) ResetFilters() models.FilterCriteria {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.criteria = models.DefaultFilterCriteria()
	return c.criteria.Clone()
}

// SyncSettings reports the sync flag and whether a remote backend exists
func (c *Coordinator) SyncSettings(ctx context.Context) models.SyncSettings {
	return models.SyncSettings{
		Enabled:    c.settings.SyncEnabled(ctx),
		Configured: c.settings.RemoteConfigured(),
	}
}

// SetSyncEnabled persists the sync flag. Turning sync on reloads the state so a
// non-empty remote copy replaces the local one.
func (c *Coordinator) SetSyncEnabled(ctx context.Context, enabled bool) (models.SyncSettings, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.settings.SetSyncEnabled(ctx, enabled); err != nil {
		return models.SyncSettings{Enabled: c.settings.SyncEnabled(ctx), Configured: c.settings.RemoteConfigured()}, err
	}
	c.logger.Info("sync_toggled", zap.Bool("enabled", enabled))

	var err error
	if enabled {
		err = c.loadLocked(ctx)
	}
	return models.SyncSettings{Enabled: enabled, Configured: c.settings.RemoteConfigured()}, err
}

// Theme returns the persisted theme
func (c *Coordinator) Theme(ctx context.Context) models.Theme {
	return c.settings.Theme(ctx)
}

// SetTheme persists the theme
func (c *Coordinator) SetTheme(ctx context.Context, theme models.Theme) error {
	return c.settings.SetTheme(ctx, theme)
}

// mutateTask runs op under the write lock and returns the task with id from the result
func (c *Coordinator) mutateTask(event, id string, op func() ([]models.Task, error)) (models.Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tasks, err := op()
	if err := c.applyTasks(event, tasks, err); err != nil {
		task, findErr := findTask(c.tasks, id)
		if findErr != nil || errors.Is(err, models.ErrNotFound) {
			return models.Task{}, err
		}
		return task, err
	}

	task, err := findTask(c.tasks, id)
	if err != nil {
		return models.Task{}, err
	}
	c.logger.Debug(event, zap.String("task_id", id))
	return task, nil
}

// applyTasks adopts the returned collection unless the target was not found
func (c *Coordinator) applyTasks(event string, tasks []models.Task, err error) error {
	if errors.Is(err, models.ErrNotFound) {
		return err
	}
	if tasks != nil {
		c.tasks = tasks
	}
	return c.settle(event, err)
}

func (c *Coordinator) applyCategories(event string, categories []models.Category, err error) error {
	if errors.Is(err, models.ErrNotFound) {
		return err
	}
	if categories != nil {
		c.categories = categories
	}
	return c.settle(event, err)
}

// settle logs storage errors. Remote sync failures are dropped because local state
// stays authoritative; persistence failures are returned.
func (c *Coordinator) settle(event string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, models.ErrPersistence) {
		c.logger.Error("persistence_failed", zap.String("operation", event), zap.Error(err))
		return err
	}
	if errors.Is(err, models.ErrSync) {
		c.logger.Warn("remote_sync_failed", zap.String("operation", event), zap.Error(err))
		return nil
	}
	return err
}

func findTask(tasks []models.Task, id string) (models.Task, error) {
	i := slices.IndexFunc(tasks, func(t models.Task) bool { return t.ID == id })
	if i < 0 {
		return models.Task{}, fmt.Errorf("task %s: %w", id, models.ErrNotFound)
	}
	return tasks[i].Clone(), nil
}

func cloneTasks(tasks []models.Task) []models.Task {
	out := make([]models.Task, len(tasks))
	for i := range tasks {
		out[i] = tasks[i].Clone()
	}
	return out
}

func nonNilTasks(tasks []models.Task) []models.Task {
	if tasks == nil {
		return []models.Task{}
	}
	return tasks
}
