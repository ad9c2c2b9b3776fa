package database

import (
	"context"

	"github.com/benvon/smart-tasks/internal/models"
)

// TaskStore loads and saves the whole task collection.
// Load errors still return a usable collection (the local copy or an empty one).
type TaskStore interface {
	Tasks(ctx context.Context) ([]models.Task, error)
	SaveTasks(ctx context.Context, tasks []models.Task) error
}

// CategoryStore loads and saves the whole category collection
type CategoryStore interface {
	Categories(ctx context.Context) ([]models.Category, error)
	SaveCategories(ctx context.Context, categories []models.Category) error
}

// TaskRepositoryInterface defines the task operations used by the coordinator
// This interface enables better testability by allowing mock implementations
type TaskRepositoryInterface interface {
	List(ctx context.Context) ([]models.Task, error)
	Add(ctx context.Context, input models.TaskInput) ([]models.Task, error)
	Update(ctx context.Context, id string, patch models.TaskPatch) ([]models.Task, error)
	Delete(ctx context.Context, id string) ([]models.Task, error)
	BatchDelete(ctx context.Context, ids []string) ([]models.Task, error)
	SetStatus(ctx context.Context, id string, status models.TaskStatus) ([]models.Task, error)
	AddSubtask(ctx context.Context, taskID, title string) ([]models.Task, error)
	UpdateSubtask(ctx context.Context, taskID, subtaskID string, patch models.SubtaskPatch) ([]models.Task, error)
	DeleteSubtask(ctx context.Context, taskID, subtaskID string) ([]models.Task, error)
	SetSubtaskStatus(ctx context.Context, taskID, subtaskID string, status models.SubtaskStatus) ([]models.Task, error)
	ClearCategory(ctx context.Context, categoryID string) ([]models.Task, error)
}

// CategoryRepositoryInterface defines the category operations used by the coordinator
type CategoryRepositoryInterface interface {
	List(ctx context.Context) ([]models.Category, error)
	Add(ctx context.Context, input models.CategoryInput) ([]models.Category, error)
	Update(ctx context.Context, id string, patch models.CategoryPatch) ([]models.Category, error)
	Delete(ctx context.Context, id string) ([]models.Category, error)
}

// Ensure concrete types implement the interfaces
var (
	_ TaskRepositoryInterface     = (*TaskRepository)(nil)
	_ CategoryRepositoryInterface = (*CategoryRepository)(nil)
)
