package database

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/benvon/smart-tasks/internal/models"
	"github.com/google/uuid"
)

// CategoryRepository applies category mutations as read-all, mutate, write-all
type CategoryRepository struct {
	store CategoryStore
	newID func() string
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(store CategoryStore) *CategoryRepository {
	return &CategoryRepository{
		store: store,
		newID: func() string { return uuid.New().String() },
	}
}

// List returns the full category collection
func (r *CategoryRepository) List(ctx context.Context) ([]models.Category, error) {
	return r.store.Categories(ctx)
}

// Add appends a new category. An empty color falls back to models.DefaultCategoryColor.
func (r *CategoryRepository) Add(ctx context.Context, input models.CategoryInput) ([]models.Category, error) {
	return r.mutate(ctx, func(categories []models.Category) ([]models.Category, error) {
		color := input.Color
		if color == "" {
			color = models.DefaultCategoryColor
		}
		id := r.newID()
		for indexOfCategory(categories, id) >= 0 {
			id = r.newID()
		}
		return append(categories, models.Category{ID: id, Name: input.Name, Color: color}), nil
	})
}

// Update merges patch onto the category with the given id
func (r *CategoryRepository) Update(ctx context.Context, id string, patch models.CategoryPatch) ([]models.Category, error) {
	return r.mutate(ctx, func(categories []models.Category) ([]models.Category, error) {
		i := indexOfCategory(categories, id)
		if i < 0 {
			return nil, fmt.Errorf("category %s: %w", id, models.ErrNotFound)
		}
		patch.Apply(&categories[i])
		return categories, nil
	})
}

// Delete removes the category with the given id. Clearing task references is
// the caller's job (see TaskRepository.ClearCategory).
func (r *CategoryRepository) Delete(ctx context.Context, id string) ([]models.Category, error) {
	return r.mutate(ctx, func(categories []models.Category) ([]models.Category, error) {
		i := indexOfCategory(categories, id)
		if i < 0 {
			return nil, fmt.Errorf("category %s: %w", id, models.ErrNotFound)
		}
		return slices.Delete(categories, i, i+1), nil
	})
}

func (r *CategoryRepository) mutate(ctx context.Context, fn func([]models.Category) ([]models.Category, error)) ([]models.Category, error) {
	categories, loadErr := r.store.Categories(ctx)
	if categories == nil {
		categories = []models.Category{}
	}

	next, err := fn(slices.Clone(categories))
	if err != nil {
		return categories, errors.Join(err, loadErr)
	}

	saveErr := r.store.SaveCategories(ctx, next)
	return next, errors.Join(loadErr, saveErr)
}

func indexOfCategory(categories []models.Category, id string) int {
	return slices.IndexFunc(categories, func(c models.Category) bool { return c.ID == id })
}
