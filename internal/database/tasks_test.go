package database

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/benvon/smart-tasks/internal/models"
)

// memStore is an in-memory TaskStore and CategoryStore
type memStore struct {
	tasks      []models.Task
	categories []models.Category
	saves      int
	loadErr    error
	saveErr    error
}

func (s *memStore) Tasks(_ context.Context) ([]models.Task, error) {
	out := make([]models.Task, len(s.tasks))
	for i := range s.tasks {
		out[i] = s.tasks[i].Clone()
	}
	return out, s.loadErr
}

func (s *memStore) SaveTasks(_ context.Context, tasks []models.Task) error {
	s.saves++
	s.tasks = tasks
	return s.saveErr
}

func (s *memStore) Categories(_ context.Context) ([]models.Category, error) {
	return append([]models.Category{}, s.categories...), s.loadErr
}

func (s *memStore) SaveCategories(_ context.Context, categories []models.Category) error {
	s.saves++
	s.categories = categories
	return s.saveErr
}

var fixedNow = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

func newTestTaskRepository(store *memStore) *TaskRepository {
	r := NewTaskRepository(store)
	n := 0
	r.now = func() time.Time { return fixedNow }
	r.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	return r
}

func TestTaskRepository_Add(t *testing.T) {
	t.Parallel()

	store := &memStore{tasks: []models.Task{{ID: "id-1", Title: "existing"}}}
	repo := newTestTaskRepository(store)

	tasks, err := repo.Add(context.Background(), models.TaskInput{Title: "Review budget", Tags: []string{"finance"}})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected collection to grow by one, got %d", len(tasks))
	}

	added := tasks[1]
	if added.ID == "" || added.ID == "id-1" {
		t.Errorf("expected a fresh id, got %q", added.ID)
	}
	if added.Status != models.TaskStatusTodo {
		t.Errorf("Status = %s, want todo", added.Status)
	}
	if added.Priority != models.PriorityMedium {
		t.Errorf("Priority = %s, want medium", added.Priority)
	}
	if !added.CreatedAt.Equal(fixedNow) || !added.UpdatedAt.Equal(fixedNow) {
		t.Errorf("timestamps not set: %v %v", added.CreatedAt, added.UpdatedAt)
	}
	if added.Subtasks == nil || added.Reminded {
		t.Errorf("unexpected defaults: %+v", added)
	}
	if store.saves != 1 || len(store.tasks) != 2 {
		t.Errorf("expected one full write, saves=%d stored=%d", store.saves, len(store.tasks))
	}
}

func TestTaskRepository_AddAssignsSubtaskIdentity(t *testing.T) {
	t.Parallel()

	store := &memStore{}
	repo := newTestTaskRepository(store)
	supplied := fixedNow.Add(-48 * time.Hour)

	tasks, err := repo.Add(context.Background(), models.TaskInput{
		Title: "Move house",
		Subtasks: []models.Subtask{
			{ID: "a", Title: "Pack", Status: models.SubtaskStatusDone, CreatedAt: supplied, UpdatedAt: supplied},
			{ID: "a", Title: "Book van"},
		},
	})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	subtasks := tasks[0].Subtasks
	if len(subtasks) != 2 {
		t.Fatalf("expected 2 subtasks, got %d", len(subtasks))
	}
	seen := map[string]bool{tasks[0].ID: true}
	for _, st := range subtasks {
		if st.ID == "a" || seen[st.ID] {
			t.Errorf("subtask id %q is caller-supplied or duplicated", st.ID)
		}
		seen[st.ID] = true
		if !st.CreatedAt.Equal(fixedNow) || !st.UpdatedAt.Equal(fixedNow) {
			t.Errorf("subtask %q timestamps = %v %v, want %v", st.Title, st.CreatedAt, st.UpdatedAt, fixedNow)
		}
	}
	if subtasks[0].Status != models.SubtaskStatusDone {
		t.Errorf("first subtask status = %s, want done", subtasks[0].Status)
	}
	if subtasks[1].Status != models.SubtaskStatusTodo {
		t.Errorf("second subtask status = %s, want todo", subtasks[1].Status)
	}
}

func TestTaskRepository_UpdateIsIdempotent(t *testing.T) {
	t.Parallel()

	store := &memStore{tasks: []models.Task{{ID: "a", Title: "old", Priority: models.PriorityLow, CreatedAt: fixedNow.Add(-time.Hour)}}}
	repo := newTestTaskRepository(store)

	title := "new"
	priority := models.PriorityHigh
	patch := models.TaskPatch{Title: &title, Priority: &priority}

	first, err := repo.Update(context.Background(), "a", patch)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	second, err := repo.Update(context.Background(), "a", patch)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	a, b := first[0], second[0]
	a.UpdatedAt, b.UpdatedAt = time.Time{}, time.Time{}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("update not idempotent:\n%+v\n%+v", a, b)
	}
	if b.Title != "new" || b.Priority != models.PriorityHigh {
		t.Errorf("patch not applied: %+v", b)
	}
	if !second[0].CreatedAt.Equal(fixedNow.Add(-time.Hour)) {
		t.Error("createdAt must not change")
	}
	if !second[0].UpdatedAt.Equal(fixedNow) {
		t.Error("updatedAt must be refreshed")
	}
}

func TestTaskRepository_NotFoundLeavesCollectionUnchanged(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := &memStore{tasks: []models.Task{{ID: "a", Title: "keep", Subtasks: []models.Subtask{}}}}
	repo := newTestTaskRepository(store)
	title := "x"

	ops := map[string]func() ([]models.Task, error){
		"update":         func() ([]models.Task, error) { return repo.Update(ctx, "missing", models.TaskPatch{Title: &title}) },
		"delete":         func() ([]models.Task, error) { return repo.Delete(ctx, "missing") },
		"set status":     func() ([]models.Task, error) { return repo.SetStatus(ctx, "missing", models.TaskStatusDone) },
		"add subtask":    func() ([]models.Task, error) { return repo.AddSubtask(ctx, "missing", "step") },
		"update subtask": func() ([]models.Task, error) { return repo.UpdateSubtask(ctx, "a", "missing", models.SubtaskPatch{Title: &title}) },
		"delete subtask": func() ([]models.Task, error) { return repo.DeleteSubtask(ctx, "a", "missing") },
	}

	for name, op := range ops {
		tasks, err := op()
		if !errors.Is(err, models.ErrNotFound) {
			t.Errorf("%s: expected ErrNotFound, got %v", name, err)
		}
		if len(tasks) != 1 || tasks[0].Title != "keep" {
			t.Errorf("%s: collection changed: %+v", name, tasks)
		}
	}
	if store.saves != 0 {
		t.Errorf("expected no writes, got %d", store.saves)
	}
}

func TestTaskRepository_BatchDelete(t *testing.T) {
	t.Parallel()

	store := &memStore{tasks: []models.Task{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}}
	repo := newTestTaskRepository(store)

	tasks, err := repo.BatchDelete(context.Background(), []string{"b", "d", "zzz"})
	if err != nil {
		t.Fatalf("BatchDelete() error = %v", err)
	}
	if len(tasks) != 2 || tasks[0].ID != "a" || tasks[1].ID != "c" {
		t.Errorf("unexpected result: %+v", tasks)
	}
}

func TestTaskRepository_Subtasks(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	earlier := fixedNow.Add(-24 * time.Hour)
	store := &memStore{tasks: []models.Task{{ID: "task", Title: "parent", UpdatedAt: earlier}}}
	repo := newTestTaskRepository(store)

	tasks, err := repo.AddSubtask(ctx, "task", "first step")
	if err != nil {
		t.Fatalf("AddSubtask() error = %v", err)
	}
	if len(tasks[0].Subtasks) != 1 {
		t.Fatalf("expected one subtask, got %d", len(tasks[0].Subtasks))
	}
	sub := tasks[0].Subtasks[0]
	if sub.Status != models.SubtaskStatusTodo || sub.Title != "first step" {
		t.Errorf("unexpected subtask: %+v", sub)
	}
	if !tasks[0].UpdatedAt.Equal(fixedNow) {
		t.Error("parent updatedAt must be refreshed")
	}

	tasks, err = repo.SetSubtaskStatus(ctx, "task", sub.ID, models.SubtaskStatusDone)
	if err != nil {
		t.Fatalf("SetSubtaskStatus() error = %v", err)
	}
	if tasks[0].Subtasks[0].Status != models.SubtaskStatusDone {
		t.Error("subtask status not updated")
	}

	tasks, err = repo.DeleteSubtask(ctx, "task", sub.ID)
	if err != nil {
		t.Fatalf("DeleteSubtask() error = %v", err)
	}
	if len(tasks[0].Subtasks) != 0 {
		t.Error("subtask not removed")
	}
}

func TestTaskRepository_ClearCategory(t *testing.T) {
	t.Parallel()

	store := &memStore{tasks: []models.Task{
		{ID: "a", Category: "1"},
		{ID: "b", Category: "2"},
		{ID: "c", Category: "1"},
	}}
	repo := newTestTaskRepository(store)

	tasks, err := repo.ClearCategory(context.Background(), "1")
	if err != nil {
		t.Fatalf("ClearCategory() error = %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("tasks must not be removed, got %d", len(tasks))
	}
	if tasks[0].Category != "" || tasks[1].Category != "2" || tasks[2].Category != "" {
		t.Errorf("unexpected categories: %+v", tasks)
	}

	store.saves = 0
	if _, err := repo.ClearCategory(context.Background(), "unused"); err != nil {
		t.Fatalf("ClearCategory() error = %v", err)
	}
	if store.saves != 0 {
		t.Error("expected no write when nothing references the category")
	}
}

func TestTaskRepository_PersistenceErrorStillReturnsNewCollection(t *testing.T) {
	t.Parallel()

	store := &memStore{saveErr: fmt.Errorf("disk full: %w", models.ErrPersistence)}
	repo := newTestTaskRepository(store)

	tasks, err := repo.Add(context.Background(), models.TaskInput{Title: "x"})
	if !errors.Is(err, models.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if len(tasks) != 1 {
		t.Errorf("expected the new collection despite the write failure, got %d", len(tasks))
	}
}

func TestCategoryRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := &memStore{categories: models.DefaultCategories()}
	repo := NewCategoryRepository(store)
	repo.newID = func() string { return "new" }

	cats, err := repo.Add(ctx, models.CategoryInput{Name: "Health"})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if len(cats) != 4 || cats[3].Color != models.DefaultCategoryColor {
		t.Errorf("unexpected categories after add: %+v", cats)
	}

	name := "Fitness"
	cats, err = repo.Update(ctx, "new", models.CategoryPatch{Name: &name})
	if err != nil || cats[3].Name != "Fitness" {
		t.Errorf("Update() = %+v, %v", cats, err)
	}

	cats, err = repo.Delete(ctx, "2")
	if err != nil || len(cats) != 3 {
		t.Errorf("Delete() = %+v, %v", cats, err)
	}

	if _, err := repo.Delete(ctx, "2"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
