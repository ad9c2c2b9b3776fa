package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/benvon/smart-tasks/internal/database"
	"github.com/benvon/smart-tasks/internal/logger"
	"github.com/benvon/smart-tasks/internal/models"
	"github.com/benvon/smart-tasks/internal/remote"
	"github.com/benvon/smart-tasks/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// KV is the local key/value persistence used for snapshot blobs
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// Store persists whole collections locally and, when the sync flag is on and a remote
// store is configured, mirrors them to the remote document store.
//
// Reads: a non-empty remote collection replaces the local copy wholesale; an empty or
// unreachable remote falls back to the local copy. Writes: local first, then one
// upsert per record. Remote failures never roll back the local write.
type Store struct {
	kv     KV
	remote remote.DocumentStore
	logger *zap.Logger
}

// New creates a store. remoteStore may be nil when no remote backend is configured.
func New(kv KV, remoteStore remote.DocumentStore, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{kv: kv, remote: remoteStore, logger: logger}
}

// RemoteConfigured reports whether a remote backend is available
func (s *Store) RemoteConfigured() bool {
	return s.remote != nil
}

// Tasks returns the task collection, normalized
func (s *Store) Tasks(ctx context.Context) ([]models.Task, error) {
	tasks, err := load(ctx, s, collection[models.Task]{
		key:        database.KeyTasks,
		collection: remote.CollectionTasks,
		fallback:   func() []models.Task { return []models.Task{} },
		id:         func(t models.Task) string { return t.ID },
	})
	for i := range tasks {
		tasks[i].Normalize()
	}
	return tasks, err
}

// SaveTasks replaces the task collection
func (s *Store) SaveTasks(ctx context.Context, tasks []models.Task) error {
	return save(ctx, s, collection[models.Task]{
		key:        database.KeyTasks,
		collection: remote.CollectionTasks,
		id:         func(t models.Task) string { return t.ID },
	}, tasks)
}

// Categories returns the category collection. The default categories are returned
// until a collection has been saved.
func (s *Store) Categories(ctx context.Context) ([]models.Category, error) {
	categories, err := load(ctx, s, collection[models.Category]{
		key:        database.KeyCategories,
		collection: remote.CollectionCategories,
		fallback:   models.DefaultCategories,
		id:         func(c models.Category) string { return c.ID },
	})
	for i := range categories {
		if categories[i].Color == "" {
			categories[i].Color = models.DefaultCategoryColor
		}
	}
	return categories, err
}

// SaveCategories replaces the category collection
func (s *Store) SaveCategories(ctx context.Context, categories []models.Category) error {
	return save(ctx, s, collection[models.Category]{
		key:        database.KeyCategories,
		collection: remote.CollectionCategories,
		id:         func(c models.Category) string { return c.ID },
	}, categories)
}

// SyncEnabled returns the persisted sync flag. Missing or unreadable values mean false.
func (s *Store) SyncEnabled(ctx context.Context) bool {
	raw, ok, err := s.kv.Get(ctx, database.KeySyncEnabled)
	if err != nil {
		s.logger.Warn("storage_read_failed", zap.String("key", database.KeySyncEnabled), zap.Error(err))
		return false
	}
	if !ok {
		return false
	}
	enabled, err := strconv.ParseBool(string(raw))
	if err != nil {
		s.logger.Warn("storage_parse_failed", zap.String("key", database.KeySyncEnabled), zap.Error(err))
		return false
	}
	return enabled
}

// SetSyncEnabled persists the sync flag
func (s *Store) SetSyncEnabled(ctx context.Context, enabled bool) error {
	if err := s.kv.Set(ctx, database.KeySyncEnabled, []byte(strconv.FormatBool(enabled))); err != nil {
		s.logger.Error("storage_write_failed", zap.String("key", database.KeySyncEnabled), zap.Error(err))
		return fmt.Errorf("%w: %w", models.ErrPersistence, err)
	}
	return nil
}

// Theme returns the persisted theme, light by default
func (s *Store) Theme(ctx context.Context) models.Theme {
	raw, ok, err := s.kv.Get(ctx, database.KeyTheme)
	if err != nil {
		s.logger.Warn("storage_read_failed", zap.String("key", database.KeyTheme), zap.Error(err))
		return models.ThemeLight
	}
	if !ok || !models.ValidTheme(models.Theme(raw)) {
		return models.ThemeLight
	}
	return models.Theme(raw)
}

// SetTheme persists the theme
func (s *Store) SetTheme(ctx context.Context, theme models.Theme) error {
	if !models.ValidTheme(theme) {
		return fmt.Errorf("%w: unknown theme %q", models.ErrInvalidInput, theme)
	}
	if err := s.kv.Set(ctx, database.KeyTheme, []byte(theme)); err != nil {
		s.logger.Error("storage_write_failed", zap.String("key", database.KeyTheme), zap.Error(err))
		return fmt.Errorf("%w: %w", models.ErrPersistence, err)
	}
	return nil
}

// Remove deletes a single local key
func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.kv.Remove(ctx, key); err != nil {
		return fmt.Errorf("%w: %w", models.ErrPersistence, err)
	}
	return nil
}

// Clear deletes every local key. The remote store is left untouched.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.Clear(ctx); err != nil {
		return fmt.Errorf("%w: %w", models.ErrPersistence, err)
	}
	s.logger.Info("storage_cleared")
	return nil
}

// PingRemote checks the remote backend. It is a no-op when none is configured.
func (s *Store) PingRemote(ctx context.Context) error {
	if s.remote == nil {
		return nil
	}
	return s.remote.Ping(ctx)
}

func (s *Store) syncActive(ctx context.Context) bool {
	return s.remote != nil && s.SyncEnabled(ctx)
}

type collection[T any] struct {
	key        string
	collection string
	fallback   func() []T
	id         func(T) string
}

func load[T any](ctx context.Context, s *Store, c collection[T]) ([]T, error) {
	local := readLocal(ctx, s, c)
	if !s.syncActive(ctx) {
		return local, nil
	}

	ctx, span := telemetry.StartSpan(ctx, "storage.fetch", attribute.String("collection", c.collection))
	docs, err := s.remote.FetchAll(ctx, c.collection)
	if err != nil {
		telemetry.EndSpan(span, err)
		s.logger.Warn("remote_fetch_failed",
			zap.String("collection", c.collection),
			zap.String("error", logger.SanitizeError(err)),
		)
		return local, fmt.Errorf("failed to fetch %s: %w: %w", c.collection, models.ErrSync, err)
	}
	span.SetAttributes(attribute.Int("documents", len(docs)))
	telemetry.EndSpan(span, nil)

	items := make([]T, 0, len(docs))
	for _, doc := range docs {
		var item T
		if err := json.Unmarshal(doc, &item); err != nil {
			s.logger.Warn("remote_document_invalid", zap.String("collection", c.collection), zap.Error(err))
			continue
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return local, nil
	}

	// Remote wins wholesale
	if err := writeLocal(ctx, s, c.key, items); err != nil {
		return items, err
	}
	s.logger.Info("remote_collection_loaded", zap.String("collection", c.collection), zap.Int("count", len(items)))
	return items, nil
}

func readLocal[T any](ctx context.Context, s *Store, c collection[T]) []T {
	raw, ok, err := s.kv.Get(ctx, c.key)
	if err != nil {
		s.logger.Warn("storage_read_failed", zap.String("key", c.key), zap.Error(err))
		return c.fallback()
	}
	if !ok {
		return c.fallback()
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		if err != nil {
			s.logger.Warn("storage_parse_failed", zap.String("key", c.key), zap.Error(err))
		}
		return c.fallback()
	}
	return items
}

func writeLocal[T any](ctx context.Context, s *Store, key string, items []T) error {
	raw, err := json.Marshal(items)
	if err != nil {
		s.logger.Error("storage_encode_failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("%w: failed to encode %s: %w", models.ErrPersistence, key, err)
	}
	if err := s.kv.Set(ctx, key, raw); err != nil {
		s.logger.Error("storage_write_failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("%w: %w", models.ErrPersistence, err)
	}
	return nil
}

func save[T any](ctx context.Context, s *Store, c collection[T], items []T) error {
	if items == nil {
		items = []T{}
	}
	persistErr := writeLocal(ctx, s, c.key, items)
	if !s.syncActive(ctx) {
		return persistErr
	}

	ctx, span := telemetry.StartSpan(ctx, "storage.push",
		attribute.String("collection", c.collection),
		attribute.Int("documents", len(items)),
	)
	var syncErrs []error
	for _, item := range items {
		id := c.id(item)
		doc, err := json.Marshal(item)
		if err == nil {
			err = s.remote.Upsert(ctx, c.collection, id, doc)
		}
		if err != nil {
			s.logger.Warn("remote_upsert_failed",
				zap.String("collection", c.collection),
				zap.String("id", id),
				zap.String("error", logger.SanitizeError(err)),
			)
			syncErrs = append(syncErrs, err)
		}
	}

	var syncErr error
	if len(syncErrs) > 0 {
		syncErr = fmt.Errorf("failed to push %d of %d %s: %w: %w",
			len(syncErrs), len(items), c.collection, models.ErrSync, errors.Join(syncErrs...))
	}
	telemetry.EndSpan(span, syncErr)
	return errors.Join(persistErr, syncErr)
}
