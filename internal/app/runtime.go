package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/benvon/smart-tasks/internal/config"
	"github.com/benvon/smart-tasks/internal/database"
	"github.com/benvon/smart-tasks/internal/remote"
	"github.com/benvon/smart-tasks/internal/storage"
	"go.uber.org/zap"
)

// Runtime bundles the local database, the optional remote store and the coordinator
// built on top of them. The server and the CLI share it.
type Runtime struct {
	DB          *database.DB
	Remote      remote.DocumentStore
	Store       *storage.Store
	Coordinator *Coordinator
}

// Open connects storage from cfg and loads the coordinator state
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Runtime, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	remoteStore, err := remote.New(ctx, cfg.RemoteBackend, cfg.RemoteURL, cfg.RemoteTimeout)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to remote store: %w", err)
	}
	if remoteStore != nil {
		logger.Info("connected_to_remote_store", zap.String("backend", cfg.RemoteBackend))
	}

	store := storage.New(database.NewKVRepository(db), remoteStore, logger)
	coord := NewCoordinator(
		database.NewTaskRepository(store),
		database.NewCategoryRepository(store),
		store,
		logger,
	)

	// Load always leaves usable state behind; a failed read starts from what was recovered.
	if err := coord.Load(ctx); err != nil {
		logger.Warn("initial_load_incomplete", zap.Error(err))
	}
	return &Runtime{DB: db, Remote: remoteStore, Store: store, Coordinator: coord}, nil
}

// PingRemote reports remote health, or nil when no remote is configured
func (rt *Runtime) PingRemote(ctx context.Context) error {
	return rt.Store.PingRemote(ctx)
}

// Close releases the remote connection and the database
func (rt *Runtime) Close() error {
	var errs []error
	if rt.Remote != nil {
		if err := rt.Remote.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close remote store: %w", err))
		}
	}
	if err := rt.DB.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close database: %w", err))
	}
	return errors.Join(errs...)
}
