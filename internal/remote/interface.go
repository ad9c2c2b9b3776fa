package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Collection names used on the remote side
const (
	CollectionTasks      = "todos"
	CollectionCategories = "categories"
)

// Backend names accepted by New
const (
	BackendNone     = ""
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// DocumentStore is the remote collaborator: named collections of JSON documents keyed by id.
// There is no batch or transactional guarantee; every Upsert stands alone.
type DocumentStore interface {
	// FetchAll returns every document in the collection in insertion order
	FetchAll(ctx context.Context, collection string) ([]json.RawMessage, error)
	// Upsert creates the document or merges its top-level fields onto the stored one
	Upsert(ctx context.Context, collection, id string, doc json.RawMessage) error
	Ping(ctx context.Context) error
	Close() error
}

// New connects to the configured backend. It returns nil, nil when backend is empty.
func New(ctx context.Context, backend, url string, timeout time.Duration) (DocumentStore, error) {
	switch backend {
	case BackendNone:
		return nil, nil
	case BackendPostgres:
		store, err := NewPostgresStore(ctx, url, timeout)
		if err != nil {
			return nil, err
		}
		return store, nil
	case BackendRedis:
		store, err := NewRedisStore(ctx, url, timeout)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown remote backend %q (must be 'postgres' or 'redis')", backend)
	}
}
