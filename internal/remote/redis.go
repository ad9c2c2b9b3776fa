package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each collection in a hash (id -> document) plus a sorted set
// recording first-insert order.
type RedisStore struct {
	client  *redis.Client
	timeout time.Duration
	prefix  string
}

// NewRedisStore connects to Redis
func NewRedisStore(ctx context.Context, redisURL string, timeout time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client, timeout: timeout, prefix: "smart-tasks"}, nil
}

func (s *RedisStore) docsKey(collection string) string {
	return s.prefix + ":" + collection + ":docs"
}

func (s *RedisStore) orderKey(collection string) string {
	return s.prefix + ":" + collection + ":order"
}

// FetchAll returns the documents of a collection in first-insert order
func (s *RedisStore) FetchAll(ctx context.Context, collection string) ([]json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ids, err := s.client.ZRange(ctx, s.orderKey(collection), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s order: %w", collection, err)
	}
	if len(ids) == 0 {
		return []json.RawMessage{}, nil
	}

	values, err := s.client.HMGet(ctx, s.docsKey(collection), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", collection, err)
	}

	docs := make([]json.RawMessage, 0, len(values))
	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			continue
		}
		docs = append(docs, json.RawMessage(str))
	}
	return docs, nil
}

// Upsert merges doc onto the stored document inside a WATCH transaction
func (s *RedisStore) Upsert(ctx context.Context, collection, id string, doc json.RawMessage) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	docsKey := s.docsKey(collection)
	txf := func(tx *redis.Tx) error {
		existing, err := tx.HGet(ctx, docsKey, id).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		merged, err := mergeDocument(existing, doc)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, docsKey, id, string(merged))
			pipe.ZAddNX(ctx, s.orderKey(collection), redis.Z{Score: float64(time.Now().UnixNano()), Member: id})
			return nil
		})
		return err
	}

	if err := s.client.Watch(ctx, txf, docsKey); err != nil {
		return fmt.Errorf("failed to upsert %s/%s: %w", collection, id, err)
	}
	return nil
}

// Ping checks if Redis is reachable
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}
