// Package cache invalidates the rendering cache backed by Redis. The
// site renderer stores rendered pages under page:<path> keys; dropping
// a key forces the next request to re-render.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/calderaweb/pressroom/internal/config"
	"github.com/redis/go-redis/v9"
)

type RedisInvalidator struct {
	client *redis.Client
	prefix string
}

func NewRedisInvalidator(cfg *config.Config) (*RedisInvalidator, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	// Test the connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisInvalidator{
		client: client,
		prefix: cfg.RedisPrefix,
	}, nil
}

func (r *RedisInvalidator) Close() error {
	return r.client.Close()
}

// Invalidate drops the cached page for each path.
func (r *RedisInvalidator) Invalidate(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}

	keys := make([]string, len(paths))
	for i, path := range paths {
		keys[i] = r.prefix + "page:" + path
	}

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("error deleting page keys: %w", err)
	}
	return nil
}

// Flush drops every cached page under the prefix. Reached through the
// admin cache-flush endpoint, never from the post lifecycle.
func (r *RedisInvalidator) Flush(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, r.prefix+"page:*", 0).Iterator()
	var keys []string

	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("error scanning keys: %w", err)
	}

	if len(keys) > 0 {
		if err := r.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("error deleting keys: %w", err)
		}
	}

	return nil
}
