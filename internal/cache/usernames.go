package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const userNamePrefix = "modelhistory:username:"

// UserNames caches author display names by user id.
type UserNames interface {
	// Get returns the cached names of ids; misses are absent from the result.
	Get(ctx context.Context, ids []string) (map[string]string, error)
	Set(ctx context.Context, names map[string]string) error
}

// RedisUserNames stores names as plain string keys with a TTL.
type RedisUserNames struct {
	client *redis.Client
	ttl    time.Duration
}

var _ UserNames = (*RedisUserNames)(nil)

// NewRedisUserNames creates a new RedisUserNames instance
func NewRedisUserNames(client *redis.Client, ttl time.Duration) *RedisUserNames {
	return &RedisUserNames{client: client, ttl: ttl}
}

func (c *RedisUserNames) Get(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = userNamePrefix + id
	}

	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read user names: %w", err)
	}
	for i, v := range values {
		if s, ok := v.(string); ok {
			names[ids[i]] = s
		}
	}
	return names, nil
}

// Set caches names, each under its own key with the configured TTL.
func (c *RedisUserNames) Set(ctx context.Context, names map[string]string) error {
	if len(names) == 0 {
		return nil
	}
	pipe := c.client.Pipeline()
	for id, name := range names {
		pipe.Set(ctx, userNamePrefix+id, name, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache user names: %w", err)
	}
	return nil
}

