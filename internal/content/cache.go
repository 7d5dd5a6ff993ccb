package content

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a read-through response cache for the public content API. It is
// a nil-safe wrapper: without a Redis client every lookup is a miss and
// every write a no-op, so the site keeps serving straight from the store.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCache wraps client with the given entry TTL. client may be nil.
func NewCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{client: client, ttl: ttl, logger: logger}
}

// Get returns the cached payload for key, if any.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) && c.logger != nil {
			c.logger.Warn("cache get", slog.String("key", key), slog.Any("error", err))
		}
		return nil, false
	}
	return payload, true
}

// Set stores payload under key for the configured TTL. Failures are logged
// and swallowed; the cache is never on the request's critical path.
func (c *Cache) Set(ctx context.Context, key string, payload []byte) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil && c.logger != nil {
		c.logger.Warn("cache set", slog.String("key", key), slog.Any("error", err))
	}
}

// Invalidate drops the given keys after an admin mutation.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if c == nil || c.client == nil || len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil && c.logger != nil {
		c.logger.Warn("cache invalidate", slog.Any("error", err))
	}
}
