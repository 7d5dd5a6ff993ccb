package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// New creates a new Redis client and verifies connectivity.
func New(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("platform/cache: ping: %w", err)
	}

	return client, nil
}

// NewOptional returns a connected client, or nil when Redis is unreachable.
// The content cache degrades to direct fixture reads without it; the
// security core never depends on Redis.
func NewOptional(ctx context.Context, addr string, logger *slog.Logger) *redis.Client {
	client, err := New(ctx, addr)
	if err != nil {
		if logger != nil {
			logger.Warn("content cache disabled", slog.Any("error", err))
		}
		return nil
	}
	return client
}
