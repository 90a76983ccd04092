// Package cache is an optional Redis layer in front of the homepage
// content. The service degrades to direct database reads when Redis is not
// configured or unreachable.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss reports that the key is absent or the cache is disabled.
var ErrMiss = errors.New("cache miss")

type Cache struct {
	client *redis.Client
	logger *slog.Logger
}

// New connects to Redis. An empty addr or a failed ping returns a disabled
// cache that misses on every read.
func New(addr, password string, logger *slog.Logger) *Cache {
	if addr == "" {
		return &Cache{logger: logger}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, caching disabled", slog.String("error", err.Error()))
		_ = client.Close()
		return &Cache{logger: logger}
	}

	logger.Info("redis cache connected", slog.String("addr", addr))
	return &Cache{client: client, logger: logger}
}

// Enabled reports whether a Redis connection is live.
func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

// GetJSON reads key into v. Returns ErrMiss when absent or disabled.
func (c *Cache) GetJSON(ctx context.Context, key string, v interface{}) error {
	if !c.Enabled() {
		return ErrMiss
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache read failed", slog.String("key", key), slog.String("error", err.Error()))
		}
		return ErrMiss
	}

	return json.Unmarshal(data, v)
}

// SetJSON stores v under key with a TTL. Failures are logged, not returned:
// the cache is best-effort.
func (c *Cache) SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	if !c.Enabled() {
		return
	}

	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("cache marshal failed", slog.String("key", key), slog.String("error", err.Error()))
		return
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

// Delete drops a key after a write-through.
func (c *Cache) Delete(ctx context.Context, key string) {
	if !c.Enabled() {
		return
	}

	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Warn("cache delete failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

func (c *Cache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}
