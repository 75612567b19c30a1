package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hirenest/application/ports"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisCache stores values in Redis under a common key prefix. Redis errors
// degrade to cache misses.
type RedisCache struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// NewRedisClient connects to addr and verifies the connection
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return client, nil
}

// NewRedisCache creates a cache over client
func NewRedisCache(client *redis.Client, prefix string, logger *zap.Logger) *RedisCache {
	return &RedisCache{client: client, prefix: prefix, logger: logger}
}

var _ ports.Cache = (*RedisCache)(nil)

func (c *RedisCache) key(key string) string {
	return c.prefix + key
}

// Get implements ports.Cache
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	value, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Redis get failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return value, true
}

// Set implements ports.Cache
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete implements ports.Cache
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Close closes the underlying client
func (c *RedisCache) Close() error {
	return c.client.Close()
}
