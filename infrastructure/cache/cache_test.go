package cache

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	defer c.Close()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	value := []byte(`{"username":"alice"}`)
	require.NoError(t, c.Set(ctx, "profile:alice", value, time.Minute))
	value[0] = 'X'

	got, ok := c.Get(ctx, "profile:alice")
	require.True(t, ok)
	assert.Equal(t, `{"username":"alice"}`, string(got), "cache keeps its own copy")

	now = now.Add(2 * time.Minute)
	_, ok = c.Get(ctx, "profile:alice")
	assert.False(t, ok, "expired entries are misses")

	require.NoError(t, c.Set(ctx, "profile:bob", []byte("b"), time.Minute))
	require.NoError(t, c.Delete(ctx, "profile:bob"))
	_, ok = c.Get(ctx, "profile:bob")
	assert.False(t, ok)

	assert.NoError(t, c.Close(), "close is idempotent")
}

func TestInstrumented(t *testing.T) {
	ctx := context.Background()
	hits := prometheus.NewCounter(prometheus.CounterOpts{Name: "hits"})
	misses := prometheus.NewCounter(prometheus.CounterOpts{Name: "misses"})

	inner := NewMemoryCache()
	defer inner.Close()
	c := NewInstrumented(inner, hits, misses)

	_, ok := c.Get(ctx, "profile:alice")
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "profile:alice", []byte("a"), time.Minute))
	_, ok = c.Get(ctx, "profile:alice")
	assert.True(t, ok)
	_, ok = c.Get(ctx, "profile:alice")
	assert.True(t, ok)

	assert.Equal(t, float64(2), testutil.ToFloat64(hits))
	assert.Equal(t, float64(1), testutil.ToFloat64(misses))

	require.NoError(t, c.Delete(ctx, "profile:alice"))
	_, ok = inner.Get(ctx, "profile:alice")
	assert.False(t, ok)
}

func TestRedisCache_UnreachableServerIsAMiss(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	c := NewRedisCache(client, "hirenest:", zap.NewNop())
	assert.Equal(t, "hirenest:profile:alice", c.key("profile:alice"))

	_, ok := c.Get(context.Background(), "profile:alice")
	assert.False(t, ok)
}
