package cache

import (
	"context"
	"time"

	"hirenest/application/ports"

	"github.com/prometheus/client_golang/prometheus"
)

// Instrumented counts hits and misses of the wrapped cache
type Instrumented struct {
	inner  ports.Cache
	hits   prometheus.Counter
	misses prometheus.Counter
}

// NewInstrumented wraps inner
func NewInstrumented(inner ports.Cache, hits, misses prometheus.Counter) *Instrumented {
	return &Instrumented{inner: inner, hits: hits, misses: misses}
}

var _ ports.Cache = (*Instrumented)(nil)

func (c *Instrumented) Get(ctx context.Context, key string) ([]byte, bool) {
	value, ok := c.inner.Get(ctx, key)
	if ok {
		c.hits.Inc()
	} else {
		c.misses.Inc()
	}
	return value, ok
}

func (c *Instrumented) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.inner.Set(ctx, key, value, ttl)
}

func (c *Instrumented) Delete(ctx context.Context, key string) error {
	return c.inner.Delete(ctx, key)
}
