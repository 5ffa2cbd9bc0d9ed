// Package ristretto implements the cache port on dgraph-io/ristretto. It
// serves as the in-process L1 for projected layouts and as the idempotency
// store for generation requests.
package ristretto

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// ErrRejected is returned when the admission policy drops a value.
var ErrRejected = errors.New("ristretto: value rejected")

// avgEntryBytes is the expected size of one cached board.
const avgEntryBytes = 4 << 10

// Cache is a size-bounded in-process cache.
type Cache struct {
	name string
	c    *ristretto.Cache[string, []byte]
}

// New creates a cache named name holding at most maxSizeMB megabytes of
// keys and values. The name only appears in logs.
func New(name string, maxSizeMB int64) (*Cache, error) {
	maxSizeMB = max(maxSizeMB, 1)
	maxCost := maxSizeMB << 20
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: 10 * maxCost / avgEntryBytes,
		MaxCost:     maxCost,
		BufferItems: 64,
		Metrics:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("ristretto %s: %w", name, err)
	}
	return &Cache{name: name, c: c}, nil
}

// Get returns the value stored under key.
func (c *Cache) Get(_ context.Context, key string) (data []byte, ok bool, err error) {
	data, ok = c.c.Get(key)
	return data, ok, nil
}

// Set stores value for ttl and blocks until Get can observe it. Keys count
// toward the size bound alongside values.
func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	cost := int64(len(key) + len(value))
	if !c.c.SetWithTTL(key, value, cost, ttl) {
		return ErrRejected
	}
	c.c.Wait()
	return nil
}

// Delete removes key.
func (c *Cache) Delete(_ context.Context, key string) error {
	c.c.Del(key)
	return nil
}

// HitRatio reports the fraction of Get calls that found a value.
func (c *Cache) HitRatio() float64 {
	return c.c.Metrics.Ratio()
}

// Close logs the cache's lifetime statistics and releases its goroutines.
func (c *Cache) Close() {
	m := c.c.Metrics
	slog.Debug("cache closed", "cache", c.name,
		"hits", m.Hits(), "misses", m.Misses(),
		"hit_ratio", m.Ratio(), "rejected", m.SetsRejected())
	c.c.Close()
}
