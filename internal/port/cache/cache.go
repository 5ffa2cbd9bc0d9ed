// Package cache defines the port for the layout cache.
package cache

import (
	"context"
	"time"
)

// Cache stores projected boards by key. A miss is reported through the
// boolean, not an error; errors mean the backend itself failed.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
