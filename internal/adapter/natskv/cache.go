// Package natskv implements the cache port using NATS JetStream KV as the
// shared L2 layout cache.
package natskv

import (
	"context"
	"encoding/binary"
	"errors"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/nats-io/nats.go/jetstream"
)

// Entries carry their own deadline so per-entry TTLs shorter than the
// bucket TTL are honoured: 8 bytes big-endian unix nanos, then the value.
const headerLen = 8

// Cache wraps a NATS JetStream KeyValue store as an L2 cache.
type Cache struct {
	kv  jetstream.KeyValue
	now func() time.Time
}

// New creates a NATS KV-backed cache.
func New(kv jetstream.KeyValue) *Cache {
	return &Cache{kv: kv, now: time.Now}
}

// kvKey maps an arbitrary cache key onto the KV key alphabet. Layout keys
// contain ':' which NATS rejects.
func kvKey(key string) string {
	return "k." + strconv.FormatUint(xxhash.Sum64String(key), 16)
}

// Get retrieves a value from the NATS KV store.
func (c *Cache) Get(ctx context.Context, key string) (data []byte, ok bool, err error) {
	entry, err := c.kv.Get(ctx, kvKey(key))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	raw := entry.Value()
	if len(raw) < headerLen {
		return nil, false, nil
	}
	deadline := int64(binary.BigEndian.Uint64(raw[:headerLen])) //nolint:gosec // written by encode
	if deadline != 0 && c.now().UnixNano() > deadline {
		return nil, false, nil
	}
	return raw[headerLen:], true, nil
}

// Set stores a value in the NATS KV store. A zero ttl falls back to the
// bucket TTL.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := c.kv.Put(ctx, kvKey(key), c.encode(value, ttl))
	return err
}

func (c *Cache) encode(value []byte, ttl time.Duration) []byte {
	buf := make([]byte, headerLen+len(value))
	if ttl > 0 {
		binary.BigEndian.PutUint64(buf, uint64(c.now().Add(ttl).UnixNano())) //nolint:gosec // positive
	}
	copy(buf[headerLen:], value)
	return buf
}

// Delete removes a value from the NATS KV store.
func (c *Cache) Delete(ctx context.Context, key string) error {
	err := c.kv.Delete(ctx, kvKey(key))
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil
	}
	return err
}
