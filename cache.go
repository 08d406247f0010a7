package strata

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/stratadb/strata/schema"
)

// Cache is the interface for caching persisted records. Implement it
// with your preferred backing store (Redis, Memcached, in-memory); a
// process-local MemoryCache ships with the package. Repositories read
// through the cache on Find and invalidate the table prefix on every
// mutation.
type Cache interface {
	// Get retrieves a value from the cache.
	// Returns nil, nil if the key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in the cache with an optional TTL.
	// If ttl is 0, the value should not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from the cache.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes all values with the given prefix.
	DeletePrefix(ctx context.Context, prefix string) error
}

// RecordCacheKey returns the cache key for a record of the given table.
func RecordCacheKey(table string, pk any) string {
	return fmt.Sprintf("%s:%v", table, pk)
}

// EncodeRecord serializes a record with msgpack. UUID values travel as
// strings and times in UTC, so decoding restores them through the
// model's field types.
func EncodeRecord(rec schema.Record) ([]byte, error) {
	wire := make(map[string]any, len(rec))
	for k, v := range rec {
		switch v := v.(type) {
		case uuid.UUID:
			wire[k] = v.String()
		case time.Time:
			wire[k] = v.UTC()
		default:
			wire[k] = v
		}
	}
	return msgpack.Marshal(wire)
}

// DecodeRecord deserializes a record encoded by EncodeRecord, coercing
// values back into the model's declared field types.
func DecodeRecord(m *schema.Model, data []byte) (schema.Record, error) {
	var wire map[string]any
	if err := msgpack.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("strata: decode record: %w", err)
	}
	rec := make(schema.Record, len(wire))
	for k, v := range wire {
		f, ok := m.Field(k)
		if !ok {
			rec[k] = v
			continue
		}
		nv, err := schema.Coerce(f.Type, v)
		if err != nil {
			return nil, fmt.Errorf("strata: decode record: field %q: %w", k, err)
		}
		rec[k] = nv
	}
	return rec, nil
}

// MemoryCache is a process-local Cache implementation.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	value   []byte
	expires time.Time // zero means no expiry
}

// NewMemoryCache returns an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry)}
}

// Get retrieves a value, expiring it lazily.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if !e.expires.IsZero() && time.Now().After(e.expires) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, nil
	}
	return e.value, nil
}

// Set stores a value with an optional TTL.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expires = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
	return nil
}

// Delete removes a single key.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// DeletePrefix removes every key with the given prefix.
func (c *MemoryCache) DeletePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	for k := range c.entries {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()
	return nil
}

var _ Cache = (*MemoryCache)(nil)
