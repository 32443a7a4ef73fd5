package cache

import (
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
)

// Cache defines a generic cache interface
type Cache[T any] interface {
	// Get retrieves a value from the cache
	Get(key string) (T, bool)

	// Set stores a value in the cache
	Set(key string, data T)

	// Delete removes a key from the cache
	Delete(key string)

	// Clear drops every entry
	Clear()
}

// TTLCache is a typed view over a ristretto cache where every entry expires after ttl.
type TTLCache[T any] struct {
	store *ristretto.Cache
	ttl   time.Duration
}

var _ Cache[int] = (*TTLCache[int])(nil)

// NewTTLCache creates a cache holding roughly maxItems entries, each with unit cost.
func NewTTLCache[T any](maxItems int64, ttl time.Duration) (*TTLCache[T], error) {
	if maxItems <= 0 {
		maxItems = 1000
	}
	rc, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxItems * 10, // ristretto recommends 10x the expected item count
		MaxCost:     maxItems,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create ristretto cache: %w", err)
	}
	return &TTLCache[T]{store: rc, ttl: ttl}, nil
}

func (c *TTLCache[T]) Get(key string) (T, bool) {
	var zero T
	v, ok := c.store.Get(key)
	if !ok {
		return zero, false
	}
	data, ok := v.(T)
	if !ok {
		return zero, false
	}
	return data, true
}

// Set is applied asynchronously; a Get right after it may still miss.
func (c *TTLCache[T]) Set(key string, data T) {
	if c.ttl > 0 {
		c.store.SetWithTTL(key, data, 1, c.ttl)
		return
	}
	c.store.Set(key, data, 1)
}

func (c *TTLCache[T]) Delete(key string) {
	c.store.Del(key)
}

func (c *TTLCache[T]) Clear() {
	c.store.Clear()
}

// Wait blocks until pending Sets are applied.
func (c *TTLCache[T]) Wait() {
	c.store.Wait()
}

func (c *TTLCache[T]) Close() {
	c.store.Close()
}
