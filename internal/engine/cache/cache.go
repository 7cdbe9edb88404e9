// Package cache provides a process-local bounded cache with time-based
// expiry. Each running instance owns its own caches; there is no cross
// process coordination.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// Cache is a TTL cache bounded by entry count. When full, the
// oldest-inserted entry is evicted first (insertion order, not LRU).
// Safe for concurrent use; the check-evict-write sequence runs under a
// single mutex and performs no I/O.
type Cache[V any] struct {
	mu         sync.Mutex
	entries    map[string]entry[V]
	order      []string // insertion order, oldest first
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

func New[V any](ttl time.Duration, maxEntries int) *Cache[V] {
	return &Cache[V]{
		entries:    make(map[string]entry[V]),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// NewWithClock is like New but with an injectable clock for tests.
func NewWithClock[V any](ttl time.Duration, maxEntries int, now func() time.Time) *Cache[V] {
	c := New[V](ttl, maxEntries)
	c.now = now
	return c
}

// Get returns the cached value for key. An entry older than the TTL is
// treated as absent and evicted.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if c.now().Sub(e.storedAt) > c.ttl {
		c.remove(key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Put stores value under key. If the bound would be exceeded, exactly the
// oldest-inserted entry is evicted first. Overwriting a key re-inserts it at
// the back of the eviction order.
func (c *Cache[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.remove(key)
	}
	if c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		c.remove(c.order[0])
	}

	c.entries[key] = entry[V]{value: value, storedAt: c.now()}
	c.order = append(c.order, key)
}

// Delete removes key if present.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remove(key)
}

// Len returns the number of stored entries, stale ones included.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// remove must be called with the mutex held.
func (c *Cache[V]) remove(key string) {
	if _, ok := c.entries[key]; !ok {
		return
	}
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}
