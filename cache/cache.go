// Package cache provides the small TTL cache the routes layer uses for
// zone lookups. It replaces what used to be implicit module-level state
// with an explicit, injectable value: expiry is a constructor argument
// and invalidation is a method call.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTL is a mutex-guarded map whose entries expire after a fixed
// duration. Safe for concurrent use.
type TTL[K comparable, V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[K]entry[V]
}

func New[K comparable, V any](ttl time.Duration) *TTL[K, V] {
	return &TTL[K, V]{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[K]entry[V]),
	}
}

// NewWithClock injects the clock, for tests.
func NewWithClock[K comparable, V any](ttl time.Duration, now func() time.Time) *TTL[K, V] {
	c := New[K, V](ttl)
	c.now = now
	return c
}

// Get returns the cached value for key, or false if absent or expired.
// Expired entries are dropped on the way out.
func (c *TTL[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Put stores value under key for the cache's TTL.
func (c *TTL[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{value: value, expiresAt: c.now().Add(c.ttl)}
}

// Invalidate drops key immediately. Dropping an absent key is a no-op.
func (c *TTL[K, V]) Invalidate(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}
