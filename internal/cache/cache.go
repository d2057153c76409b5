// Package cache is a small in-process key-value cache with an injected
// clock, used for instant redisplay of profile and timezone data. Cardinality
// is one entry per key, so no size bound or eviction is needed.
package cache

import (
	"sync"
	"time"
)

// Clock supplies the current time; injectable for tests.
type Clock func() time.Time

type entry struct {
	value     interface{}
	expiresAt time.Time // zero means no expiry
}

type Cache struct {
	clock Clock

	mu      sync.RWMutex
	entries map[string]entry
}

// New returns a Cache reading time from clock, or time.Now when clock is
// nil.
func New(clock Clock) *Cache {
	if clock == nil {
		clock = time.Now
	}
	return &Cache{
		clock:   clock,
		entries: make(map[string]entry),
	}
}

// Get returns the cached value for key, if present and not expired.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if !e.expiresAt.IsZero() && !c.clock().Before(e.expiresAt) {
		c.Invalidate(key)
		return nil, false
	}
	return e.value, true
}

// Set stores a value without expiry.
func (c *Cache) Set(key string, value interface{}) {
	c.SetTTL(key, value, 0)
}

// SetTTL stores a value that expires after ttl. A non-positive ttl means no
// expiry.
func (c *Cache) SetTTL(key string, value interface{}, ttl time.Duration) {
	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = c.clock().Add(ttl)
	}

	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
}

// Invalidate removes a key. Called after a successful save so the next read
// goes back to storage.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}
