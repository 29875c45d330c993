package templates

import (
	"sync"
	"time"

	"veritas/internal/domain"
)

// cache holds admin templates, including negative lookups, for a bounded time.
type cache struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]cacheEntry
}

type cacheEntry struct {
	value     *domain.Template
	expiresAt time.Time
}

func newCache(now func() time.Time) *cache {
	if now == nil {
		now = time.Now
	}
	return &cache{now: now, entries: make(map[string]cacheEntry)}
}

func (c *cache) get(id string) (*domain.Template, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		delete(c.entries, id)
		return nil, false
	}
	return entry.value, true
}

func (c *cache) put(id string, value *domain.Template, ttl time.Duration) {
	if c == nil || ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = cacheEntry{value: value, expiresAt: c.now().Add(ttl)}
}
