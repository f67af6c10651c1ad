package stats

import (
	"sync"
	"time"
)

// Entry is a cached value with its last-updated timestamp. Staleness is
// bounded by the owning poller's interval, never by render cadence.
type Entry struct {
	Value   Value
	Updated time.Time
}

// Cache maps stat key to last-known value. Single writer per key (the
// owning poller), snapshot reads from the compositor. Reads never block on
// live sensor queries.
type Cache struct {
	mu sync.RWMutex
	m  map[string]Entry
}

func NewCache() *Cache {
	return &Cache{m: make(map[string]Entry, 16)}
}

func (c *Cache) Set(key string, v Value) { c.SetAt(key, v, time.Now()) }

func (c *Cache) SetAt(key string, v Value, now time.Time) {
	c.mu.Lock()
	c.m[key] = Entry{Value: v, Updated: now}
	c.mu.Unlock()
}

func (c *Cache) Get(key string) (Entry, bool) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	return e, ok
}

// Snapshot returns a copy; the compositor works from it for a whole tick
// without holding any lock.
func (c *Cache) Snapshot() map[string]Entry {
	c.mu.RLock()
	out := make(map[string]Entry, len(c.m))
	for k, v := range c.m {
		out[k] = v
	}
	c.mu.RUnlock()
	return out
}
