// Package fetch resolves leaderboard requests against the upstream analytics
// API, trying a primary source then ordered fallbacks, with a short-lived
// process-local cache in front of the network.
package fetch

import (
	"sync"
	"time"

	"github.com/yaplytics/mindshare/pkg/leaderboard"
)

// cacheEntry holds the last successfully fetched payload for a window.
type cacheEntry struct {
	payload   *leaderboard.Payload
	fetchedAt time.Time
}

// Cache is the ephemeral TTL cache keyed by window. It is constructed once
// at process start and shared by reference; it is never persisted and never
// authoritative. Last-writer-wins on population is acceptable because values
// are idempotent fetches of the same upstream data.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[leaderboard.Window]cacheEntry
	now     func() time.Time
}

// NewCache creates a cache with the given TTL.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[leaderboard.Window]cacheEntry),
		now:     time.Now,
	}
}

// Get returns the cached payload for a window if it is younger than the TTL.
func (c *Cache) Get(window leaderboard.Window) (*leaderboard.Payload, bool) {
	c.mu.RLock()
	entry, ok := c.entries[window]
	c.mu.RUnlock()

	if !ok || c.now().Sub(entry.fetchedAt) > c.ttl {
		return nil, false
	}

	return entry.payload, true
}

// Put stores a freshly fetched payload for a window.
func (c *Cache) Put(window leaderboard.Window, payload *leaderboard.Payload) {
	c.mu.Lock()
	c.entries[window] = cacheEntry{payload: payload, fetchedAt: c.now()}
	c.mu.Unlock()
}

// Invalidate clears the entire cache. Used after a successful write-through
// collection and on explicit admin request.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.entries = make(map[leaderboard.Window]cacheEntry)
	c.mu.Unlock()
}

// Len returns the number of cached windows.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
