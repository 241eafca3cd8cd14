package cache

import (
	"sync"
	"time"
)

// TTL constants for the pages fetched from an enclosure
const (
	// Configuration page only changes when the generation code does
	TTLConfig = 1 * time.Hour

	// Enclosure list from lsscsi
	TTLDevices = 10 * time.Minute

	// Status, statistics and threshold pages
	TTLStatus = 5 * time.Second
)

// Entry holds a cached value with expiration
type Entry[V any] struct {
	Value     V
	ExpiresAt time.Time
	FetchedAt time.Time
}

// IsExpired returns true if the entry has expired
func (e *Entry[V]) IsExpired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// Age returns how long ago the entry was fetched
func (e *Entry[V]) Age(now time.Time) time.Duration {
	return now.Sub(e.FetchedAt)
}

// Cache provides thread-safe TTL-based caching
type Cache[V any] struct {
	mu      sync.RWMutex
	entries map[string]*Entry[V]
	now     func() time.Time
}

// New creates a new cache instance
func New[V any]() *Cache[V] {
	return &Cache[V]{
		entries: make(map[string]*Entry[V]),
		now:     time.Now,
	}
}

// WithClock replaces the time source (tests).
func (c *Cache[V]) WithClock(now func() time.Time) *Cache[V] {
	c.now = now
	return c
}

// Get retrieves a value, ok is false if expired or not found
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || entry.IsExpired(c.now()) {
		var zero V
		return zero, false
	}
	return entry.Value, true
}

// GetEntry retrieves the full cache entry (for checking age, etc.)
func (c *Cache[V]) GetEntry(key string) *Entry[V] {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.entries[key]
}

// Set stores a value with the given TTL
func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.entries[key] = &Entry[V]{
		Value:     value,
		ExpiresAt: now.Add(ttl),
		FetchedAt: now,
	}
}

// Delete removes an entry from cache
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear removes all entries from cache
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*Entry[V])
}

// Cleanup removes expired entries
func (c *Cache[V]) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, v := range c.entries {
		if v.IsExpired(now) {
			delete(c.entries, k)
		}
	}
}

// Len returns the number of entries, expired ones included.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Pages caches raw diagnostic pages keyed by device and page code
var (
	pages     *Cache[[]byte]
	pagesOnce sync.Once
)

// Pages returns the process-wide page cache
func Pages() *Cache[[]byte] {
	pagesOnce.Do(func() {
		pages = New[[]byte]()
	})
	return pages
}
