package memory

import (
	"sync"

	"github.com/artpar/themebake/domain/theme"
	"github.com/artpar/themebake/ports"
)

// BakeCache is a process-local implementation of ports.BakeCache.
// It is constructed once per process and shared by all request handlers.
type BakeCache struct {
	mu         sync.RWMutex
	entries    map[theme.CacheKey]string
	generation uint64
}

// NewBakeCache creates an empty bake cache.
func NewBakeCache() *BakeCache {
	return &BakeCache{
		entries: make(map[theme.CacheKey]string),
	}
}

// Get returns a cached value.
func (c *BakeCache) Get(key theme.CacheKey) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.entries[key]
	return v, ok
}

// Set stores a value.
func (c *BakeCache) Set(key theme.CacheKey, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

// Generation returns the current clear generation.
func (c *BakeCache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// SetIfGeneration stores value unless the cache was cleared after gen was read.
func (c *BakeCache) SetIfGeneration(gen uint64, key theme.CacheKey, value string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generation != gen {
		return false
	}
	c.entries[key] = value
	return true
}

// Clear drops every entry.
func (c *BakeCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[theme.CacheKey]string)
	c.generation++
}

// Len returns the number of cached entries.
func (c *BakeCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Ensure interface compliance.
var _ ports.BakeCache = (*BakeCache)(nil)
