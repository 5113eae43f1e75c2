// Package assets caches the layouts used by the meshpack commands so that
// repeated conversions reuse parsed schemas.
package assets

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/Faultbox/meshpack/pkg/layout"
)

// Manager resolves layout references (preset names or file paths) and
// caches the result. File layouts are reloaded when their mtime changes.
type Manager struct {
	cache *Cache[layoutEntry]
	mu    sync.Mutex
}

type layoutEntry struct {
	schema  *layout.Schema
	modTime time.Time // zero for presets
}

// NewManager creates a new layout manager.
func NewManager() *Manager {
	return &Manager{
		cache: NewCache[layoutEntry](),
	}
}

// Layout returns the schema for ref, loading it on first use.
func (m *Manager) Layout(ref string) (*layout.Schema, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var modTime time.Time
	if info, err := os.Stat(ref); err == nil && !info.IsDir() {
		modTime = info.ModTime()
	}

	if e, ok := m.cache.Get(ref); ok && e.modTime.Equal(modTime) {
		return e.schema, nil
	}

	s, err := layout.Resolve(ref)
	if err != nil {
		return nil, fmt.Errorf("resolving layout %s: %w", ref, err)
	}
	m.cache.Set(ref, layoutEntry{schema: s, modTime: modTime})
	return s, nil
}

// Invalidate drops a cached layout so the next Layout call reloads it.
func (m *Manager) Invalidate(ref string) {
	m.cache.Delete(ref)
}

// Close drops all cached layouts.
func (m *Manager) Close() {
	m.cache.Clear()
}

// Stats returns cache statistics.
func (m *Manager) Stats() (hits, misses int) {
	return m.cache.Stats()
}

// Cache is a simple in-memory cache keyed by string.
type Cache[T any] struct {
	data map[string]T
	mu   sync.RWMutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache[T any]() *Cache[T] {
	return &Cache[T]{
		data: make(map[string]T),
	}
}

// Get retrieves an item from cache.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return v, ok
}

// Set stores an item in cache.
func (c *Cache[T]) Set(key string, v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = v
}

// Delete removes an item.
func (c *Cache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

// Clear clears the cache.
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]T)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache[T]) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
