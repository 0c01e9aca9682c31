// Package assets decodes model textures and caches them by path.
package assets

import (
	"image"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/model-viewer/internal/engine/texture"
	"github.com/Faultbox/model-viewer/internal/logger"
)

// DecodeFunc decodes the image file at path.
type DecodeFunc func(path string) (*image.RGBA, error)

// Manager hands out decoded textures for one model. A path referenced by
// several meshes is decoded once.
type Manager struct {
	decode   DecodeFunc
	cache    *Cache
	fallback *image.RGBA
}

// NewManager creates a manager that decodes with texture.Decode.
func NewManager() *Manager {
	return NewManagerWith(texture.Decode)
}

// NewManagerWith creates a manager with a custom decoder.
func NewManagerWith(decode DecodeFunc) *Manager {
	return &Manager{
		decode:   decode,
		cache:    NewCache(),
		fallback: texture.White(),
	}
}

// Load returns the decoded image at path. A texture that cannot be
// decoded is logged once and replaced by a 1x1 white image; ok is false
// in that case.
func (m *Manager) Load(path string) (img *image.RGBA, ok bool) {
	if e, hit := m.cache.Get(path); hit {
		return e.Image, e.Decoded
	}

	img, err := m.decode(path)
	if err != nil {
		logger.Warn("texture unavailable, using fallback",
			zap.String("path", path),
			zap.Error(err),
		)
		m.cache.Set(path, Entry{Image: m.fallback})
		return m.fallback, false
	}
	m.cache.Set(path, Entry{Image: img, Decoded: true})
	return img, true
}

// Stats returns cache hit and miss counts.
func (m *Manager) Stats() (hits, misses int) {
	return m.cache.Stats()
}

// Reset drops every cached texture. Called when the active model changes.
func (m *Manager) Reset() {
	m.cache.Clear()
}

// Entry is a cached decode result. Decoded is false when Image is the
// fallback standing in for a file that could not be decoded.
type Entry struct {
	Image   *image.RGBA
	Decoded bool
}

// Cache is a path-keyed store of decoded images.
type Cache struct {
	mu      sync.Mutex
	entries map[string]Entry

	hits   int
	misses int
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]Entry),
	}
}

// Get retrieves an entry.
func (c *Cache) Get(key string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return e, ok
}

// Set stores an entry.
func (c *Cache) Set(key string, e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = e
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear empties the cache and resets its statistics.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Entry)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
