package geocode

import (
	"encoding/json"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/vietmass/churchfinder/internal/logger"
)

// Cache remembers resolved coordinates per address query so repeated
// update cycles don't re-ask Nominatim for addresses it has already
// answered. When backed by a file the cache survives process restarts,
// so successive CLI invocations benefit too. Entries expire after the
// TTL; negative results are not cached, so a church whose address
// failed to resolve is retried on the next cycle.
type Cache struct {
	mu      sync.Mutex
	path    string // empty for a memory-only cache
	entries map[string]cacheEntry
	ttl     time.Duration
}

type cacheEntry struct {
	Point    Point     `json:"point"`
	CachedAt time.Time `json:"cached_at"`
}

// NewCache creates a memory-only cache with a default 30-day TTL.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     30 * 24 * time.Hour,
	}
}

// NewCacheAt creates a cache persisted at path. Existing entries are
// loaded; a missing or unreadable file yields an empty cache.
func NewCacheAt(path string) *Cache {
	c := NewCache()
	c.path = path
	c.load()
	return c
}

// Get retrieves a cached coordinate if present and not expired.
func (c *Cache) Get(query string) (Point, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(query)
	e, exists := c.entries[key]
	if !exists {
		return Point{}, false
	}
	if time.Since(e.CachedAt) > c.ttl {
		delete(c.entries, key)
		return Point{}, false
	}
	return e.Point, true
}

// Set stores a resolved coordinate and, for a file-backed cache,
// writes the cache through to disk. A failed write keeps the entry in
// memory; it is retried on the next Set.
func (c *Cache) Set(query string, pt Point) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[cacheKey(query)] = cacheEntry{Point: pt, CachedAt: time.Now()}
	c.save()
}

// Size returns the number of cached entries.
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// load reads the backing file, dropping expired entries. Best effort:
// the cache is an optimization, so a bad file is logged and ignored.
func (c *Cache) load() {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return
	}

	var entries map[string]cacheEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		logger.Warn("ignoring unreadable geocode cache", logger.Fields{
			"path":  c.path,
			"error": err.Error(),
		})
		return
	}

	for key, e := range entries {
		if time.Since(e.CachedAt) > c.ttl {
			continue
		}
		c.entries[key] = e
	}
}

// save writes the cache through to disk. Caller holds the mutex.
func (c *Cache) save() {
	if c.path == "" {
		return
	}

	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		logger.Warn("writing geocode cache failed", logger.Fields{"error": err.Error()})
		return
	}
	if err := os.Rename(tmp, c.path); err != nil {
		os.Remove(tmp)
		logger.Warn("writing geocode cache failed", logger.Fields{"error": err.Error()})
	}
}

func cacheKey(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}
