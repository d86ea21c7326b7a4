package pipeline

import (
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dgallion1/docview/internal/doctree"
)

// Fingerprint hashes raw document bytes.
func Fingerprint(data []byte) uint64 {
	return xxhash.Sum64(data)
}

type cacheEntry struct {
	doc       *doctree.Document
	sum       uint64
	updatedAt time.Time
}

// CacheStats counts cache outcomes since start.
type CacheStats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// Cache is a thread-safe in-memory registry of converted documents with TTL
// eviction. Cached documents are shared and must be treated as read-only.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	ttl     time.Duration
	hits    int64
	misses  int64
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]*cacheEntry),
		ttl:     ttl,
	}
}

// Fresh returns the cached document for path if it was stored or confirmed
// within the TTL. A zero TTL disables freshness, so every load refetches.
func (c *Cache) Fresh(path string) (*doctree.Document, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[path]
	if !ok || c.ttl <= 0 || time.Since(e.updatedAt) > c.ttl {
		return nil, false
	}
	c.hits++
	return e.doc, true
}

// Match returns the cached document for path if its fingerprint equals sum,
// and marks the entry fresh again. Unchanged bytes are not reconverted.
func (c *Cache) Match(path string, sum uint64) (*doctree.Document, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[path]
	if !ok || e.sum != sum {
		c.misses++
		return nil, false
	}
	e.updatedAt = time.Now()
	c.hits++
	return e.doc, true
}

func (c *Cache) Put(path string, sum uint64, doc *doctree.Document) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[path] = &cacheEntry{doc: doc, sum: sum, updatedAt: time.Now()}
}

// Invalidate drops the entry for path.
func (c *Cache) Invalidate(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[path]
	delete(c.entries, path)
	return ok
}

// Purge drops every entry and returns how many were removed.
func (c *Cache) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	clear(c.entries)
	return n
}

// Cleanup removes entries not confirmed for twice the TTL. Entries between
// one and two TTLs old are kept so Match can revalidate them cheaply.
func (c *Cache) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ttl <= 0 {
		return
	}
	now := time.Now()
	for path, e := range c.entries {
		if now.Sub(e.updatedAt) > 2*c.ttl {
			delete(c.entries, path)
		}
	}
}

func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Entries: len(c.entries), Hits: c.hits, Misses: c.misses}
}
