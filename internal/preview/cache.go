package preview

import "sync"

// Cache memoises sanitized previews per note path. Entries are keyed by the
// note's content checksum, so a stale entry is never served after an edit;
// the watcher additionally invalidates by path on any vault change.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	checksum string
	text     string
}

// NewCache creates an empty preview cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]cacheEntry)}
}

// Get returns the cached preview for path when its checksum still matches.
func (c *Cache) Get(path, checksum string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[path]
	if !ok || e.checksum != checksum {
		return "", false
	}
	return e.text, true
}

// Put stores the preview for path under the given content checksum.
func (c *Cache) Put(path, checksum, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[path] = cacheEntry{checksum: checksum, text: text}
}

// Invalidate drops the cached preview for path.
func (c *Cache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, path)
}

// Len returns the number of cached previews.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
