package fs

import (
	"sync"
	"time"

	"github.com/aretw0/facet/pkg/core"
)

// cacheEntry holds the definitions parsed from a single catalog file.
type cacheEntry struct {
	Types        []*core.TypeDefinition
	LastModified time.Time
}

// cache remembers parsed catalog files so a reload only parses files whose
// modification time changed. Keys are paths relative to the types directory.
type cache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
}

func newCache() *cache {
	return &cache{entries: make(map[string]*cacheEntry)}
}

// Get returns the entry when it exists and matches currentMtime.
func (c *cache) Get(relPath string, currentMtime time.Time) (*cacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[relPath]
	if !ok || !entry.LastModified.Equal(currentMtime) {
		return nil, false
	}
	return entry, true
}

// Set stores the entry for relPath.
func (c *cache) Set(relPath string, entry *cacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[relPath] = entry
}

// Prune removes entries that are not in the keep set and returns their paths.
func (c *cache) Prune(keep map[string]bool) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var removed []string
	for path := range c.entries {
		if !keep[path] {
			delete(c.entries, path)
			removed = append(removed, path)
		}
	}
	return removed
}

// Len returns the number of cached files.
func (c *cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// IDs returns the type ids defined by the cached file, in file order.
func (c *cache) IDs(relPath string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[relPath]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(entry.Types))
	for _, t := range entry.Types {
		ids = append(ids, t.ID)
	}
	return ids
}
