package fs

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/mdxdb/mdxdb/pkg/core"
)

// cacheEntry is the decoded header of a file as it was at LastModified.
type cacheEntry struct {
	Data         core.Data
	LastModified time.Time
	Size         int64
}

// cache remembers decoded headers so List does not re-parse unchanged files.
// Entries are deep copies in both directions, so callers may mutate what
// List returns.
// Keys are absolute file paths.
type cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

func newCache() *cache {
	return &cache{entries: make(map[string]cacheEntry)}
}

// Get returns the cached data when the file still has the given mtime and size.
func (c *cache) Get(path string, mtime time.Time, size int64) (core.Data, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[path]
	if !ok || !entry.LastModified.Equal(mtime) || entry.Size != size {
		return nil, false
	}
	return entry.Data.DeepClone(), true
}

func (c *cache) Set(path string, mtime time.Time, size int64, data core.Data) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[path] = cacheEntry{Data: data.DeepClone(), LastModified: mtime, Size: size}
}

func (c *cache) Delete(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, path)
}

// Prune drops entries under dir that are not in keep.
func (c *cache) Prune(dir string, keep map[string]bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for path := range c.entries {
		if filepath.Dir(path) == dir && !keep[path] {
			delete(c.entries, path)
		}
	}
}

func (c *cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
