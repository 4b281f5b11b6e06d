package cleaner

import (
	"container/list"
	"sync"
	"time"
)

// SizeCacheCapacity and SizeCacheTTL match spec.md §4.3: 1000 entries, ~5
// minute TTL, keyed by (path, mtime).
const (
	SizeCacheCapacity = 1000
	SizeCacheTTL      = 5 * time.Minute
)

type sizeCacheKey struct {
	path  string
	mtime int64
}

type sizeCacheEntry struct {
	key      sizeCacheKey
	size     int64
	cachedAt time.Time
}

// SizeCache is a directory-size LRU cache keyed by (path, last_modified).
// Grounded on the engine's resources.Manager: container/list LRU plus a
// map, with evictOldest() dropping the tail on capacity overflow.
// Generalized here from page-content caching to int64 directory sizes,
// with TTL expiry added (the engine's manager has no TTL; the design calls
// for one) and ancestor invalidation on deletion.
type SizeCache struct {
	mu       sync.Mutex
	lru      *list.List
	elements map[string]*list.Element // keyed by path only, for ancestor invalidation
	capacity int
	ttl      time.Duration
}

// NewSizeCache builds a SizeCache with the design's default capacity/TTL.
func NewSizeCache() *SizeCache {
	return &SizeCache{lru: list.New(), elements: make(map[string]*list.Element), capacity: SizeCacheCapacity, ttl: SizeCacheTTL}
}

// Get returns the cached size for (path, mtime) if present and unexpired.
func (c *SizeCache) Get(path string, mtime time.Time) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.elements[path]
	if !ok {
		return 0, false
	}
	entry := el.Value.(*sizeCacheEntry)
	if entry.key.mtime != mtime.Unix() {
		return 0, false
	}
	if time.Since(entry.cachedAt) > c.ttl {
		c.removeElement(el)
		return 0, false
	}
	c.lru.MoveToFront(el)
	return entry.size, true
}

// Put stores size for (path, mtime), evicting the LRU tail if at capacity.
func (c *SizeCache) Put(path string, mtime time.Time, size int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.elements[path]; ok {
		entry := el.Value.(*sizeCacheEntry)
		entry.key.mtime = mtime.Unix()
		entry.size = size
		entry.cachedAt = time.Now()
		c.lru.MoveToFront(el)
		return
	}
	entry := &sizeCacheEntry{key: sizeCacheKey{path: path, mtime: mtime.Unix()}, size: size, cachedAt: time.Now()}
	el := c.lru.PushFront(entry)
	c.elements[path] = el
	if c.lru.Len() > c.capacity {
		c.evictOldest()
	}
}

func (c *SizeCache) evictOldest() {
	el := c.lru.Back()
	if el != nil {
		c.removeElement(el)
	}
}

func (c *SizeCache) removeElement(el *list.Element) {
	entry := el.Value.(*sizeCacheEntry)
	delete(c.elements, entry.key.path)
	c.lru.Remove(el)
}

// Invalidate drops path and every ancestor directory entry from the cache,
// per spec.md §4.3: "invalidated for the path and all ancestors on any
// successful deletion or Trash empty."
func (c *SizeCache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for p := path; p != "" && p != "." && p != "/"; p = parentDir(p) {
		if el, ok := c.elements[p]; ok {
			c.removeElement(el)
		}
	}
}

func parentDir(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			if i == 0 {
				return "/"
			}
			return path[:i]
		}
	}
	return ""
}
