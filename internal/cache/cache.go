// Package cache provides the bounded in-process response cache that
// fronts read queries. It is an LRU keyed by request fingerprint with
// three independent pressure triggers: entry count, total serialized
// size, and per-entry TTL. Expired entries can optionally be served
// stale so readers do not stampede the database while fresh data is
// still being produced by a sync run.
package cache

import (
	"sync"
	"time"
)

type entry struct {
	key      string
	value    []byte
	size     int
	ttl      time.Duration
	storedAt time.Time
	hits     int64

	prev *entry
	next *entry
}

func (e *entry) expired(now time.Time) bool {
	return now.Sub(e.storedAt) > e.ttl
}

// Cache is a thread-safe LRU with count and byte-size ceilings. Reads
// refresh both recency and entry age bookkeeping, so frequently-read
// entries survive eviction pressure longest. All compound operations
// (stale check + recency refresh) run under one lock, so concurrent
// readers of the same key cannot trigger duplicate refresh decisions.
type Cache struct {
	mu sync.Mutex

	maxEntries int
	maxBytes   int
	defaultTTL time.Duration

	// allowStale serves a logically-expired entry one last time
	// (flagged) instead of reporting a miss; the entry is dropped on
	// that serve so the following read rebuilds it.
	allowStale bool

	items map[string]*entry
	bytes int

	// head.next is most recently used, tail.prev least recently used.
	head *entry
	tail *entry

	hits   int64
	misses int64
}

// New creates a cache. Non-positive limits fall back to the defaults
// the service ships with: 500 entries, 10MB, 15 minutes.
func New(maxEntries, maxBytes int, defaultTTL time.Duration, allowStale bool) *Cache {
	if maxEntries <= 0 {
		maxEntries = 500
	}
	if maxBytes <= 0 {
		maxBytes = 10 * 1024 * 1024
	}
	if defaultTTL <= 0 {
		defaultTTL = 15 * time.Minute
	}

	c := &Cache{
		maxEntries: maxEntries,
		maxBytes:   maxBytes,
		defaultTTL: defaultTTL,
		allowStale: allowStale,
		items:      make(map[string]*entry),
		head:       &entry{},
		tail:       &entry{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

// Get returns the cached payload for key. ok reports whether anything
// was returned; stale reports whether the entry's TTL had already
// elapsed (only possible when the cache allows stale serves). Fresh hits
// move the entry to the front and reset its age clock. A stale hit is
// served once and the entry dropped, so the next read misses and
// rebuilds instead of treating the stale value as fresh forever.
func (c *Cache) Get(key string) (value []byte, ok bool, stale bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, exists := c.items[key]
	if !exists {
		c.misses++
		return nil, false, false
	}

	now := time.Now()
	if e.expired(now) {
		if !c.allowStale {
			c.removeEntry(e)
			c.misses++
			return nil, false, false
		}
		c.removeEntry(e)
		c.hits++
		return e.value, true, true
	}

	// Age-on-read: refresh recency so hot entries outlive cold ones.
	e.storedAt = now
	e.hits++
	c.hits++
	c.moveToFront(e)
	return e.value, true, false
}

// Set inserts or refreshes an entry, then evicts least-recently-used
// entries until both the count and size ceilings hold. ttl <= 0 uses the
// cache default.
func (c *Cache) Set(key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, exists := c.items[key]; exists {
		c.bytes += len(value) - e.size
		e.value = value
		e.size = len(value)
		e.ttl = ttl
		e.storedAt = time.Now()
		c.moveToFront(e)
	} else {
		e := &entry{
			key:      key,
			value:    value,
			size:     len(value),
			ttl:      ttl,
			storedAt: time.Now(),
		}
		c.items[key] = e
		c.bytes += e.size
		c.pushFront(e)
	}

	for (len(c.items) > c.maxEntries || c.bytes > c.maxBytes) && c.tail.prev != c.head {
		c.removeEntry(c.tail.prev)
	}
}

// Invalidate removes every entry whose key starts with prefix and
// returns how many were dropped. An empty prefix clears the cache.
func (c *Cache) Invalidate(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.items {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			c.removeEntry(e)
			removed++
		}
	}
	return removed
}

// Stats is a point-in-time snapshot for the ops surface.
type Stats struct {
	Entries int   `json:"entries"`
	Bytes   int   `json:"bytes"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Entries: len(c.items),
		Bytes:   c.bytes,
		Hits:    c.hits,
		Misses:  c.misses,
	}
}

func (c *Cache) pushFront(e *entry) {
	e.prev = c.head
	e.next = c.head.next
	c.head.next.prev = e
	c.head.next = e
}

func (c *Cache) unlink(e *entry) {
	e.prev.next = e.next
	e.next.prev = e.prev
	e.prev = nil
	e.next = nil
}

func (c *Cache) moveToFront(e *entry) {
	c.unlink(e)
	c.pushFront(e)
}

func (c *Cache) removeEntry(e *entry) {
	c.unlink(e)
	delete(c.items, e.key)
	c.bytes -= e.size
}
