// Package cache holds live entity instances in front of the store. It is a
// plain mirroring layer: reads populate it lazily, writes go through it, and
// shutdown drains it back to the store.
package cache

import "sync"

// Entry is anything addressable by a primary identifier plus any number of
// alternate unique keys.
type Entry interface {
	PrimaryKey() string
	AlternateKeys() []string
}

// Cache is process-local and guarded by a single mutex per instance. The
// lock is never held across I/O; callers do store work outside of it.
type Cache[T Entry] struct {
	mu      sync.Mutex
	entries []T
}

func New[T Entry]() *Cache[T] {
	return &Cache[T]{}
}

// Lookup returns the cached entry whose primary or alternate key equals any
// of the given keys. Empty keys never match. A miss is not an error.
func (c *Cache[T]) Lookup(keys ...string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		if matches(e, keys) {
			return e, true
		}
	}
	var zero T
	return zero, false
}

// Upsert replaces the entry with the same primary key, or appends. No two
// entries with the same primary key ever coexist.
func (c *Cache[T]) Upsert(entry T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, e := range c.entries {
		if e.PrimaryKey() == entry.PrimaryKey() {
			c.entries[i] = entry
			return
		}
	}
	c.entries = append(c.entries, entry)
}

// Evict removes every entry matching any of the given keys.
func (c *Cache[T]) Evict(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.entries[:0]
	for _, e := range c.entries {
		if !matches(e, keys) {
			kept = append(kept, e)
		}
	}
	// zero the tail so evicted entries can be collected
	for i := len(kept); i < len(c.entries); i++ {
		var zero T
		c.entries[i] = zero
	}
	c.entries = kept
}

// Drain returns a snapshot of all cached entries for the shutdown flush.
// The cache keeps its contents; flushing mirrors, it does not consume.
func (c *Cache[T]) Drain() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, len(c.entries))
	copy(out, c.entries)
	return out
}

func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func matches[T Entry](e T, keys []string) bool {
	for _, k := range keys {
		if k == "" {
			continue
		}
		if e.PrimaryKey() == k {
			return true
		}
		for _, alt := range e.AlternateKeys() {
			if alt != "" && alt == k {
				return true
			}
		}
	}
	return false
}
