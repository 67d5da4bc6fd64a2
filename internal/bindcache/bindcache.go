package bindcache

import (
	"errors"
	"fmt"

	"github.com/gogpu/texcache/backend"
)

// ErrCreate wraps handle allocation failures.
var ErrCreate = errors.New("bindcache: cannot create texture handle")

// Allocator creates and releases native texture handles.
type Allocator interface {
	CreateTexture() (backend.Handle, error)
	DeleteTexture(h backend.Handle)
}

// Transition is the result of a Lookup.
type Transition uint8

const (
	// Resident means the entry is bound and current; nothing to upload.
	Resident Transition = iota
	// Created means a handle was just allocated; all mips need a full upload.
	Created
	// Reupload means the handle exists but its contents are stale; mips
	// are replaced in place.
	Reupload
)

// String returns the transition name.
func (t Transition) String() string {
	switch t {
	case Resident:
		return "resident"
	case Created:
		return "created"
	case Reupload:
		return "reupload"
	default:
		return fmt.Sprintf("Transition(%d)", t)
	}
}

// NeedsUpload reports whether the caller must convert and upload.
func (t Transition) NeedsUpload() bool { return t != Resident }

// Entry is a cached native texture.
type Entry struct {
	Handle  backend.Handle
	Uploads int
}

// Stats contains cache statistics.
type Stats struct {
	// Entries is the current number of resident textures.
	Entries int
	// Hits counts lookups that found a current entry.
	Hits uint64
	// Misses counts lookups that created a handle.
	Misses uint64
	// Reuploads counts lookups that found a stale entry.
	Reuploads uint64
	// Evictions counts entries dropped by the soft limit.
	Evictions uint64
	// Flushed counts entries dropped by Flush.
	Flushed uint64
}

// Cache maps keys to native texture handles.
type Cache struct {
	alloc   Allocator
	entries *lru[Key, Entry]
	onEvict func(Key)
	stats   Stats
}

// Option configures a Cache.
type Option func(*Cache)

// WithSoftLimit bounds the number of resident textures. When exceeded, the
// least recently used quarter is released. 0 means unlimited.
func WithSoftLimit(n int) Option {
	return func(c *Cache) {
		c.entries.softLimit = n
	}
}

// WithEvictHook registers a function called with each key the soft limit
// evicts, after its handle has been released.
func WithEvictHook(fn func(Key)) Option {
	return func(c *Cache) {
		c.onEvict = fn
	}
}

// New creates an empty cache that allocates handles from alloc.
func New(alloc Allocator, opts ...Option) *Cache {
	c := &Cache{alloc: alloc}
	c.entries = newLRU[Key, Entry](0, func(_ Key, e Entry) {
		c.alloc.DeleteTexture(e.Handle)
	})
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lookup finds or creates the entry for key.
//
// changed marks the source texture as modified since its last upload
// (realtime textures); a resident entry then transitions to Reupload.
// An allocation failure leaves the cache unchanged and wraps ErrCreate.
func (c *Cache) Lookup(key Key, changed bool) (Entry, Transition, error) {
	if e, ok := c.entries.get(key); ok {
		if changed {
			c.stats.Reuploads++
			return e, Reupload, nil
		}
		c.stats.Hits++
		return e, Resident, nil
	}

	h, err := c.alloc.CreateTexture()
	if err != nil {
		return Entry{}, Resident, fmt.Errorf("%w %v: %w", ErrCreate, key, err)
	}

	c.stats.Misses++
	e := Entry{Handle: h}
	for _, k := range c.entries.set(key, e) {
		c.stats.Evictions++
		if c.onEvict != nil {
			c.onEvict(k)
		}
	}
	return e, Created, nil
}

// MarkUploaded records a completed upload into the entry for key.
func (c *Cache) MarkUploaded(key Key) {
	if e, ok := c.entries.entries[key]; ok {
		e.value.Uploads++
	}
}

// Peek returns the entry for key without touching its access time.
func (c *Cache) Peek(key Key) (Entry, bool) {
	e, ok := c.entries.entries[key]
	if !ok {
		return Entry{}, false
	}
	return e.value, true
}

// Remove releases the entry for key, if any.
func (c *Cache) Remove(key Key) bool {
	e, ok := c.entries.entries[key]
	if !ok {
		return false
	}
	delete(c.entries.entries, key)
	c.alloc.DeleteTexture(e.value.Handle)
	return true
}

// Flush releases every handle and empties the cache.
// It is safe on an empty cache and may be called repeatedly.
func (c *Cache) Flush() int {
	n := c.entries.clear()
	c.stats.Flushed += uint64(n)
	return n
}

// Len returns the number of resident textures.
func (c *Cache) Len() int { return c.entries.len() }

// Stats returns cache statistics.
func (c *Cache) Stats() Stats {
	s := c.stats
	s.Entries = c.entries.len()
	return s
}
