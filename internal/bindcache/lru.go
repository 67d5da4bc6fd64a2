package bindcache

// lru is a map with access-time tracking and a soft limit.
// When the map exceeds softLimit, the oldest quarter is evicted.
//
// lru is not safe for concurrent use.
type lru[K comparable, V any] struct {
	entries   map[K]*lruEntry[V]
	softLimit int
	tick      int64 // monotonic access counter
	onEvict   func(K, V)
}

// lruEntry holds a value with its access time.
type lruEntry[V any] struct {
	value V
	atime int64
}

// newLRU creates an lru with the given soft limit. 0 means unlimited.
func newLRU[K comparable, V any](softLimit int, onEvict func(K, V)) *lru[K, V] {
	return &lru[K, V]{
		entries:   make(map[K]*lruEntry[V]),
		softLimit: softLimit,
		onEvict:   onEvict,
	}
}

// get returns the value for key and marks it used.
func (c *lru[K, V]) get(key K) (V, bool) {
	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.tick++
	e.atime = c.tick
	return e.value, true
}

// set stores value under key and evicts if over the soft limit, returning
// the evicted keys. The key just stored is never evicted by this call.
func (c *lru[K, V]) set(key K, value V) []K {
	c.tick++
	c.entries[key] = &lruEntry[V]{value: value, atime: c.tick}

	if c.softLimit > 0 && len(c.entries) > c.softLimit {
		return c.evictOldest(key)
	}
	return nil
}

// clear removes every entry, calling onEvict for each.
func (c *lru[K, V]) clear() int {
	n := len(c.entries)
	for k, e := range c.entries {
		if c.onEvict != nil {
			c.onEvict(k, e.value)
		}
	}
	c.entries = make(map[K]*lruEntry[V])
	c.tick = 0
	return n
}

func (c *lru[K, V]) len() int { return len(c.entries) }

// evictOldest removes entries until 3/4 of softLimit remain.
func (c *lru[K, V]) evictOldest(keep K) []K {
	targetSize := c.softLimit * 3 / 4
	if targetSize < 1 {
		targetSize = 1
	}

	toEvict := len(c.entries) - targetSize
	if toEvict <= 0 {
		return nil
	}

	type candidate struct {
		key   K
		atime int64
	}
	candidates := make([]candidate, 0, len(c.entries))
	for k, e := range c.entries {
		if k == keep {
			continue
		}
		candidates = append(candidates, candidate{key: k, atime: e.atime})
	}

	// Selection sort: batches are small.
	var evicted []K
	for i := 0; i < toEvict && i < len(candidates); i++ {
		minIdx := i
		for j := i + 1; j < len(candidates); j++ {
			if candidates[j].atime < candidates[minIdx].atime {
				minIdx = j
			}
		}
		candidates[i], candidates[minIdx] = candidates[minIdx], candidates[i]

		k := candidates[i].key
		e := c.entries[k]
		delete(c.entries, k)
		if c.onEvict != nil {
			c.onEvict(k, e.value)
		}
		evicted = append(evicted, k)
	}
	return evicted
}
