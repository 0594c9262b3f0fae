// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cache

import "sync"

// Cache is a generic thread-safe LRU cache with a hard capacity.
// When an insertion exceeds the capacity, the least recently used entry is
// evicted and passed to the eviction callback.
//
// Cache must not be copied after creation (has mutex).
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	entries  map[K]*cacheEntry[K, V]
	order    *lruList[K]
	capacity int
	onEvict  func(K, V)

	hits      uint64
	misses    uint64
	evictions uint64
}

// cacheEntry holds a cached value with its position in the LRU list.
type cacheEntry[K comparable, V any] struct {
	value V
	node  *lruNode[K]
}

type evicted[K comparable, V any] struct {
	key   K
	value V
}

// New creates a cache holding at most capacity entries.
// A capacity of 0 means unlimited. onEvict may be nil.
func New[K comparable, V any](capacity int, onEvict func(K, V)) *Cache[K, V] {
	if capacity < 0 {
		capacity = 0
	}
	return &Cache[K, V]{
		entries:  make(map[K]*cacheEntry[K, V]),
		order:    newLRUList[K](),
		capacity: capacity,
		onEvict:  onEvict,
	}
}

// Get retrieves a value and marks it most recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	c.order.MoveToFront(e.node)
	return e.value, true
}

// GetOrCreate returns the cached value for key or stores the result of
// create. create runs under the cache lock, so each key is created at most
// once. A create error is returned as is and nothing is stored.
func (c *Cache[K, V]) GetOrCreate(key K, create func() (V, error)) (V, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		c.hits++
		c.order.MoveToFront(e.node)
		c.mu.Unlock()
		return e.value, nil
	}
	c.misses++

	value, err := create()
	if err != nil {
		c.mu.Unlock()
		var zero V
		return zero, err
	}
	out := c.insertLocked(key, value)
	c.mu.Unlock()

	c.evict(out)
	return value, nil
}

// Set stores a value, replacing and evicting any previous value for key.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	var out []evicted[K, V]
	if e, ok := c.entries[key]; ok {
		out = append(out, evicted[K, V]{key, e.value})
		c.order.Remove(e.node)
		delete(c.entries, key)
	}
	out = append(out, c.insertLocked(key, value)...)
	c.mu.Unlock()

	c.evict(out)
}

// Delete removes key, passing its value to the eviction callback.
// Returns true if the entry was found.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		return false
	}
	c.order.Remove(e.node)
	delete(c.entries, key)
	c.mu.Unlock()

	c.evict([]evicted[K, V]{{key, e.value}})
	return true
}

// Clear removes every entry, least recently used first.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	keys := c.order.Keys()
	out := make([]evicted[K, V], 0, len(keys))
	for i := len(keys) - 1; i >= 0; i-- {
		out = append(out, evicted[K, V]{keys[i], c.entries[keys[i]].value})
	}
	c.entries = make(map[K]*cacheEntry[K, V])
	c.order.Clear()
	c.mu.Unlock()

	c.evict(out)
}

// Len returns the number of entries in the cache.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// Capacity returns the maximum number of entries, or 0 if unlimited.
func (c *Cache[K, V]) Capacity() int {
	return c.capacity
}

// Stats returns cache statistics.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Len:       len(c.entries),
		Capacity:  c.capacity,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	return s
}

// insertLocked stores a new entry and trims the cache to capacity.
// Caller must hold c.mu.
func (c *Cache[K, V]) insertLocked(key K, value V) []evicted[K, V] {
	c.entries[key] = &cacheEntry[K, V]{
		value: value,
		node:  c.order.PushFront(key),
	}

	var out []evicted[K, V]
	for c.capacity > 0 && len(c.entries) > c.capacity {
		oldest, ok := c.order.RemoveOldest()
		if !ok {
			break
		}
		out = append(out, evicted[K, V]{oldest, c.entries[oldest].value})
		delete(c.entries, oldest)
		c.evictions++
	}
	return out
}

func (c *Cache[K, V]) evict(out []evicted[K, V]) {
	if c.onEvict == nil {
		return
	}
	for _, e := range out {
		c.onEvict(e.key, e.value)
	}
}

// Stats contains cache statistics.
type Stats struct {
	// Len is the current number of entries.
	Len int
	// Capacity is the maximum number of entries, 0 if unlimited.
	Capacity int
	// Hits is the number of lookups that found an entry.
	Hits uint64
	// Misses is the number of lookups that did not.
	Misses uint64
	// HitRate is the cache hit rate 0.0 to 1.0.
	HitRate float64
	// Evictions is the number of entries dropped to stay within capacity.
	Evictions uint64
}
