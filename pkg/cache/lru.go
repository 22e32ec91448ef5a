// Package cache provides a bounded in-process LRU cache with optional
// per-entry expiry.
package cache

import (
	"container/list"
	"sync"
	"time"
)

type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

func (e *entry[K, V]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// LRU is a thread-safe cache that evicts the least recently used entry once
// capacity is reached. Expired entries are treated as absent and dropped
// lazily.
type LRU[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	items    map[K]*list.Element
	order    *list.List
	now      func() time.Time
}

// NewLRU returns a cache holding at most capacity entries. A zero ttl keeps
// entries until they are evicted. It panics if capacity is not positive.
func NewLRU[K comparable, V any](capacity int, ttl time.Duration) *LRU[K, V] {
	if capacity <= 0 {
		panic("cache: capacity must be positive")
	}
	return &LRU[K, V]{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[K]*list.Element, capacity),
		order:    list.New(),
		now:      time.Now,
	}
}

// Get returns the value stored under key and marks it as recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.lookup(key); ok {
		return e.value, true
	}
	var zero V
	return zero, false
}

// Put stores value under key, replacing any previous value.
func (c *LRU[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.lookup(key); ok {
		e.value = value
		e.expiresAt = c.deadline()
		return
	}
	c.insert(key, value)
}

// Add stores value only when key is absent or expired and reports whether
// it did.
func (c *LRU[K, V]) Add(key K, value V) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.lookup(key); ok {
		return false
	}
	c.insert(key, value)
	return true
}

// Remove deletes key and reports whether it was present.
func (c *LRU[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return false
	}
	c.removeElement(elem)
	return true
}

// Len returns the number of stored entries, including expired ones not yet
// dropped.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Must be called with lock held.
func (c *LRU[K, V]) lookup(key K) (*entry[K, V], bool) {
	elem, ok := c.items[key]
	if !ok {
		return nil, false
	}
	e := elem.Value.(*entry[K, V])
	if e.expired(c.now()) {
		c.removeElement(elem)
		return nil, false
	}
	c.order.MoveToFront(elem)
	return e, true
}

// Must be called with lock held.
func (c *LRU[K, V]) insert(key K, value V) {
	c.items[key] = c.order.PushFront(&entry[K, V]{key: key, value: value, expiresAt: c.deadline()})
	if c.order.Len() > c.capacity {
		c.removeElement(c.order.Back())
	}
}

// Must be called with lock held.
func (c *LRU[K, V]) removeElement(elem *list.Element) {
	c.order.Remove(elem)
	delete(c.items, elem.Value.(*entry[K, V]).key)
}

func (c *LRU[K, V]) deadline() time.Time {
	if c.ttl <= 0 {
		return time.Time{}
	}
	return c.now().Add(c.ttl)
}
