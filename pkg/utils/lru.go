package utils

import (
	"container/list"
	"sync"
	"time"
)

// LRUCache is a fixed-capacity, TTL-bounded least-recently-used cache. It
// backs the prompt builder's in-process cache: capacity and entry lifetime
// are both enforced, and eviction never crosses the boundary of a single
// process since the cache holds no persistent backing store.
type LRUCache[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	items    map[K]*list.Element
	order    *list.List
}

type lruEntry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

// NewLRUCache creates an LRUCache holding at most capacity entries, each
// valid for ttl after being set.
func NewLRUCache[K comparable, V any](capacity int, ttl time.Duration) *LRUCache[K, V] {
	return &LRUCache[K, V]{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[K]*list.Element, capacity),
		order:    list.New(),
	}
}

// Get returns the cached value for key and true, or the zero value and
// false if absent or expired. A hit moves the entry to the front.
func (c *LRUCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}

	entry := elem.Value.(*lruEntry[K, V])
	if time.Now().After(entry.expiresAt) {
		c.order.Remove(elem)
		delete(c.items, key)

		var zero V
		return zero, false
	}

	c.order.MoveToFront(elem)

	return entry.value, true
}

// Set stores value under key, evicting the least-recently-used entry if the
// cache is at capacity.
func (c *LRUCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		elem.Value.(*lruEntry[K, V]).value = value
		elem.Value.(*lruEntry[K, V]).expiresAt = time.Now().Add(c.ttl)
		c.order.MoveToFront(elem)

		return
	}

	entry := &lruEntry[K, V]{key: key, value: value, expiresAt: time.Now().Add(c.ttl)}
	elem := c.order.PushFront(entry)
	c.items[key] = elem

	if c.order.Len() > c.capacity {
		c.evictOldest()
	}
}

// Len reports the current number of entries, including any not yet swept
// past expiry.
func (c *LRUCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *LRUCache[K, V]) evictOldest() {
	oldest := c.order.Back()
	if oldest == nil {
		return
	}

	entry := oldest.Value.(*lruEntry[K, V])
	delete(c.items, entry.key)
	c.order.Remove(oldest)
}
