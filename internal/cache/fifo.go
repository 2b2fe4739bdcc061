package cache

import (
	"container/list"
	"sync"
)

// DefaultCapacity is the number of entries each entity cache holds unless
// configured otherwise.
const DefaultCapacity = 100

type entry[K comparable, V any] struct {
	key   K
	value V
}

// FIFO is a capacity-bounded in-memory cache that evicts by insertion order.
// Reads never refresh an entry; the entry inserted earliest is always the
// next one to go. It is safe for concurrent use.
type FIFO[K comparable, V any] struct {
	mu       sync.RWMutex
	capacity int
	order    *list.List
	items    map[K]*list.Element
	onEvict  func(K, V)
}

type Option[K comparable, V any] func(*FIFO[K, V])

// WithEvictionCallback registers fn to be called, outside the cache lock,
// with every entry dropped to make room for a new key.
func WithEvictionCallback[K comparable, V any](fn func(K, V)) Option[K, V] {
	return func(c *FIFO[K, V]) {
		c.onEvict = fn
	}
}

// NewFIFO creates a cache holding at most capacity entries. A capacity
// below one falls back to DefaultCapacity.
func NewFIFO[K comparable, V any](capacity int, opts ...Option[K, V]) *FIFO[K, V] {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	c := &FIFO[K, V]{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[K]*list.Element, capacity),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *FIFO[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if el, ok := c.items[key]; ok {
		return el.Value.(*entry[K, V]).value, true
	}
	var zero V
	return zero, false
}

// Put inserts or overwrites key. A new key arriving at capacity first
// evicts exactly one entry, the oldest inserted.
func (c *FIFO[K, V]) Put(key K, value V) {
	c.mu.Lock()

	if el, ok := c.items[key]; ok {
		el.Value.(*entry[K, V]).value = value
		c.mu.Unlock()
		return
	}

	var evicted *entry[K, V]
	if c.order.Len() >= c.capacity {
		oldest := c.order.Front()
		evicted = c.order.Remove(oldest).(*entry[K, V])
		delete(c.items, evicted.key)
	}

	c.items[key] = c.order.PushBack(&entry[K, V]{key: key, value: value})
	onEvict := c.onEvict
	c.mu.Unlock()

	if evicted != nil && onEvict != nil {
		onEvict(evicted.key, evicted.value)
	}
}

// Len returns the number of entries currently held.
func (c *FIFO[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.order.Len()
}

func (c *FIFO[K, V]) Capacity() int {
	return c.capacity
}

// Keys returns the cached keys from oldest to newest insertion.
func (c *FIFO[K, V]) Keys() []K {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]K, 0, c.order.Len())
	for el := c.order.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(*entry[K, V]).key)
	}
	return keys
}

// Clear removes all entries without invoking the eviction callback.
func (c *FIFO[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	c.items = make(map[K]*list.Element, c.capacity)
}

var _ Cache[string, int] = (*FIFO[string, int])(nil)
