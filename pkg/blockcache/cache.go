// Package blockcache is a small TTL+LRU cache for host block lookups.
//
// One poll cycle resolves the same parent many times (siblings share a
// parent, ancestor walks overlap), so lookups are cached for a short TTL.
package blockcache

import (
	"container/list"
	"sync"
	"time"
)

// Cache maps block ids to values of type V.
type Cache[V any] struct {
	mu         sync.Mutex
	maxEntries int
	ttl        time.Duration
	now        func() time.Time
	// order is the LRU list of *entry (front = most recent)
	order *list.List
	// elements maps key -> *list.Element for O(1) lookup
	elements map[string]*list.Element
}

type entry[V any] struct {
	key       string
	value     V
	expiresAt time.Time
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New returns a cache holding at most maxEntries values, each valid for ttl.
// A ttl <= 0 means entries never expire.
func New[V any](maxEntries int, ttl time.Duration, opts ...Option) *Cache[V] {
	o := &options{now: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &Cache[V]{
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        o.now,
		order:      list.New(),
		elements:   make(map[string]*list.Element),
	}
}

// Set stores value under key, evicting the least recently used entry when full.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = c.now().Add(c.ttl)
	}

	if elem, ok := c.elements[key]; ok {
		e := elem.Value.(*entry[V])
		e.value = value
		e.expiresAt = expiresAt
		c.order.MoveToFront(elem)
		return
	}

	if c.order.Len() >= c.maxEntries {
		if back := c.order.Back(); back != nil {
			evicted := c.order.Remove(back).(*entry[V])
			delete(c.elements, evicted.key)
		}
	}
	c.elements[key] = c.order.PushFront(&entry[V]{key: key, value: value, expiresAt: expiresAt})
}

// Get returns the live value for key. Expired entries are dropped lazily.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	elem, ok := c.elements[key]
	if !ok {
		return zero, false
	}
	e := elem.Value.(*entry[V])
	if !e.expiresAt.IsZero() && c.now().After(e.expiresAt) {
		c.order.Remove(elem)
		delete(c.elements, key)
		return zero, false
	}
	c.order.MoveToFront(elem)
	return e.value, true
}

// Delete removes key and reports whether it was present.
func (c *Cache[V]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.elements[key]
	if !ok {
		return false
	}
	c.order.Remove(elem)
	delete(c.elements, key)
	return true
}

// Purge drops every entry. Mutating actions purge so the next cycle reads fresh text.
func (c *Cache[V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	clear(c.elements)
}

// Len returns the number of stored entries, including not-yet-evicted expired ones.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
