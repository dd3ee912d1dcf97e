package cache

import (
	"container/list"
	"sync"
	"time"
)

// LRUCache evicts the least recently used entry once maxSize is exceeded.
// Entries older than ttl are treated as absent.
type LRUCache[K comparable, V any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	now     func() time.Time
	items   map[K]*list.Element
	lru     *list.List
}

type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

func NewLRUCache[K comparable, V any](maxSize int, ttl time.Duration) *LRUCache[K, V] {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &LRUCache[K, V]{
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
		items:   make(map[K]*list.Element),
		lru:     list.New(),
	}
}

// WithClock replaces time.Now. Intended for tests.
func (c *LRUCache[K, V]) WithClock(now func() time.Time) *LRUCache[K, V] {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
	return c
}

func (c *LRUCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	elem, ok := c.items[key]
	if !ok {
		return zero, false
	}
	e := elem.Value.(*entry[K, V])
	if c.now().After(e.expiresAt) {
		c.remove(elem)
		return zero, false
	}
	c.lru.MoveToFront(elem)
	return e.value, true
}

func (c *LRUCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := &entry[K, V]{key: key, value: value, expiresAt: c.now().Add(c.ttl)}
	if elem, ok := c.items[key]; ok {
		elem.Value = e
		c.lru.MoveToFront(elem)
		return
	}

	c.items[key] = c.lru.PushFront(e)
	if c.lru.Len() > c.maxSize {
		if oldest := c.lru.Back(); oldest != nil {
			c.remove(oldest)
		}
	}
}

func (c *LRUCache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.items[key]; ok {
		c.remove(elem)
	}
}

// CleanExpired drops expired entries and returns how many were removed.
func (c *LRUCache[K, V]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for elem := c.lru.Front(); elem != nil; {
		next := elem.Next()
		if now.After(elem.Value.(*entry[K, V]).expiresAt) {
			c.remove(elem)
			removed++
		}
		elem = next
	}
	return removed
}

func (c *LRUCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *LRUCache[K, V]) remove(elem *list.Element) {
	delete(c.items, elem.Value.(*entry[K, V]).key)
	c.lru.Remove(elem)
}
