package cache

import (
	"container/list"
	"sync"
	"time"
)

// LRUCache bounds both the number of entries and their age. Reads refresh
// recency but never extend the TTL.
type LRUCache[T any] struct {
	mu      sync.Mutex
	cap     int
	ttl     time.Duration
	index   map[string]*list.Element
	order   *list.List // front is most recently used
	now     func() time.Time
	hits    uint64
	misses  uint64
	evicted uint64
}

type entry[T any] struct {
	key     string
	value   T
	expires time.Time
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Size    int
	Hits    uint64
	Misses  uint64
	Evicted uint64
}

// NewLRUCache returns a cache holding at most capacity entries (minimum 1),
// each valid for ttl.
func NewLRUCache[T any](capacity int, ttl time.Duration) *LRUCache[T] {
	return &LRUCache[T]{
		cap:   max(capacity, 1),
		ttl:   ttl,
		index: make(map[string]*list.Element),
		order: list.New(),
		now:   time.Now,
	}
}

func (c *LRUCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.index[key]; ok {
		e := el.Value.(*entry[T])
		if !c.now().After(e.expires) {
			c.order.MoveToFront(el)
			c.hits++
			return e.value, true
		}
		c.drop(el)
	}
	c.misses++
	var zero T
	return zero, false
}

func (c *LRUCache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := &entry[T]{key: key, value: value, expires: c.now().Add(c.ttl)}
	if el, ok := c.index[key]; ok {
		el.Value = e
		c.order.MoveToFront(el)
		return
	}
	c.index[key] = c.order.PushFront(e)
	for c.order.Len() > c.cap {
		c.drop(c.order.Back())
		c.evicted++
	}
}

func (c *LRUCache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.index[key]; ok {
		c.drop(el)
	}
}

// CleanExpired sweeps from the least recently used end and returns the
// number of entries removed.
func (c *LRUCache[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	var removed int
	for el := c.order.Back(); el != nil; {
		prev := el.Prev()
		if now.After(el.Value.(*entry[T]).expires) {
			c.drop(el)
			removed++
		}
		el = prev
	}
	return removed
}

func (c *LRUCache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

func (c *LRUCache[T]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Size: len(c.index), Hits: c.hits, Misses: c.misses, Evicted: c.evicted}
}

func (c *LRUCache[T]) drop(el *list.Element) {
	delete(c.index, el.Value.(*entry[T]).key)
	c.order.Remove(el)
}
