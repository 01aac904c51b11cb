package cache

import (
	"container/list"
	"sync"
	"time"
)

// LRUCache holds at most capacity values. A value lives for ttl after it was
// last stored or refreshed by GetOrCreate; reads through Get only reorder it.
// When full, the least recently touched value is evicted.
type LRUCache[T any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	index    map[string]*list.Element
	order    *list.List // front is most recent
	now      func() time.Time
}

type entry[T any] struct {
	key      string
	value    T
	deadline time.Time
}

func NewLRUCache[T any](capacity int, ttl time.Duration) *LRUCache[T] {
	return &LRUCache[T]{
		capacity: capacity,
		ttl:      ttl,
		index:    make(map[string]*list.Element),
		order:    list.New(),
		now:      time.Now,
	}
}

// lookup returns the element for key if it has not expired. Expired elements
// are dropped on sight.
func (c *LRUCache[T]) lookup(key string, now time.Time) *list.Element {
	el, ok := c.index[key]
	if !ok {
		return nil
	}
	if now.After(el.Value.(*entry[T]).deadline) {
		c.drop(el)
		return nil
	}
	c.order.MoveToFront(el)
	return el
}

func (c *LRUCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el := c.lookup(key, c.now()); el != nil {
		return el.Value.(*entry[T]).value, true
	}
	var zero T
	return zero, false
}

func (c *LRUCache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store(key, value, c.now())
}

// GetOrCreate returns the live value for key, or stores and returns create()
// when there is none. In both cases the deadline moves to now+ttl.
func (c *LRUCache[T]) GetOrCreate(key string, create func() T) T {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if el := c.lookup(key, now); el != nil {
		e := el.Value.(*entry[T])
		e.deadline = now.Add(c.ttl)
		return e.value
	}
	value := create()
	c.store(key, value, now)
	return value
}

func (c *LRUCache[T]) store(key string, value T, now time.Time) {
	e := &entry[T]{key: key, value: value, deadline: now.Add(c.ttl)}
	if el, ok := c.index[key]; ok {
		el.Value = e
		c.order.MoveToFront(el)
		return
	}

	c.index[key] = c.order.PushFront(e)
	for c.order.Len() > c.capacity {
		c.drop(c.order.Back())
	}
}

func (c *LRUCache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.index[key]; ok {
		c.drop(el)
	}
}

func (c *LRUCache[T]) drop(el *list.Element) {
	c.order.Remove(el)
	delete(c.index, el.Value.(*entry[T]).key)
}

// CleanExpired drops every expired value and reports how many went.
func (c *LRUCache[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	dropped := 0
	for el := c.order.Back(); el != nil; {
		prev := el.Prev()
		if now.After(el.Value.(*entry[T]).deadline) {
			c.drop(el)
			dropped++
		}
		el = prev
	}
	return dropped
}

func (c *LRUCache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

var _ Cache[int] = (*LRUCache[int])(nil)
