// Package cache provides a small in-process LRU cache with per-entry TTL,
// used to keep dashboard aggregation queries off the hot path.
package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

type entry[T any] struct {
	key       string
	value     T
	expiresAt time.Time
}

// TTLCache evicts by recency when full and by TTL on read.
type TTLCache[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	index   map[string]*list.Element
	order   *list.List
}

func New[T any](maxSize int, ttl time.Duration) *TTLCache[T] {
	return &TTLCache[T]{
		maxSize: maxSize,
		ttl:     ttl,
		index:   make(map[string]*list.Element),
		order:   list.New(),
	}
}

func (c *TTLCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, ok := c.index[key]
	if !ok {
		return zero, false
	}

	e := elem.Value.(*entry[T])
	if time.Now().After(e.expiresAt) {
		c.remove(elem)
		return zero, false
	}

	c.order.MoveToFront(elem)
	return e.value, true
}

func (c *TTLCache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := &entry[T]{key: key, value: value, expiresAt: time.Now().Add(c.ttl)}

	if elem, ok := c.index[key]; ok {
		elem.Value = e
		c.order.MoveToFront(elem)
		return
	}

	c.index[key] = c.order.PushFront(e)

	if c.order.Len() > c.maxSize {
		if oldest := c.order.Back(); oldest != nil {
			c.remove(oldest)
		}
	}
}

func (c *TTLCache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.index[key]; ok {
		c.remove(elem)
	}
}

func (c *TTLCache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

// Purge drops every expired entry and reports how many were removed.
func (c *TTLCache[T]) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	var expired []*list.Element
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		if now.After(elem.Value.(*entry[T]).expiresAt) {
			expired = append(expired, elem)
		}
	}
	for _, elem := range expired {
		c.remove(elem)
	}
	return len(expired)
}

// caller must hold c.mu
func (c *TTLCache[T]) remove(elem *list.Element) {
	delete(c.index, elem.Value.(*entry[T]).key)
	c.order.Remove(elem)
}

// StartJanitor purges expired entries every interval until ctx ends.
func (c *TTLCache[T]) StartJanitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.Purge()
			}
		}
	}()
}
