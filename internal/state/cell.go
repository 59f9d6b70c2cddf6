// Package state holds a single mutable value and notifies one subscriber
// whenever it changes.
package state

import "sync"

// Cell is safe for concurrent use. The subscriber runs on the goroutine
// that called Set, after the lock is released.
type Cell[T any] struct {
	mu    sync.Mutex
	value T
	sub   func(T)
}

func NewCell[T any](initial T) *Cell[T] {
	return &Cell[T]{value: initial}
}

func (c *Cell[T]) Get() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Set replaces the value and notifies the subscriber, if any.
func (c *Cell[T]) Set(v T) {
	c.mu.Lock()
	c.value = v
	sub := c.sub
	c.mu.Unlock()

	if sub != nil {
		sub(v)
	}
}

// Subscribe installs fn as the only subscriber, replacing any previous one.
// A nil fn detaches.
func (c *Cell[T]) Subscribe(fn func(T)) {
	c.mu.Lock()
	c.sub = fn
	c.mu.Unlock()
}
