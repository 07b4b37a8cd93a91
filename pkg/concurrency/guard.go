package concurrency

import (
	"errors"
	"sync"
)

// ErrBusy is returned by TryWith when another holder owns the value.
var ErrBusy = errors.New("resource is busy")

// Exclusive guards a single value so that at most one caller uses it at a
// time. Callers never see the value outside of With/TryWith.
type Exclusive[T any] struct {
	mu    sync.Mutex
	value T
}

// NewExclusive wraps value.
func NewExclusive[T any](value T) *Exclusive[T] {
	return &Exclusive[T]{value: value}
}

// With blocks until the value is free, runs task with it and releases it,
// even if task panics.
func (g *Exclusive[T]) With(task func(T) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return task(g.value)
}

// TryWith runs task only if the value is free right now, otherwise it
// returns ErrBusy without waiting.
func (g *Exclusive[T]) TryWith(task func(T) error) error {
	if !g.mu.TryLock() {
		return ErrBusy
	}
	defer g.mu.Unlock()
	return task(g.value)
}
