// Package surface owns the single UI rendering surface and the protocol used
// to push events into it.
package surface

import (
	"errors"

	"github.com/rescp17/liteshell/pkg/concurrency"
)

// ErrClosed reports that the surface is permanently gone. Callers treat any
// other evaluation error as a failure of that one script only.
var ErrClosed = errors.New("ui surface closed")

// Surface executes script against the UI. Implementations need not be safe
// for concurrent use; Handle serializes access.
type Surface interface {
	EvaluateScript(script string) error
}

// Handle is the shared, exclusively-locked reference to the UI surface.
// At most one script execution is in flight at any instant.
type Handle struct {
	guard *concurrency.Exclusive[Surface]
}

// NewHandle wraps s.
func NewHandle(s Surface) *Handle {
	return &Handle{guard: concurrency.NewExclusive(s)}
}

// With acquires the surface, blocking until the previous holder releases it,
// and runs fn with it.
func (h *Handle) With(fn func(Surface) error) error {
	return h.guard.With(fn)
}

// TryWith runs fn only if the surface is free right now; otherwise it
// returns concurrency.ErrBusy.
func (h *Handle) TryWith(fn func(Surface) error) error {
	return h.guard.TryWith(fn)
}

// Evaluate executes script under the lock.
func (h *Handle) Evaluate(script string) error {
	return h.With(func(s Surface) error {
		return s.EvaluateScript(script)
	})
}

// Emit delivers a named event with a JSON payload under the lock.
func (h *Handle) Emit(name string, payload any) error {
	script, err := Script(name, payload)
	if err != nil {
		return err
	}
	return h.Evaluate(script)
}
