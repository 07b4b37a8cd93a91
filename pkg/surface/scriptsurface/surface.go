// Package scriptsurface is a headless UI surface: scripts run in an embedded
// JavaScript runtime preloaded with the LiteShell runtime, and every event the
// runtime receives is reported to Go observers.
package scriptsurface

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/eventloop"

	"github.com/rescp17/liteshell/pkg/surface"
)

// Emission is one event observed by the runtime's receiver.
type Emission struct {
	Name    string
	Payload json.RawMessage
}

// Observer is called on the runtime's goroutine for each emission.
type Observer func(Emission)

// Surface executes scripts on a goja event loop. Close is terminal.
type Surface struct {
	loop    *eventloop.EventLoop
	stopped chan struct{}

	mu        sync.Mutex
	closed    bool
	observers []Observer

	logger *slog.Logger
}

// Option configures a Surface.
type Option func(*Surface)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Surface) {
		s.logger = logger
	}
}

// WithObserver registers an observer before the runtime starts.
func WithObserver(o Observer) Option {
	return func(s *Surface) {
		s.observers = append(s.observers, o)
	}
}

// New starts the runtime and loads the LiteShell runtime script into it.
func New(opts ...Option) (*Surface, error) {
	s := &Surface{
		loop:    eventloop.NewEventLoop(),
		stopped: make(chan struct{}),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.loop.Start()

	err := s.run(func(vm *goja.Runtime) error {
		if err := s.installConsole(vm); err != nil {
			return fmt.Errorf("failed to install console: %w", err)
		}
		if _, err := vm.RunScript("runtime.js", surface.RuntimeScript); err != nil {
			return fmt.Errorf("failed to load runtime script: %w", err)
		}
		shell := vm.Get("LiteShell")
		if shell == nil || goja.IsUndefined(shell) {
			return fmt.Errorf("runtime script did not define LiteShell")
		}
		obj := shell.ToObject(vm)
		on, ok := goja.AssertFunction(obj.Get("on"))
		if !ok {
			return fmt.Errorf("LiteShell.on is not a function")
		}
		_, err := on(obj, vm.ToValue("*"), vm.ToValue(s.onEmit))
		return err
	})
	if err != nil {
		s.Close()
		return nil, err
	}

	return s, nil
}

// Observe registers an observer.
func (s *Surface) Observe(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

// EvaluateScript runs script to completion and returns any thrown error.
func (s *Surface) EvaluateScript(script string) error {
	return s.run(func(vm *goja.Runtime) error {
		if _, err := vm.RunString(script); err != nil {
			return fmt.Errorf("script evaluation failed: %w", err)
		}
		return nil
	})
}

// Close stops the runtime. Subsequent evaluations return surface.ErrClosed.
func (s *Surface) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.stopped)
	s.mu.Unlock()

	s.loop.Stop()
	s.logger.Debug("Script surface closed")
	return nil
}

func (s *Surface) run(fn func(vm *goja.Runtime) error) error {
	done := make(chan error, 1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return surface.ErrClosed
	}
	s.loop.RunOnLoop(func(vm *goja.Runtime) {
		done <- fn(vm)
	})
	s.mu.Unlock()

	select {
	case err := <-done:
		return err
	case <-s.stopped:
		return surface.ErrClosed
	}
}

// installConsole replaces the runtime's console so script output goes to
// the surface logger instead of the process's standard log.
func (s *Surface) installConsole(vm *goja.Runtime) error {
	levels := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"log":   slog.LevelInfo,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	console := vm.NewObject()
	for name, level := range levels {
		err := console.Set(name, func(call goja.FunctionCall) goja.Value {
			parts := make([]string, len(call.Arguments))
			for i, arg := range call.Arguments {
				parts[i] = arg.String()
			}
			s.logger.Log(context.Background(), level, strings.Join(parts, " "), "source", "console")
			return goja.Undefined()
		})
		if err != nil {
			return err
		}
	}
	return vm.Set("console", console)
}

func (s *Surface) onEmit(call goja.FunctionCall) goja.Value {
	name := call.Argument(0).String()
	payload, err := json.Marshal(call.Argument(1).Export())
	if err != nil {
		s.logger.Warn("Failed to encode emitted payload", "event", name, "error", err)
		payload = []byte("null")
	}

	s.mu.Lock()
	observers := append([]Observer(nil), s.observers...)
	s.mu.Unlock()

	em := Emission{Name: name, Payload: payload}
	for _, o := range observers {
		o(em)
	}
	return goja.Undefined()
}
