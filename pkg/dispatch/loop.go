// Package dispatch serializes host and window events into script deliveries
// against the UI surface.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rescp17/liteshell/pkg/surface"
)

var errNoTarget = errors.New("event loop has no target")

type noTarget struct{}

func (noTarget) Post(Event) error { return errNoTarget }

// Loop consumes events from a single source, one at a time, and delivers
// each to the UI through the surface handle. It is not reentrant: Run must
// be called from exactly one goroutine.
type Loop struct {
	ui     *surface.Handle
	source Source
	target Target
	flow   ControlFlow
	logger *slog.Logger
}

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		l.logger = logger
	}
}

// WithTarget sets the target handed to callbacks. By default the source is
// used when it can accept events.
func WithTarget(target Target) Option {
	return func(l *Loop) {
		l.target = target
	}
}

// NewLoop creates a loop reading from source and writing to ui.
func NewLoop(ui *surface.Handle, source Source, opts ...Option) *Loop {
	l := &Loop{
		ui:     ui,
		source: source,
		flow:   Wait,
		logger: slog.Default(),
	}
	if t, ok := source.(Target); ok {
		l.target = t
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.target == nil {
		l.target = noTarget{}
	}
	return l
}

// ControlFlow returns the state left by the last handled event.
func (l *Loop) ControlFlow() ControlFlow {
	return l.flow
}

// Run handles events until the control flow becomes Exit, which returns nil.
// It returns an error when the source fails or the UI surface is gone.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("Event loop started")
	for {
		ev, err := l.source.Next(ctx)
		if err != nil {
			l.logger.Warn("Event source stopped", "error", err)
			return err
		}
		if err := l.Handle(ev); err != nil {
			return err
		}
		if l.flow == Exit {
			l.logger.Info("Event loop exiting")
			return nil
		}
	}
}

// Handle processes a single event. The control flow is reset to Wait first.
func (l *Loop) Handle(ev Event) error {
	l.flow = Wait

	switch e := ev.(type) {
	case WindowFocusChanged:
		return l.deliver(EventWindowFocused, focusedPayload{Focused: e.Focused})
	case ScaleFactorChanged:
		return l.deliver(EventScaleFactorChanged, scaleFactorPayload{
			ScaleFactor:  e.ScaleFactor,
			NewInnerSize: e.NewInnerSize,
		})
	case ThemeChanged:
		return l.deliver(EventThemeChanged, themePayload{Theme: e.Theme.String()})
	case CloseRequested:
		l.flow = Exit
	case MenuActivated:
		return l.deliver(EventMenuClicked, menuPayload{MenuID: e.ID})
	case HostCallback:
		return l.call(e)
	case Ignored:
		l.logger.Debug("Ignoring native event", "kind", e.Kind)
	default:
		l.logger.Debug("Ignoring unknown event", "event", fmt.Sprintf("%T", ev))
	}
	return nil
}

func (l *Loop) deliver(name string, payload any) error {
	script, err := surface.Script(name, payload)
	if err != nil {
		l.logger.Error("Failed to build delivery script", "event", name, "error", err)
		return nil
	}

	return l.settle(name, l.ui.Evaluate(script))
}

// settle drops a failed delivery unless the surface itself is gone.
func (l *Loop) settle(name string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, surface.ErrClosed) {
		l.logger.Error("UI surface closed, stopping event loop", "event", name, "error", err)
		return fmt.Errorf("failed to deliver %s: %w", name, err)
	}
	l.logger.Warn("Dropped UI delivery", "event", name, "error", err)
	return nil
}

func (l *Loop) call(cb HostCallback) (err error) {
	if cb.Fn == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("Host callback panicked", "panic", r)
			err = nil
		}
	}()
	return l.ui.With(func(s surface.Surface) error {
		cb.Fn(s, l.target, &l.flow)
		return nil
	})
}
