// Package shell assembles the bridge for one process: the surface handle,
// the event queue and loop, the call router with its built-in methods, and
// the HTTP bridge serving the UI.
package shell

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"

	"github.com/google/uuid"

	"github.com/rescp17/liteshell/api"
	"github.com/rescp17/liteshell/internal/environment"
	"github.com/rescp17/liteshell/pkg/assets"
	"github.com/rescp17/liteshell/pkg/calls"
	"github.com/rescp17/liteshell/pkg/dispatch"
	"github.com/rescp17/liteshell/pkg/surface"
	"github.com/rescp17/liteshell/pkg/system"
)

// RuntimePath serves surface.RuntimeScript to UI pages.
const RuntimePath = "/__liteshell/runtime.js"

// RouteProvider is implemented by surfaces that need bridge-internal routes.
type RouteProvider interface {
	Routes() map[string]http.Handler
}

// App is a wired bridge. Create it with New, start Serve on a listener and
// Run the event loop.
type App struct {
	env        *environment.Environment
	instanceID string

	handle  *surface.Handle
	queue   *dispatch.Queue
	loop    *dispatch.Loop
	router  *calls.Router
	api     *api.API
	server  *api.Server
	monitor *system.Monitor
	addr    net.Addr

	logger *slog.Logger
}

// Option configures an App.
type Option func(*App)

// WithLogger sets the logger passed to every component.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

// New wires an App around ui. Built-in call methods are registered; more
// may be added through Router before serving.
func New(env *environment.Environment, ui surface.Surface, opts ...Option) *App {
	a := &App{
		env:        env,
		instanceID: uuid.NewString(),
		monitor:    system.NewMonitor(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}

	a.handle = surface.NewHandle(ui)
	a.queue = dispatch.NewQueue()
	a.loop = dispatch.NewLoop(a.handle, a.queue, dispatch.WithLogger(a.logger.With("component", "loop")))
	a.router = calls.NewRouter(calls.WithLogger(a.logger.With("component", "router")))
	a.registerBuiltins()

	apiOpts := []api.Option{
		api.WithLogger(a.logger.With("component", "bridge")),
		api.WithInternal(RuntimePath, http.HandlerFunc(serveRuntime)),
	}
	if rp, ok := ui.(RouteProvider); ok {
		for path, h := range rp.Routes() {
			apiOpts = append(apiOpts, api.WithInternal(path, h))
		}
	}
	resolver := assets.NewResolver(env.AssetRoot(), env.EntryPath())
	a.api = api.NewAPI(resolver, a.router, apiOpts...)
	a.server = api.NewServer(a.api, a.logger.With("component", "server"))

	return a
}

func serveRuntime(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	io.WriteString(w, surface.RuntimeScript)
}

// Environment returns the resolved environment.
func (a *App) Environment() *environment.Environment { return a.env }

// InstanceID identifies this process run.
func (a *App) InstanceID() string { return a.instanceID }

// Handle returns the shared surface handle.
func (a *App) Handle() *surface.Handle { return a.handle }

// Queue is both the loop's source and the target native event sources post to.
func (a *App) Queue() *dispatch.Queue { return a.queue }

// Router returns the call router.
func (a *App) Router() *calls.Router { return a.router }

// Handler returns the bridge HTTP handler.
func (a *App) Handler() http.Handler { return a.api }

// Post enqueues an event for the loop.
func (a *App) Post(ev dispatch.Event) error {
	return a.queue.Post(ev)
}

// Serve runs the request server on l until Close.
func (a *App) Serve(l net.Listener) error {
	return a.server.Serve(l)
}

// Start serves on l in the background. The channel receives Serve's result.
func (a *App) Start(l net.Listener) <-chan error {
	a.addr = l.Addr()
	done := make(chan error, 1)
	go func() {
		done <- a.server.Serve(l)
	}()
	return done
}

// URL is the address a window should load: the debug entry when set,
// otherwise the bridge root.
func (a *App) URL() string {
	if a.env.DebugEntry != "" {
		return a.env.DebugEntry
	}
	addr := a.addr
	if addr == nil {
		addr = a.server.Addr()
	}
	if addr == nil {
		return ""
	}
	return fmt.Sprintf("http://%s/", addr.String())
}

// Run drives the event loop until an event requests exit, the context is
// cancelled or the surface is gone.
func (a *App) Run(ctx context.Context) error {
	return a.loop.Run(ctx)
}

// Close stops the request server and the event queue.
func (a *App) Close() error {
	a.queue.Close()
	return a.server.Close()
}
