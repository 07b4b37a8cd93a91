// Package calls routes JSON requests from the UI to host handlers. The
// router never fails across its boundary: every failure is encoded into the
// returned JSON.
package calls

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// HandlerFunc serves one method. The returned value is JSON-encoded into
// Response.Result.
type HandlerFunc func(ctx context.Context, params json.RawMessage) (any, error)

// Router is a concurrency-safe method registry.
type Router struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	logger   *slog.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// NewRouter returns an empty router.
func NewRouter(opts ...Option) *Router {
	r := &Router{
		handlers: make(map[string]HandlerFunc),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handle registers h for method, replacing any previous handler.
func (r *Router) Handle(method string, h HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[method] = h
}

// Methods returns the registered method names, sorted.
func (r *Router) Methods() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Call decodes request, runs the matching handler and returns the encoded
// response.
func (r *Router) Call(ctx context.Context, request string) string {
	var req Request
	if err := json.Unmarshal([]byte(request), &req); err != nil {
		if json.Valid([]byte(request)) {
			return r.encode(Response{Error: &Error{Code: CodeInvalidRequest, Message: "request must be an object: " + err.Error()}})
		}
		return r.encode(Response{Error: &Error{Code: CodeParseError, Message: "parse error: " + err.Error()}})
	}
	if req.Method == "" {
		return r.encode(Response{ID: req.ID, Error: &Error{Code: CodeInvalidRequest, Message: "missing method"}})
	}

	r.mu.RLock()
	h, ok := r.handlers[req.Method]
	r.mu.RUnlock()
	if !ok {
		r.logger.Warn("Unknown call method", "method", req.Method)
		return r.encode(Response{ID: req.ID, Error: &Error{Code: CodeUnknownMethod, Message: "unknown method: " + req.Method}})
	}

	result, err := r.invoke(ctx, h, req)
	if err != nil {
		var callErr *Error
		if !errors.As(err, &callErr) {
			callErr = &Error{Code: CodeInternal, Message: err.Error()}
		}
		r.logger.Debug("Call failed", "method", req.Method, "code", callErr.Code, "error", callErr.Message)
		return r.encode(Response{ID: req.ID, Error: callErr})
	}
	return r.encode(Response{ID: req.ID, OK: true, Result: result})
}

func (r *Router) invoke(ctx context.Context, h HandlerFunc, req Request) (result any, err error) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("Call handler panicked", "method", req.Method, "panic", p)
			result, err = nil, fmt.Errorf("handler panic: %v", p)
		}
	}()
	return h(ctx, req.Params)
}

func (r *Router) encode(resp Response) string {
	data, err := json.Marshal(resp)
	if err != nil {
		data, _ = json.Marshal(Response{
			ID:    resp.ID,
			Error: &Error{Code: CodeInternal, Message: "failed to encode result: " + err.Error()},
		})
	}
	return string(data)
}
