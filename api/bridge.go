package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"unicode/utf8"

	"github.com/rescp17/liteshell/pkg/assets"
)

// MaxCallBodySize bounds a single POST body.
const MaxCallBodySize = 10 << 20

// CallRouter interprets a JSON request from the UI and returns JSON text.
// It must encode its own failures into the returned text.
type CallRouter interface {
	Call(ctx context.Context, request string) string
}

// CallRouterFunc adapts a function to CallRouter.
type CallRouterFunc func(ctx context.Context, request string) string

// Call implements CallRouter.
func (f CallRouterFunc) Call(ctx context.Context, request string) string {
	return f(ctx, request)
}

// API is the bridge between the UI page and the host: GET serves assets,
// POST forwards calls to the router.
type API struct {
	resolver *assets.Resolver
	router   CallRouter
	mux      *http.ServeMux
	internal map[string]bool
	logger   *slog.Logger
}

// Option configures an API.
type Option func(*API)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *API) {
		a.logger = logger
	}
}

// WithInternal mounts a bridge-internal GET handler at path. Internal routes
// take precedence over assets of the same name and match the exact path only.
func WithInternal(path string, h http.Handler) Option {
	return func(a *API) {
		a.mux.Handle("GET "+path, h)
		a.internal[path] = true
	}
}

// NewAPI creates and initializes a new API instance.
func NewAPI(resolver *assets.Resolver, router CallRouter, opts ...Option) *API {
	a := &API{
		resolver: resolver,
		router:   router,
		mux:      http.NewServeMux(),
		internal: make(map[string]bool),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ServeHTTP allows the API struct to satisfy the http.Handler interface.
// Only exact internal GET paths go through the mux; every other request is
// handled on its raw path, so no POST is ever redirected.
func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && a.internal[r.URL.Path] {
		a.mux.ServeHTTP(w, r)
		return
	}
	a.handleRequest(w, r)
}

func (a *API) handleRequest(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.handleStaticFile(w, r)
	case http.MethodPost:
		a.handleCall(w, r)
	default:
		fmt.Fprint(w, "Not Found")
	}
}

func (a *API) handleStaticFile(w http.ResponseWriter, r *http.Request) {
	urlPath := r.URL.Path
	filePath, err := a.resolver.Resolve(urlPath)
	if errors.Is(err, assets.ErrOutsideRoot) {
		a.logger.Warn("Rejected asset path", "path", urlPath)
		http.Error(w, urlPath+" Forbidden", http.StatusForbidden)
		return
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		a.logger.Debug("Asset not found", "path", urlPath, "file", filePath, "error", err)
		http.Error(w, urlPath+" Not Found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", assets.ContentType(filePath, data))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		a.logger.Debug("Failed to write asset", "path", urlPath, "error", err)
	}
}

func (a *API) handleCall(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxCallBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		a.logger.Warn("Failed to read call body", "error", err)
		writeJSONError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if !utf8.Valid(body) {
		a.logger.Warn("Rejected call body that is not valid UTF-8", "bytes", len(body))
		writeJSONError(w, http.StatusBadRequest, "request body is not valid UTF-8")
		return
	}

	response := a.router.Call(r.Context(), string(body))

	w.Header().Set("Content-Type", "application/json")
	if _, err := io.WriteString(w, response); err != nil {
		a.logger.Debug("Failed to write call response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
