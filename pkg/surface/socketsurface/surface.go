// Package socketsurface drives a UI page running in an ordinary browser: the
// page opens a websocket to the bridge and evaluates every text frame it
// receives as script.
package socketsurface

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rescp17/liteshell/pkg/surface"
)

// Bridge-internal routes served alongside the UI's assets.
const (
	SocketPath = "/__liteshell/ws"
	ClientPath = "/__liteshell/socket.js"
)

// ErrNotConnected is returned while no page is attached. It is transient.
var ErrNotConnected = errors.New("no ui page connected")

//go:embed socket.js
var clientScript string

// Surface holds at most one page connection; a newly connected page replaces
// the previous one.
type Surface struct {
	upgrader     websocket.Upgrader
	writeTimeout time.Duration
	logger       *slog.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

// Option configures a Surface.
type Option func(*Surface)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Surface) {
		s.logger = logger
	}
}

// WithWriteTimeout bounds a single script write.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Surface) {
		if d > 0 {
			s.writeTimeout = d
		}
	}
}

// New returns a Surface with no page attached.
func New(opts ...Option) *Surface {
	s := &Surface{
		writeTimeout: 5 * time.Second,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ServeHTTP upgrades the page's websocket and keeps reading from it until it
// goes away.
func (s *Surface) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		http.Error(w, "websocket upgrade required", http.StatusBadRequest)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", "error", err)
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return
	}
	if s.conn != nil {
		s.logger.Info("UI page replaced by a new connection", "remote", r.RemoteAddr)
		s.closeConn(s.conn, websocket.CloseGoingAway, "replaced")
	}
	s.conn = conn
	s.mu.Unlock()
	s.logger.Info("UI page connected", "remote", r.RemoteAddr)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.mu.Lock()
	if s.conn == conn {
		s.conn = nil
	}
	s.mu.Unlock()
	conn.Close()
	s.logger.Info("UI page disconnected", "remote", r.RemoteAddr)
}

// ClientHandler serves the page-side script that connects back to ServeHTTP.
func (s *Surface) ClientHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		fmt.Fprint(w, clientScript)
	})
}

// Routes returns the bridge-internal GET handlers this surface needs.
func (s *Surface) Routes() map[string]http.Handler {
	return map[string]http.Handler{
		SocketPath: s,
		ClientPath: s.ClientHandler(),
	}
}

// Connected reports whether a page is attached.
func (s *Surface) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// EvaluateScript sends script to the attached page. A failed write drops
// the connection; the page is expected to reconnect.
func (s *Surface) EvaluateScript(script string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return surface.ErrClosed
	}
	if s.conn == nil {
		return ErrNotConnected
	}

	_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	if err := s.conn.WriteMessage(websocket.TextMessage, []byte(script)); err != nil {
		s.conn.Close()
		s.conn = nil
		return fmt.Errorf("failed to deliver script: %w", err)
	}
	return nil
}

// Close detaches the page and rejects all further evaluations.
func (s *Surface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.conn != nil {
		s.closeConn(s.conn, websocket.CloseGoingAway, "shutting down")
		s.conn = nil
	}
	return nil
}

func (s *Surface) closeConn(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	conn.Close()
}
