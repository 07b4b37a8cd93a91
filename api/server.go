package api

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"
)

const (
	minAcceptBackoff = 5 * time.Millisecond
	maxAcceptBackoff = time.Second
)

// Server accepts connections on a caller-supplied listener and serves each
// connection on its own goroutine. A failing connection never affects the
// listener or other connections.
type Server struct {
	srv    *http.Server
	logger *slog.Logger

	mu       sync.Mutex
	listener net.Listener
}

// NewServer wraps handler. logger may be nil.
func NewServer(handler http.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		srv: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
		},
		logger: logger,
	}
}

// Serve takes ownership of l and blocks until it is closed. Accept errors
// are logged and retried with backoff.
func (s *Server) Serve(l net.Listener) error {
	rl := &resilientListener{Listener: l, logger: s.logger}

	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()

	s.logger.Info("Bridge server listening", "addr", l.Addr().String())
	err := s.srv.Serve(rl)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Close closes the listener and all open connections without draining them.
func (s *Server) Close() error {
	return s.srv.Close()
}

// Addr returns the listener address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// resilientListener only surfaces Accept errors once the listener is closed.
type resilientListener struct {
	net.Listener
	logger *slog.Logger
}

func (l *resilientListener) Accept() (net.Conn, error) {
	var backoff time.Duration
	for {
		conn, err := l.Listener.Accept()
		if err == nil {
			return conn, nil
		}
		if errors.Is(err, net.ErrClosed) {
			return nil, err
		}

		if backoff == 0 {
			backoff = minAcceptBackoff
		} else {
			backoff *= 2
		}
		if backoff > maxAcceptBackoff {
			backoff = maxAcceptBackoff
		}
		l.logger.Warn("Accept failed, retrying", "error", err, "backoff", backoff)
		time.Sleep(backoff)
	}
}
