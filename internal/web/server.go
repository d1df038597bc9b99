// Package web serves the bulk mail form: upload a spreadsheet, compose a
// subject and body, send, and watch per-recipient status.
package web

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/shineum/bulkmail-lite/internal/dispatch"
)

// shutdownTimeout is the maximum time to wait for in-flight requests
// during graceful shutdown.
const shutdownTimeout = 30 * time.Second

// defaultMaxUploadSize applies when ServerConfig.MaxUploadSize is not set.
const defaultMaxUploadSize = 10 << 20

// ServerConfig holds the configuration for a web Server.
type ServerConfig struct {
	// ListenAddr is the address to listen on (e.g., ":8080").
	ListenAddr string

	// Dispatcher sends composed messages. Required.
	Dispatcher *dispatch.Client

	// TLSConfig enables HTTPS when non-nil.
	TLSConfig *tls.Config

	// AuthUsername and AuthPassword enable HTTP basic auth.
	// If either is empty, authentication is not required.
	AuthUsername string
	AuthPassword string

	// MaxUploadSize caps the spreadsheet upload in bytes.
	MaxUploadSize int64

	// RateLimit is the number of API requests per minute allowed per
	// client IP. Zero or less disables limiting.
	RateLimit int
}

// Server serves the form and its JSON API.
type Server struct {
	config  ServerConfig
	auth    *Authenticator
	handler http.Handler

	mu       sync.Mutex
	listener net.Listener
}

// New creates a new Server with the given configuration.
func New(cfg ServerConfig) *Server {
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = defaultMaxUploadSize
	}

	s := &Server{
		config: cfg,
		auth:   NewAuthenticator(cfg.AuthUsername, cfg.AuthPassword),
	}
	s.handler = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(s.auth.Middleware)

		r.Get("/", s.handleIndex)

		r.Route("/api", func(r chi.Router) {
			if s.config.RateLimit > 0 {
				r.Use(newRateLimiter(s.config.RateLimit).middleware)
			}
			r.Post("/extract", s.handleExtract)
			r.Post("/send", s.handleSend)
		})
	})

	return r
}

// ListenAndServe starts the server and blocks until the context is cancelled.
// On context cancellation, it stops accepting new connections and waits up to
// 30 seconds for in-flight requests to complete.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	srv := &http.Server{
		Handler:           s.handler,
		TLSConfig:         s.config.TLSConfig,
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("web server listening",
		"addr", ln.Addr().String(),
		"provider", s.config.Dispatcher.Provider().Name(),
		"auth_enabled", s.auth.Enabled(),
		"tls_enabled", s.config.TLSConfig != nil,
	)

	errCh := make(chan error, 1)
	go func() {
		if s.config.TLSConfig != nil {
			errCh <- srv.ServeTLS(ln, "", "")
			return
		}
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down web server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("shutdown timeout reached, forcing close", "error", err)
		return srv.Close()
	}
	slog.Info("all requests completed")
	return nil
}

// Addr returns the listener address, or empty string if not listening.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}
