// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server serves the chat UI and the JSON conversion API.
//
// Routes:
//   - GET  /                         - start a new session
//   - GET  /sessions/{id}            - chat page
//   - POST /sessions/{id}/messages   - convert one message (multipart form)
//   - POST /api/convert              - convert text, JSON in and out
//   - GET  /api/sessions/{id}        - session transcript as JSON
//   - GET  /health                   - health check
//
// Every request carries its session ID; the server keeps no conversation
// state of its own.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/ottoman-converter/pkg/types"
)

const (
	// DefaultAddr is the listen address when none is configured.
	DefaultAddr = ":8501"

	// DefaultMaxUploadBytes caps request bodies, uploads included.
	DefaultMaxUploadBytes = 32 << 20

	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

//go:embed templates/*.html
var templateFS embed.FS

// Converter runs one text conversion.
type Converter interface {
	Convert(ctx context.Context, req types.ConversionRequest) (string, error)
}

// SessionStore holds chat transcripts.
type SessionStore interface {
	CreateSession(ctx context.Context) (types.Session, error)
	Append(ctx context.Context, sessionID string, msgs ...types.Message) error
	Session(ctx context.Context, id string) (types.Session, error)
}

// Server is the HTTP front end for conversions.
type Server struct {
	cfg    types.AppConfig
	conv   Converter
	store  SessionStore
	logger *zap.Logger
	mux    *http.ServeMux
	page   *template.Template
}

// New creates a Server. A nil logger is replaced with a no-op logger.
func New(cfg types.AppConfig, conv Converter, store SessionStore, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Server.MaxUploadBytes <= 0 {
		cfg.Server.MaxUploadBytes = DefaultMaxUploadBytes
	}

	s := &Server{
		cfg:    cfg,
		conv:   conv,
		store:  store,
		logger: logger,
		mux:    http.NewServeMux(),
		page:   template.Must(template.ParseFS(templateFS, "templates/chat.html")),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Chat UI
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /sessions/{id}", s.handleSession)
	s.mux.HandleFunc("POST /sessions/{id}/messages", s.handlePostMessage)

	// JSON API
	s.mux.HandleFunc("POST /api/convert", s.handleAPIConvert)
	s.mux.HandleFunc("GET /api/sessions/{id}", s.handleAPISession)

	s.mux.HandleFunc("GET /health", s.handleHealth)
}

// Handler returns the routes wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	return Chain(
		RecoveryMiddleware(s.logger),
		LoggingMiddleware(s.logger),
		RateLimitMiddleware(NewRateLimiter(s.cfg.Server.Rate, s.cfg.Server.Burst), s.logger),
		BodyLimitMiddleware(s.cfg.Server.MaxUploadBytes),
	)(s.mux)
}

// ListenAndServe listens on the configured address and serves until ctx is
// cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := s.cfg.Server.Addr
	if addr == "" {
		addr = DefaultAddr
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully. It closes ln.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ErrorLog:          zap.NewStdLog(s.logger),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("server started", zap.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}
