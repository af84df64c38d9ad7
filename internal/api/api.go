// Package api exposes the funnelbot HTTP surface used by the web chat
// front end.
//
// It provides RESTful endpoints for starting sessions, sending messages,
// and submitting the structured payment and meeting forms. The API is a
// thin layer over the funnel engine; all conversation semantics live there.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// DefaultAddr is the default listen address for the API server.
const DefaultAddr = ":8080"

// Opts holds configuration options for the API server.
type Opts struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string
	// AllowedOrigins restricts CORS. Empty allows all origins, which suits
	// local development with a separate front-end dev server.
	AllowedOrigins []string
}

// Option defines a configuration option for the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) {
		o.Addr = addr
	}
}

// WithAllowedOrigins sets the CORS allowed origins.
func WithAllowedOrigins(origins []string) Option {
	return func(o *Opts) {
		o.AllowedOrigins = origins
	}
}

// Server wires HTTP routes to the funnel engine.
type Server struct {
	engine Engine
	addr   string
	http   *http.Server
}

// NewServer creates an API server around the given engine.
func NewServer(engine Engine, opts ...Option) *Server {
	cfg := Opts{Addr: DefaultAddr}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Server{engine: engine, addr: cfg.Addr}

	router := mux.NewRouter()
	router.HandleFunc("/health", s.healthHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/sessions", s.createSessionHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/sessions/{id}", s.getSessionHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/sessions/{id}/messages", s.postMessageHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/sessions/{id}/payment", s.submitPaymentHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/sessions/{id}/meeting", s.submitMeetingHandler).Methods(http.MethodPost)

	corsOpts := cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}
	if len(cfg.AllowedOrigins) > 0 {
		corsOpts.AllowedOrigins = cfg.AllowedOrigins
	} else {
		corsOpts.AllowedOrigins = []string{"*"}
	}

	s.http = &http.Server{
		Addr:         cfg.Addr,
		Handler:      cors.New(corsOpts).Handler(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Run starts the HTTP server and blocks until the context is canceled or
// the listener fails.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server.Run: API listening", "addr", s.addr)
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		slog.Info("Server.Run: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}
