// Package httpserver provides the HTTP REST API server for the paper
// podcast service.
package httpserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/Diego-Ornelas/Ai-paper-podcast/internal/credentials"
	"github.com/Diego-Ornelas/Ai-paper-podcast/internal/pipeline"
	"github.com/Diego-Ornelas/Ai-paper-podcast/internal/podcast"
)

// Server is the HTTP REST API server.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	searches   *pipeline.Runner
	sessions   *pipeline.Manager
	podcasts   *podcast.Service
	creds      *credentials.Manager
	validate   *validator.Validate
	logger     zerolog.Logger
}

// Config holds HTTP server configuration.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// NewServer creates a new HTTP server with all dependencies.
func NewServer(
	cfg Config,
	searches *pipeline.Runner,
	sessions *pipeline.Manager,
	podcasts *podcast.Service,
	creds *credentials.Manager,
	logger zerolog.Logger,
) *Server {
	s := &Server{
		searches: searches,
		sessions: sessions,
		podcasts: podcasts,
		creds:    creds,
		validate: validator.New(),
		logger:   logger.With().Str("component", "http-server").Logger(),
	}

	s.router = s.buildRouter()

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// buildRouter creates the chi router with all middleware and routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(correlationIDMiddleware)
	r.Use(s.requestLogMiddleware)

	r.Get("/healthz", s.healthHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/topics", s.listTopics)

		r.Post("/searches", s.startSearch)
		r.Get("/searches/{searchID}", s.getSearch)
		r.Get("/searches/{searchID}/progress", s.streamProgress)

		r.Post("/podcasts", s.generateScript)
		r.Get("/podcasts/{paperID}/audio", s.synthesizeAudio)

		r.Get("/credentials", s.getCredentials)
		r.Put("/credentials", s.saveCredentials)
	})

	return r
}

// Handler returns the server's root handler, used directly in tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("HTTP server starting")
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// healthHandler returns basic liveness status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
