// Package server provides the HTTP API for Ruiji.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hyperjump/ruiji/internal/config"
	"github.com/hyperjump/ruiji/internal/corpus"
)

// Server is the HTTP server for the Ruiji API.
type Server struct {
	engine *corpus.Engine
	config *config.ServerConfig
	logger *zap.Logger
	server *http.Server
	// fullConfig, when set, lets the status endpoint report configuration and
	// disk usage.
	fullConfig *config.Config
}

// NewServer creates a server with the given dependencies. fullConfig may be nil.
func NewServer(
	engine *corpus.Engine,
	cfg *config.ServerConfig,
	logger *zap.Logger,
	fullConfig *config.Config,
) *Server {
	return &Server{
		engine:     engine,
		config:     cfg,
		logger:     logger,
		fullConfig: fullConfig,
	}
}

// Router builds the chi router with all API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/corpus", s.handleAppend)
	r.Get("/api/v1/corpus", s.handleList)
	r.Get("/api/v1/corpus/{id}", s.handleGet)
	r.Post("/api/v1/corpus/similar", s.handleSimilar)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
