package api

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/ignite/constituent-service/internal/config"
	"github.com/ignite/constituent-service/internal/export"
	"github.com/ignite/constituent-service/internal/service/constituent"
	"github.com/ignite/constituent-service/internal/storage"
	"github.com/redis/go-redis/v9"
)

// Deps are the collaborators the HTTP layer needs. DB, Redis and
// ExportStore are only used for health reporting and may be nil.
type Deps struct {
	DB           *sql.DB
	Redis        *redis.Client
	Constituents *constituent.Service
	Exports      *export.Service
	ExportStore  storage.Store
	Listing      config.ListingConfig
	CORS         config.CORSConfig
}

// Server represents the API server
type Server struct {
	config  config.ServerConfig
	handler http.Handler
	server  *http.Server
}

// NewServer creates a new API server
func NewServer(cfg config.ServerConfig, d Deps) *Server {
	metrics := NewMetrics()
	handlers := NewHandlers(d.Constituents, d.Exports, d.Listing, metrics)
	health := NewHealthChecker(d.DB, d.Redis, d.ExportStore)

	return &Server{
		config:  cfg,
		handler: SetupRoutes(handlers, health, metrics, d.CORS),
	}
}

// ListenAndServe starts the HTTP server on the configured address
func (s *Server) ListenAndServe() error {
	s.server = &http.Server{
		Addr:              s.config.Addr(),
		Handler:           s.handler,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		// CSV downloads stream the whole file.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler for testing
func (s *Server) Handler() http.Handler {
	return s.handler
}
