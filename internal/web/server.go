// Package web provides the HTTP API for loading and filtering datasets.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/JonMunkholm/csvfilter/internal/config"
	"github.com/JonMunkholm/csvfilter/internal/core"
	"github.com/JonMunkholm/csvfilter/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP server for the dataset API.
type Server struct {
	catalog *core.Catalog
	loader  *core.Loader
	limiter *core.LoadLimiter
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server
}

// NewServer creates a Server serving datasets from catalog. Files are read
// with loader, at most cfg.Server.MaxConcurrentLoads at a time, and must live
// under cfg.Server.DataRoot.
func NewServer(catalog *core.Catalog, loader *core.Loader, cfg *config.Config) *Server {
	s := &Server{
		catalog: catalog,
		loader:  loader,
		limiter: core.NewLoadLimiter(cfg.Server.MaxConcurrentLoads, cfg.Server.LoadWaitTimeout),
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	s.server = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Compress(5))
	s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(middleware.SecurityHeaders)

	if s.cfg.Security.RateLimit > 0 {
		limiter := middleware.NewRateLimiter(s.cfg.Security.RateLimit, time.Minute)
		s.router.Use(limiter.Middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(s.cfg.Security))

		r.Get("/datasets", s.handleListDatasets)
		r.Post("/datasets", s.handleLoadDataset)
		r.Post("/datasets/upload", s.handleUploadDataset)
		r.Get("/datasets/{id}", s.handleGetDataset)
		r.Delete("/datasets/{id}", s.handleDeleteDataset)
		r.Get("/datasets/{id}/rows", s.handleFilterRows)
	})
}

// Start begins listening for HTTP requests. It returns http.ErrServerClosed
// once Shutdown has been called, even if Shutdown ran first.
func (s *Server) Start() error {
	slog.Info("starting server", "addr", s.server.Addr, "data_root", s.cfg.Server.DataRoot)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server and waits for in-flight loads.
// Start may not have been called yet.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	return s.limiter.WaitForDrain(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// writeJSON encodes v as JSON with the given status.
// Encoding errors are logged since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
