package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/me/modelrun/internal/config"
	"github.com/me/modelrun/internal/dataset"
	"github.com/me/modelrun/internal/registry"
	"github.com/me/modelrun/internal/runner"
	"github.com/me/modelrun/internal/store"
)

// Server is the modelrun REST API server.
type Server struct {
	router    chi.Router
	logger    *slog.Logger
	config    config.ServerConfig
	startTime time.Time
	store     store.Store
	datasets  *dataset.Accessor
	registry  *registry.Registry
	runner    *runner.Runner
}

// New creates a new Server with all routes registered.
func New(cfg config.ServerConfig, st store.Store, ds *dataset.Accessor, reg *registry.Registry, run *runner.Runner, logger *slog.Logger) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		logger:    logger.With("component", "server"),
		config:    cfg,
		startTime: time.Now(),
		store:     st,
		datasets:  ds,
		registry:  reg,
		runner:    run,
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))

	// API routes (JSON)
	r.Route("/api/v1", func(r chi.Router) {
		// Discovery and health are reachable without identity.
		r.Get("/", s.handleDiscovery)
		r.Get("/health", s.handleHealth)

		r.Group(func(r chi.Router) {
			r.Use(identityMiddleware(s.logger))

			r.Get("/models", s.handleListModels)
			r.Get("/regions", s.handleListRegions)

			r.Route("/runs", func(r chi.Router) {
				r.Post("/", s.handleSubmitRun)
				r.Get("/", s.handleListRuns)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/status", s.handleRunStatus)
					r.Get("/results", s.handleRunResults)
				})
			})
		})
	})
}
