// Package api exposes the platform over HTTP: dataset upload, schema
// mapping, and the analysis runs. JSON in, JSON out.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JungMoonYoung/auto-insight-platform/adapters/sqlite"
	"github.com/JungMoonYoung/auto-insight-platform/internal/config"
)

// Server wires the HTTP routes to the repositories and analyzers.
type Server struct {
	router   *chi.Mux
	cfg      *config.Config
	datasets *sqlite.DatasetRepository
	analyses *sqlite.AnalysisRepository
}

// NewServer builds the HTTP surface over the given repositories.
func NewServer(cfg *config.Config, datasets *sqlite.DatasetRepository, analyses *sqlite.AnalysisRepository) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		cfg:      cfg,
		datasets: datasets,
		analyses: analyses,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/datasets", s.handleDatasetUpload)
		r.Get("/datasets", s.handleDatasetList)
		r.Get("/datasets/{id}", s.handleDatasetGet)
		r.Delete("/datasets/{id}", s.handleDatasetDelete)

		r.Post("/datasets/{id}/preprocess", s.handlePreprocess)
		r.Post("/datasets/{id}/mapping", s.handleMapping)

		r.Post("/datasets/{id}/analyses", s.handleAnalysisRun)
		r.Get("/datasets/{id}/analyses", s.handleAnalysisList)
		r.Get("/analyses/{id}", s.handleAnalysisGet)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
