package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/shikhar5647/scene-graph-agent/internal/config"
	"github.com/shikhar5647/scene-graph-agent/internal/llm"
	"github.com/shikhar5647/scene-graph-agent/internal/pipeline"
	"github.com/shikhar5647/scene-graph-agent/internal/taxonomy"
)

// Server is the HTTP API for the scene-graph extraction service.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	runner       *pipeline.Runner
	llm          *llm.Client
	reg          *taxonomy.Registry
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. The runner serves the
// synchronous extract endpoint; async submissions go through the
// orchestrator's queue.
func NewServer(orch *pipeline.Orchestrator, runner *pipeline.Runner, llmClient *llm.Client, reg *taxonomy.Registry, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		runner:       runner,
		llm:          llmClient,
		reg:          reg,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// API endpoints; Bearer auth only when a key is configured.
	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		r.Post("/api/extract", s.handleExtract)
		r.Post("/api/extract/async", s.handleExtractAsync)

		r.Get("/api/runs/{runID}", s.handleRunStatus)
		r.Delete("/api/runs/{runID}", s.handleRunCancel)
		r.Get("/api/runs/{runID}/matrix.csv", s.handleMatrixCSV)
		r.Get("/api/runs/{runID}/matrix.xlsx", s.handleMatrixXLSX)
		r.Get("/api/runs/{runID}/metadata.json", s.handleRunMetadata)

		r.Get("/api/taxonomy", s.handleTaxonomy)
		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
