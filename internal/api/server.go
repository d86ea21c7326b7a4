package api

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/dgallion1/docview/internal/config"
	"github.com/dgallion1/docview/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP server for the document viewer.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	page         *template.Template
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		page:         pageTemplate,
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
	r.Get("/", s.handlePage)
	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/nav", s.handleNav)
		r.Get("/documents", s.handleListDocuments)
		r.Get("/view", s.handleView)
		r.Post("/select", s.handleSelect)
		r.Post("/search", s.handleSearch)

		// Admin endpoints exist only when a key is configured.
		if s.cfg.DocviewAPIKey == "" {
			s.log.Warn("DOCVIEW_API_KEY not set, admin endpoints disabled")
			return
		}
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(s.cfg.DocviewAPIKey, s.log))

			r.Get("/stats/convert", s.handleConvertStats)
			r.Post("/admin/cache/purge", s.handleCachePurge)
		})
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
