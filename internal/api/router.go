package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/chargemap-core/internal/infrastructure/metrics"
	"github.com/nerrad567/chargemap-core/internal/mapui"
)

// defaultWSPath is used when the websocket config leaves the path empty.
const defaultWSPath = "/api/ws"

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeNotFound(w, msgRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllow)
	})

	// Browser map client (embedded via go:embed)
	r.Handle("/map/*", http.StripPrefix("/map", mapui.Handler(s.cfg.UIDir)))
	r.Handle("/map", http.RedirectHandler("/map/", http.StatusMovedPermanently))

	// Prometheus scrape endpoint
	if s.gatherer != nil {
		r.Handle("/metrics", metrics.Handler(s.gatherer))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)

		r.Route("/devices", func(r chi.Router) {
			r.Get("/", s.handleListDevices)
			r.Post("/", s.handleCreateDevice)
			r.Get("/stats", s.handleDeviceStats)
			r.Get("/search", s.handleSearchDevices)
			r.Get("/{id}", s.handleGetDevice)
		})
	})

	wsPath := s.wsCfg.Path
	if wsPath == "" {
		wsPath = defaultWSPath
	}
	r.Get(wsPath, s.handleWebSocket)

	return r
}

// Handler returns the fully wired HTTP handler without starting a listener.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
