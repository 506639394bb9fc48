// Package api exposes the optional ops HTTP surface: health, Prometheus
// metrics, and a progress snapshot for the running scrape.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jfalgout/examdump/internal/progress/sinks"
)

// Server wires the ops routes to the progress store and metrics registry.
type Server struct {
	router    chi.Router
	snapshots *sinks.StoreSink
	logger    *zap.Logger
}

// NewServer constructs a Server. registry backs /metrics; snapshots backs
// /v1/progress.
func NewServer(registry *prometheus.Registry, snapshots *sinks.StoreSink, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{snapshots: snapshots, logger: logger}

	r := chi.NewRouter()
	r.Use(newHTTPMetrics(registry).middleware)
	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	r.Route("/v1", func(r chi.Router) {
		r.Get("/progress", s.getProgress)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getProgress(w http.ResponseWriter, _ *http.Request) {
	if s.snapshots == nil {
		s.writeJSON(w, http.StatusOK, sinks.Snapshot{})
		return
	}
	s.writeJSON(w, http.StatusOK, s.snapshots.Snapshot())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("write response failed", zap.Error(err))
	}
}
