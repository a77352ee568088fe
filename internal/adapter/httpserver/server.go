// Package httpserver exposes the fetcher's operational surface in serve
// mode: liveness, run-based readiness, the last run's summary, and
// Prometheus metrics.
package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/CDonnerer/vp-track-status/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PipelineStatus is the view of the pipeline the server reports on: whether
// a run has completed yet, and what the most recent one did.
type PipelineStatus interface {
	CheckReadiness(ctx context.Context) error
	LastRun() (pipeline.RunStatus, bool)
}

// Server serves /healthz, /readyz, /status, and /metrics.
type Server struct {
	httpServer *http.Server
	pipe       PipelineStatus
	logger     *slog.Logger
}

// NewServer creates the status server for the given address.
func NewServer(addr string, pipe PipelineStatus, logger *slog.Logger) *Server {
	s := &Server{
		pipe:   pipe,
		logger: logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.Handle("GET /metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{Status: "healthy"})
}

// handleReady reports 200 once the pipeline has persisted at least one run,
// 503 before that — a fresh process with no series on disk yet should not be
// considered ready.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.pipe.CheckReadiness(ctx); err != nil {
		s.writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "not ready", Error: err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, healthResponse{Status: "ready"})
}

// handleStatus exposes what the last run actually did: the fetch window,
// reading and drop counts, and how the merge changed the stored series.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	last, ok := s.pipe.LastRun()
	if !ok {
		s.writeJSON(w, http.StatusServiceUnavailable, healthResponse{
			Status: "waiting",
			Error:  "no pipeline run has completed yet",
		})
		return
	}

	s.writeJSON(w, http.StatusOK, statusResponse{
		Mode:            string(last.Mode),
		Window:          last.Window.String(),
		Measures:        last.Measures,
		ReadingsFetched: last.ReadingsFetched,
		ReadingsDropped: last.ReadingsDropped,
		RecordsAdded:    last.RecordsAdded,
		RecordsUpdated:  last.RecordsUpdated,
		SeriesRecords:   last.SeriesRecords,
		CompletedAt:     last.CompletedAt,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("write response failed", "error", err)
	}
}

type healthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type statusResponse struct {
	Mode            string    `json:"mode"`
	Window          string    `json:"window"`
	Measures        int       `json:"measures"`
	ReadingsFetched int       `json:"readings_fetched"`
	ReadingsDropped int       `json:"readings_dropped"`
	RecordsAdded    int       `json:"records_added"`
	RecordsUpdated  int       `json:"records_updated"`
	SeriesRecords   int       `json:"series_records"`
	CompletedAt     time.Time `json:"completed_at"`
}
