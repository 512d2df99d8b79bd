// Package http exposes the dashboard API plus the operational endpoints
// (health, readiness, Prometheus metrics) over a stdlib mux.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hydrowatch/groundwater-insight/internal/cache"
	"github.com/hydrowatch/groundwater-insight/internal/ingest"
	"github.com/hydrowatch/groundwater-insight/internal/observability"
	"github.com/hydrowatch/groundwater-insight/internal/store"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Server exposes the dashboard API and the operational endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger

	store         *store.Store
	memo          *cache.Memo
	metrics       *observability.Metrics
	transformer   ingest.RecordTransformer
	loader        ingest.BatchLoader
	batchSize     int
	forecastYears int
}

// NewServer wires the API routes. The memo cache holds aggregate query
// results and must be invalidated by the store's mutation hook, which main
// sets up.
func NewServer(
	addr string,
	ready ReadinessChecker,
	s *store.Store,
	memo *cache.Memo,
	transformer ingest.RecordTransformer,
	loader ingest.BatchLoader,
	batchSize int,
	forecastYears int,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Server {
	mux := http.NewServeMux()

	srv := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger:        logger,
		store:         s,
		memo:          memo,
		metrics:       metrics,
		transformer:   transformer,
		loader:        loader,
		batchSize:     batchSize,
		forecastYears: forecastYears,
	}

	mux.HandleFunc("GET /healthz", srv.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/v1/locations", srv.instrument("locations", srv.handleLocations))
	mux.HandleFunc("GET /api/v1/locations/{name}", srv.instrument("location_detail", srv.handleLocationDetail))
	mux.HandleFunc("GET /api/v1/locations/{name}/trends", srv.instrument("location_trends", srv.handleLocationTrends))
	mux.HandleFunc("GET /api/v1/locations/{name}/alerts", srv.instrument("location_alerts", srv.handleLocationAlerts))
	mux.HandleFunc("GET /api/v1/locations/{name}/forecast", srv.instrument("location_forecast", srv.handleLocationForecast))
	mux.HandleFunc("GET /api/v1/alerts", srv.instrument("alerts", srv.handleAlerts))
	mux.HandleFunc("GET /api/v1/rankings", srv.instrument("rankings", srv.handleRankings))
	mux.HandleFunc("GET /api/v1/district/stats", srv.instrument("district_stats", srv.handleDistrictStats))
	mux.HandleFunc("GET /api/v1/heatmap", srv.instrument("heatmap", srv.handleHeatmap))
	mux.HandleFunc("GET /api/v1/search", srv.instrument("search", srv.handleSearch))
	mux.HandleFunc("POST /api/v1/observations", srv.instrument("upload", srv.handleUpload))

	return srv
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
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// instrument counts requests per route and response status.
func (s *Server) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		s.metrics.APIRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// cached serves an aggregate query through the memo cache, recording hit and
// miss counts per query name.
func (s *Server) cached(query string, compute func() any) any {
	if v, ok := s.memo.Get(query); ok {
		s.metrics.CacheLookup.WithLabelValues(query, "hit").Inc()
		return v
	}
	s.metrics.CacheLookup.WithLabelValues(query, "miss").Inc()
	return s.memo.GetOr(query, compute)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
