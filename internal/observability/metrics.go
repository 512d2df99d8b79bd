package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// ingestion pipeline and the query API.
type Metrics struct {
	ObservationsIngested prometheus.Counter
	SeriesSynthesized    prometheus.Counter
	IngestErrors         prometheus.Counter
	PipelineRunning      prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Query API metrics.
	APIRequests *prometheus.CounterVec // labels: route, status
	CacheLookup *prometheus.CounterVec // labels: query, result={hit,miss}

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec   // labels: method={forward,reverse}, outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec   // labels: method={forward,reverse}, result={hit,miss}
	GeocodeAPIDuration *prometheus.HistogramVec // labels: method={forward,reverse}
	GeocodeEnabled     prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		ObservationsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "groundwater",
			Name:      "observations_ingested_total",
			Help:      "Total observation records accepted into the store.",
		}),
		SeriesSynthesized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "groundwater",
			Name:      "series_synthesized_total",
			Help:      "Total historical observations synthesized from base readings.",
		}),
		IngestErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "groundwater",
			Name:      "ingest_errors_total",
			Help:      "Total records rejected during parsing or transformation.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "groundwater",
			Name:      "pipeline_running",
			Help:      "1 when the ingestion pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "groundwater",
			Name:      "batch_size",
			Help:      "Number of records per ingested batch.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "groundwater",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-transform-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		APIRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "groundwater",
			Name:      "api_requests_total",
			Help:      "Dashboard API requests by route and response status.",
		}, []string{"route", "status"}),
		CacheLookup: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "groundwater",
			Name:      "aggregate_cache_total",
			Help:      "Aggregate query cache lookups by query and result.",
		}, []string{"query", "result"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "groundwater",
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by method and outcome.",
		}, []string{"method", "outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "groundwater",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by method and result.",
		}, []string{"method", "result"}),
		GeocodeAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "groundwater",
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method"}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "groundwater",
			Name:      "geocode_enabled",
			Help:      "1 when geocoding enrichment is enabled, 0 otherwise.",
		}),
	}

	prometheus.MustRegister(
		m.ObservationsIngested,
		m.SeriesSynthesized,
		m.IngestErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.APIRequests,
		m.CacheLookup,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		ObservationsIngested:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "groundwater", Name: "observations_ingested_total"}),
		SeriesSynthesized:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "groundwater", Name: "series_synthesized_total"}),
		IngestErrors:            prometheus.NewCounter(prometheus.CounterOpts{Namespace: "groundwater", Name: "ingest_errors_total"}),
		PipelineRunning:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "groundwater", Name: "pipeline_running"}),
		BatchSize:               prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "groundwater", Name: "batch_size"}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "groundwater", Name: "batch_processing_duration_seconds"}),
		APIRequests:             prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "groundwater", Name: "api_requests_total"}, []string{"route", "status"}),
		CacheLookup:             prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "groundwater", Name: "aggregate_cache_total"}, []string{"query", "result"}),
		GeocodeRequests:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "groundwater", Name: "geocode_requests_total"}, []string{"method", "outcome"}),
		GeocodeCache:            prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "groundwater", Name: "geocode_cache_total"}, []string{"method", "result"}),
		GeocodeAPIDuration:      prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "groundwater", Name: "geocode_api_duration_seconds"}, []string{"method"}),
		GeocodeEnabled:          prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "groundwater", Name: "geocode_enabled"}),
	}
}
