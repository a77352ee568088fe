package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// rainfall pipeline.
type Metrics struct {
	RunsTotal       *prometheus.CounterVec // labels: mode={latest,historical}, outcome={success,error}
	ReadingsFetched prometheus.Counter
	ReadingsDropped prometheus.Counter
	RecordsAdded    prometheus.Counter
	RecordsUpdated  prometheus.Counter
	EmptyFetches    prometheus.Counter

	SeriesRecords  prometheus.Gauge
	LastSuccessRun prometheus.Gauge
	RunDuration    prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RunsTotal,
		m.ReadingsFetched,
		m.ReadingsDropped,
		m.RecordsAdded,
		m.RecordsUpdated,
		m.EmptyFetches,
		m.SeriesRecords,
		m.LastSuccessRun,
		m.RunDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "track_status",
			Name:      "pipeline_runs_total",
			Help:      "Pipeline runs by mode and outcome.",
		}, []string{"mode", "outcome"}),
		ReadingsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "track_status",
			Name:      "readings_fetched_total",
			Help:      "Raw readings returned by the upstream API.",
		}),
		ReadingsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "track_status",
			Name:      "readings_dropped_total",
			Help:      "Readings dropped because their timestamp or value failed to parse.",
		}),
		RecordsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "track_status",
			Name:      "records_added_total",
			Help:      "Daily records newly inserted into the stored series.",
		}),
		RecordsUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "track_status",
			Name:      "records_updated_total",
			Help:      "Stored daily records overwritten by upstream revisions.",
		}),
		EmptyFetches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "track_status",
			Name:      "empty_fetches_total",
			Help:      "Runs whose fetch window contained no readings.",
		}),
		SeriesRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "track_status",
			Name:      "series_records",
			Help:      "Daily records in the persisted series after the last run.",
		}),
		LastSuccessRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "track_status",
			Name:      "last_successful_run_timestamp_seconds",
			Help:      "Unix time of the last successful pipeline run.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "track_status",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete fetch-aggregate-merge-persist run.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
	}
}
