package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "disdro_l0"

// Metrics holds the Prometheus counters, histograms, and gauges for a conversion run.
type Metrics struct {
	Stations        *prometheus.CounterVec // labels: state={done,failed}
	StationFailures *prometheus.CounterVec // labels: stage, kind
	RunRunning      prometheus.Gauge

	// Stage metrics.
	StageDuration *prometheus.HistogramVec // labels: stage
	RowsWritten   prometheus.Counter

	// Data quality metrics.
	SkippedLines    prometheus.Counter
	ColumnFallbacks *prometheus.CounterVec // labels: column
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Stations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stations_total",
			Help:      "Stations that reached a terminal state, by state.",
		}, []string{"state"}),
		StationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "station_failures_total",
			Help:      "Station failures by failing stage and error kind.",
		}, []string{"stage", "kind"}),
		RunRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_running",
			Help:      "1 while a conversion run is in progress, 0 otherwise.",
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of a single station stage transition.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"stage"}),
		RowsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_written_total",
			Help:      "Rows written to tabular products.",
		}),
		SkippedLines: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skipped_lines_total",
			Help:      "Malformed raw lines skipped by adapters.",
		}),
		ColumnFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "column_fallbacks_total",
			Help:      "Schema columns kept as string after failed type coercion.",
		}, []string{"column"}),
	}

	prometheus.MustRegister(
		m.Stations,
		m.StationFailures,
		m.RunRunning,
		m.StageDuration,
		m.RowsWritten,
		m.SkippedLines,
		m.ColumnFallbacks,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		Stations:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "stations_total"}, []string{"state"}),
		StationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "station_failures_total"}, []string{"stage", "kind"}),
		RunRunning:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "run_running"}),
		StageDuration:   prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: namespace, Name: "stage_duration_seconds"}, []string{"stage"}),
		RowsWritten:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "rows_written_total"}),
		SkippedLines:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "skipped_lines_total"}),
		ColumnFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "column_fallbacks_total"}, []string{"column"}),
	}
}
