package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// feature pipeline.
type Metrics struct {
	RowsConsumed    prometheus.Counter
	RowsProduced    prometheus.Counter
	TransformErrors prometheus.Counter
	PipelineRunning prometheus.Gauge

	// Dead-period cleaner metrics.
	DeadPeriodDays prometheus.Counter
	DeadPeriodRows prometheus.Counter

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RowsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bike_etl",
			Name:      "rows_consumed_total",
			Help:      "Total observation rows read from the source topic.",
		}),
		RowsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bike_etl",
			Name:      "rows_produced_total",
			Help:      "Total feature rows written to the sink topic.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bike_etl",
			Name:      "transform_errors_total",
			Help:      "Total rows skipped because they violated the input contract.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "bike_etl",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		DeadPeriodDays: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bike_etl",
			Name:      "dead_period_days_total",
			Help:      "Counter-days removed because every reading summed to zero.",
		}),
		DeadPeriodRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bike_etl",
			Name:      "dead_period_rows_total",
			Help:      "Observation rows dropped as part of dead counter-days.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bike_etl",
			Name:      "batch_size",
			Help:      "Number of rows per batch extracted from Kafka.",
			Buckets:   []float64{1, 10, 50, 100, 250, 500, 1000, 2500, 5000},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bike_etl",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-transform-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
	}

	prometheus.MustRegister(
		m.RowsConsumed,
		m.RowsProduced,
		m.TransformErrors,
		m.PipelineRunning,
		m.DeadPeriodDays,
		m.DeadPeriodRows,
		m.BatchSize,
		m.BatchProcessingDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, so tests can
// construct pipelines repeatedly without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RowsConsumed:            prometheus.NewCounter(prometheus.CounterOpts{Namespace: "bike_etl", Name: "rows_consumed_total"}),
		RowsProduced:            prometheus.NewCounter(prometheus.CounterOpts{Namespace: "bike_etl", Name: "rows_produced_total"}),
		TransformErrors:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "bike_etl", Name: "transform_errors_total"}),
		PipelineRunning:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "bike_etl", Name: "pipeline_running"}),
		DeadPeriodDays:          prometheus.NewCounter(prometheus.CounterOpts{Namespace: "bike_etl", Name: "dead_period_days_total"}),
		DeadPeriodRows:          prometheus.NewCounter(prometheus.CounterOpts{Namespace: "bike_etl", Name: "dead_period_rows_total"}),
		BatchSize:               prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "bike_etl", Name: "batch_size"}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "bike_etl", Name: "batch_processing_duration_seconds"}),
	}
}
