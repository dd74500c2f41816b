// Package metrics exposes Prometheus collectors for pipeline runs and
// indicator fetches.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "popstat"

// Metrics holds every collector of the service on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	PipelineRuns     *prometheus.CounterVec
	PipelineDuration *prometheus.HistogramVec
	PipelineRecords  *prometheus.HistogramVec
	RowsDropped      *prometheus.CounterVec
	ActiveRuns       prometheus.Gauge

	IndicatorFetches  *prometheus.CounterVec
	IndicatorDuration prometheus.Histogram
}

// New creates the collectors and registers them, together with the Go and
// process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		PipelineRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "runs_total",
				Help:      "Total number of pipeline runs by outcome",
			},
			[]string{"variant", "outcome"},
		),

		PipelineDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "duration_seconds",
				Help:      "Pipeline run duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"variant"},
		),

		PipelineRecords: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "records",
				Help:      "Normalized records produced per run",
				Buckets:   prometheus.ExponentialBuckets(10, 4, 8),
			},
			[]string{"variant"},
		),

		RowsDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "rows_dropped_total",
				Help:      "Rows dropped by the loader and the row filter, by reason",
			},
			[]string{"variant", "reason"},
		),

		ActiveRuns: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "active_runs",
				Help:      "Pipeline runs currently in progress",
			},
		),

		IndicatorFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "indicator",
				Name:      "fetches_total",
				Help:      "Total number of indicator fetches by outcome",
			},
			[]string{"outcome"},
		),

		IndicatorDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "indicator",
				Name:      "duration_seconds",
				Help:      "Indicator fetch duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.PipelineRuns,
		m.PipelineDuration,
		m.PipelineRecords,
		m.RowsDropped,
		m.ActiveRuns,
		m.IndicatorFetches,
		m.IndicatorDuration,
	)
	return m
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the /metrics HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// ObservePipelineRun records one finished pipeline run.
func (m *Metrics) ObservePipelineRun(variant, outcome string, d time.Duration, records int) {
	m.PipelineRuns.WithLabelValues(variant, outcome).Inc()
	m.PipelineDuration.WithLabelValues(variant).Observe(d.Seconds())
	if outcome == "ok" {
		m.PipelineRecords.WithLabelValues(variant).Observe(float64(records))
	}
}

// ObserveRowsDropped adds n dropped rows for reason.
func (m *Metrics) ObserveRowsDropped(variant, reason string, n int) {
	if n <= 0 {
		return
	}
	m.RowsDropped.WithLabelValues(variant, reason).Add(float64(n))
}

// SetActiveRuns updates the active run gauge.
func (m *Metrics) SetActiveRuns(n int) {
	m.ActiveRuns.Set(float64(n))
}

// ObserveIndicatorFetch records one indicator fetch.
func (m *Metrics) ObserveIndicatorFetch(outcome string, d time.Duration) {
	m.IndicatorFetches.WithLabelValues(outcome).Inc()
	m.IndicatorDuration.Observe(d.Seconds())
}
