package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the preprocessor's Prometheus metrics. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	RunsTotal         *prometheus.CounterVec
	RunDuration       prometheus.Histogram
	FilesSelected     prometheus.Gauge
	CompilationsTotal *prometheus.CounterVec
	CompileDuration   prometheus.Histogram
	WritesTotal       *prometheus.CounterVec
	CacheLookupsTotal *prometheus.CounterVec
	PublishTotal      *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cssprep_runs_total",
				Help: "Total number of preprocessing runs by terminal state",
			},
			[]string{"state"},
		),
		RunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cssprep_run_duration_seconds",
				Help:    "Preprocessing run duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		FilesSelected: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "cssprep_files_selected",
				Help: "Number of source files selected by the last run",
			},
		),
		CompilationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cssprep_compilations_total",
				Help: "Total number of per-file compilations",
			},
			[]string{"status"},
		),
		CompileDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cssprep_compile_duration_seconds",
				Help:    "Per-file compile duration in seconds",
				Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
		),
		WritesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cssprep_writes_total",
				Help: "Total number of artifact persist attempts by result",
			},
			[]string{"result"},
		),
		CacheLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cssprep_cache_lookups_total",
				Help: "Total number of parse cache lookups by result",
			},
			[]string{"result"},
		),
		PublishTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cssprep_publish_total",
				Help: "Total number of artifact uploads by status",
			},
			[]string{"status"},
		),
	}

	registry.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.FilesSelected,
		m.CompilationsTotal,
		m.CompileDuration,
		m.WritesTotal,
		m.CacheLookupsTotal,
		m.PublishTotal,
	)

	return m
}

// ObserveRun records a finished run
func (m *Metrics) ObserveRun(state string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(state).Inc()
	m.RunDuration.Observe(duration.Seconds())
}

// SetSelected records how many files the last run selected
func (m *Metrics) SetSelected(n int) {
	if m == nil {
		return
	}
	m.FilesSelected.Set(float64(n))
}

// ObserveCompile records one per-file compilation
func (m *Metrics) ObserveCompile(status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.CompilationsTotal.WithLabelValues(status).Inc()
	m.CompileDuration.Observe(duration.Seconds())
}

// IncWrite counts a persist attempt; result is "written" or "unchanged"
func (m *Metrics) IncWrite(result string) {
	if m == nil {
		return
	}
	m.WritesTotal.WithLabelValues(result).Inc()
}

// IncCache counts a cache lookup; result is "hit" or "miss"
func (m *Metrics) IncCache(result string) {
	if m == nil {
		return
	}
	m.CacheLookupsTotal.WithLabelValues(result).Inc()
}

// IncPublish counts an upload; status is "success" or "error"
func (m *Metrics) IncPublish(status string) {
	if m == nil {
		return
	}
	m.PublishTotal.WithLabelValues(status).Inc()
}

// WriteTextfile writes the gathered metrics in the node_exporter textfile
// format, for collection after a one-shot run
func WriteTextfile(path string, gatherer prometheus.Gatherer) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, gatherer); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
