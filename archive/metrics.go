package archive

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Document outcomes used as the "result" label.
const (
	resultCreated = "created"
	resultUpdated = "updated"
	resultFailed  = "failed"
	resultSkipped = "skipped"
	resultParsed  = "parsed"
)

// Metrics holds the collectors of one import run. Each Driver owns its own
// registry so runs never share state.
type Metrics struct {
	registry *prometheus.Registry

	DocumentsTotal   *prometheus.CounterVec
	DocumentDuration prometheus.Histogram
	BooksDated       prometheus.Counter
	LastRunTimestamp prometheus.Gauge
	LastRunDuration  prometheus.Gauge
}

// NewMetrics creates and registers the run collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		DocumentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bepress_import_documents_total",
				Help: "Documents handled by the importer, by result.",
			},
			[]string{"export", "result"},
		),
		DocumentDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bepress_import_document_duration_seconds",
				Help:    "Time spent reconciling one document.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),
		BooksDated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "bepress_import_books_dated_total",
				Help: "Books whose publish date was derived from their chapters.",
			},
		),
		LastRunTimestamp: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "bepress_import_last_run_timestamp_seconds",
				Help: "Unix time the last import run finished.",
			},
		),
		LastRunDuration: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "bepress_import_last_run_duration_seconds",
				Help: "Wall time of the last import run.",
			},
		),
	}

	m.registry.MustRegister(
		m.DocumentsTotal,
		m.DocumentDuration,
		m.BooksDated,
		m.LastRunTimestamp,
		m.LastRunDuration,
	)
	return m
}

func (m *Metrics) observe(export, result string, took time.Duration) {
	m.DocumentsTotal.WithLabelValues(export, result).Inc()
	if result != resultSkipped {
		m.DocumentDuration.Observe(took.Seconds())
	}
}

func (m *Metrics) finish(took time.Duration, now time.Time) {
	m.LastRunDuration.Set(took.Seconds())
	m.LastRunTimestamp.Set(float64(now.Unix()))
}

// Registry exposes the collectors for scraping or tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the collectors in the node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
