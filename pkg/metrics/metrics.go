// Package metrics exposes pipeline statistics as Prometheus metrics that
// are written to a node-exporter textfile after each command.
package metrics

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors of one process. Each instance owns its
// registry so tests can create as many as they like.
type Metrics struct {
	registry  *prometheus.Registry
	queries   *prometheus.GaugeVec
	documents *prometheus.GaugeVec
	checks    *prometheus.CounterVec
	duration  *prometheus.GaugeVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		queries: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bears_queries",
				Help: "Number of sampled queries per source dataset.",
			},
			[]string{"source"},
		),
		documents: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bears_corpus_documents",
				Help: "Number of corpus documents per kind (gold, hard_negative, random_negative).",
			},
			[]string{"kind"},
		),
		checks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bears_verify_checks_total",
				Help: "Verification checks by generation and status.",
			},
			[]string{"generation", "status"},
		),
		duration: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bears_command_duration_seconds",
				Help: "Wall time of the last command run.",
			},
			[]string{"command"},
		),
	}
}

func (m *Metrics) SetQueries(source string, n int) {
	m.queries.WithLabelValues(source).Set(float64(n))
}

func (m *Metrics) SetDocuments(kind string, n int) {
	m.documents.WithLabelValues(kind).Set(float64(n))
}

func (m *Metrics) CountCheck(generation, status string) {
	m.checks.WithLabelValues(generation, status).Inc()
}

func (m *Metrics) ObserveDuration(command string, d time.Duration) {
	m.duration.WithLabelValues(command).Set(d.Seconds())
}

// Gatherer returns the registry backing m
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteFile writes all metrics in the text exposition format
func (m *Metrics) WriteFile(filename string) error {
	if err := prometheus.WriteToTextfile(filename, m.registry); err != nil {
		return goerr.Wrap(err, "failed to write metrics file", goerr.V("file", filename))
	}
	return nil
}
