package gateway

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tablemind/recall/internal/memory"
)

// Compile-time interface guard.
var _ memory.Recorder = (*Metrics)(nil)

// Metrics implements memory.Recorder on top of Prometheus counters, so
// every storage decision the engine makes is visible on /metrics.
type Metrics struct {
	registry *prometheus.Registry

	factsStored        prometheus.Counter
	factsForgotten     prometheus.Counter
	privacyRejected    prometheus.Counter
	dedupSkipped       prometheus.Counter
	extractionFailures prometheus.Counter
}

// NewMetrics creates a Metrics with its own registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		factsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "recall_facts_stored_total",
			Help: "Facts persisted to the store.",
		}),
		factsForgotten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "recall_facts_forgotten_total",
			Help: "Facts removed by forget requests.",
		}),
		privacyRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "recall_privacy_rejected_total",
			Help: "Fact candidates rejected by the privacy gate.",
		}),
		dedupSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "recall_dedup_skipped_total",
			Help: "Fact candidates skipped as duplicates.",
		}),
		extractionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "recall_extraction_failures_total",
			Help: "Turns where fact extraction failed.",
		}),
	}

	m.registry.MustRegister(
		m.factsStored,
		m.factsForgotten,
		m.privacyRejected,
		m.dedupSkipped,
		m.extractionFailures,
	)
	return m
}

// FactStored implements memory.Recorder.
func (m *Metrics) FactStored() { m.factsStored.Inc() }

// FactsForgotten implements memory.Recorder.
func (m *Metrics) FactsForgotten(n int) { m.factsForgotten.Add(float64(n)) }

// PrivacyRejected implements memory.Recorder.
func (m *Metrics) PrivacyRejected() { m.privacyRejected.Inc() }

// DedupSkipped implements memory.Recorder.
func (m *Metrics) DedupSkipped() { m.dedupSkipped.Inc() }

// ExtractionFailed implements memory.Recorder.
func (m *Metrics) ExtractionFailed() { m.extractionFailures.Inc() }

// Handler returns the /metrics HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
