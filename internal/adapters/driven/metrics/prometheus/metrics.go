// Package prometheus implements driven.Metrics with client_golang collectors.
package prometheus

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/codex-cli/internal/core/ports/driven"
)

// Ensure Metrics implements the interface.
var _ driven.Metrics = (*Metrics)(nil)

const namespace = "codex"

// Metrics holds the collectors for the query and ingest paths.
type Metrics struct {
	registry *prom.Registry

	retrievalLatency prom.Histogram
	retrievalResults prom.Histogram
	generation       *prom.HistogramVec
	generationErrors *prom.CounterVec
	fallbacks        *prom.CounterVec
	ingested         *prom.CounterVec
	busy             prom.Counter
}

// New creates the collectors and registers them on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prom.NewRegistry(),
		retrievalLatency: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_duration_seconds",
			Help:      "Time spent embedding a query and searching the index.",
			Buckets:   prom.ExponentialBuckets(0.001, 2, 12),
		}),
		retrievalResults: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_results",
			Help:      "Number of chunks returned per retrieval.",
			Buckets:   prom.LinearBuckets(0, 2, 10),
		}),
		generation: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Time spent in a generation call.",
			Buckets:   prom.ExponentialBuckets(0.05, 2, 12),
		}, []string{"model"}),
		generationErrors: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "generation_errors_total",
			Help:      "Generation calls that failed.",
		}, []string{"model"}),
		fallbacks: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "fallback_answers_total",
			Help:      "Answers produced without the primary generator.",
		}, []string{"reason"}),
		ingested: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "ingested_documents_total",
			Help:      "Documents processed by ingestion.",
		}, []string{"status"}),
		busy: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "busy_rejections_total",
			Help:      "Queries rejected while another was in flight.",
		}),
	}
	m.registry.MustRegister(
		m.retrievalLatency,
		m.retrievalResults,
		m.generation,
		m.generationErrors,
		m.fallbacks,
		m.ingested,
		m.busy,
		collectors.NewGoCollector(),
	)
	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prom.Registry {
	return m.registry
}

// Handler returns an HTTP handler serving the registry in exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRetrieval records a retrieval's latency and result count.
func (m *Metrics) ObserveRetrieval(d time.Duration, results int) {
	m.retrievalLatency.Observe(d.Seconds())
	m.retrievalResults.Observe(float64(results))
}

// ObserveGeneration records a generation call's latency by model.
func (m *Metrics) ObserveGeneration(model string, d time.Duration, err error) {
	m.generation.WithLabelValues(model).Observe(d.Seconds())
	if err != nil {
		m.generationErrors.WithLabelValues(model).Inc()
	}
}

// IncFallback counts an answer produced without the primary generator.
func (m *Metrics) IncFallback(reason string) {
	m.fallbacks.WithLabelValues(reason).Inc()
}

// IncIngest counts a document ingestion outcome.
func (m *Metrics) IncIngest(status string) {
	m.ingested.WithLabelValues(status).Inc()
}

// IncBusy counts a query rejected because another was in flight.
func (m *Metrics) IncBusy() {
	m.busy.Inc()
}
