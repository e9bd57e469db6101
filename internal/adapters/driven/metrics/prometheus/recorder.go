// Package prometheus records pipeline metrics with the Prometheus client.
package prometheus

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/gapfinder-cli/internal/core/ports/driven"
)

// Ensure Recorder implements the interface.
var _ driven.MetricsRecorder = (*Recorder)(nil)

// Namespace prefixes every metric name.
const Namespace = "gapfinder"

// Recorder owns a private registry so several recorders can coexist in tests.
type Recorder struct {
	registry  *prometheus.Registry
	documents *prometheus.CounterVec
	calls     *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	gaps      *prometheus.CounterVec
}

// NewRecorder creates a recorder with Go and process collectors registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "documents_processed_total",
			Help:      "Documents analysed, by outcome.",
		}, []string{"outcome"}),
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "classify_calls_total",
			Help:      "Backend classification calls, by backend and outcome.",
		}, []string{"backend", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "classify_duration_seconds",
			Help:      "Latency of backend classification calls.",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"backend"}),
		gaps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "gaps_found_total",
			Help:      "Confirmed research gaps, by type.",
		}, []string{"gap_type"}),
	}

	r.registry.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{Namespace: Namespace}),
		r.documents, r.calls, r.latency, r.gaps,
	)
	return r
}

// DocumentProcessed counts a document by outcome.
func (r *Recorder) DocumentProcessed(outcome string) {
	r.documents.WithLabelValues(outcome).Inc()
}

// ClassifyCall counts a backend call and observes its latency.
func (r *Recorder) ClassifyCall(backend, outcome string, elapsed time.Duration) {
	r.calls.WithLabelValues(backend, outcome).Inc()
	r.latency.WithLabelValues(backend).Observe(elapsed.Seconds())
}

// GapsFound adds n gaps of the given type.
func (r *Recorder) GapsFound(gapType string, n int) {
	if n <= 0 {
		return
	}
	r.gaps.WithLabelValues(gapType).Add(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
