// Package metrics exposes Prometheus collectors for summarize activity.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder holds the collectors. It satisfies the observer interfaces of
// the flatten, llm and assistant packages.
type Recorder struct {
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	nodes       prometheus.Counter
	annotations prometheus.Counter
	gatherer    prometheus.Gatherer
}

// New registers the collectors on a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry registers the collectors on reg and serves them from g.
func NewWithRegistry(reg prometheus.Registerer, g prometheus.Gatherer) *Recorder {
	r := &Recorder{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bpassist_requests_total",
				Help: "Completed generation requests by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bpassist_request_duration_seconds",
				Help:    "Duration of generation requests",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"provider"},
		),
		nodes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bpassist_nodes_flattened_total",
			Help: "Graph nodes flattened into prompt text",
		}),
		annotations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bpassist_annotations_total",
			Help: "Annotations written back to graph documents",
		}),
		gatherer: g,
	}
	reg.MustRegister(r.requests, r.duration, r.nodes, r.annotations)
	return r
}

// RequestCompleted records one finished generation request.
func (r *Recorder) RequestCompleted(provider, outcome string, elapsed time.Duration) {
	r.requests.WithLabelValues(provider, outcome).Inc()
	r.duration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// NodesFlattened adds n to the flattened node counter.
func (r *Recorder) NodesFlattened(n int) {
	r.nodes.Add(float64(n))
}

// AnnotationWritten counts one annotation.
func (r *Recorder) AnnotationWritten() {
	r.annotations.Inc()
}

// Handler serves the collectors in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}

// FormatDuration renders elapsed as seconds with millisecond precision, as
// shown next to results in the CLI.
func FormatDuration(elapsed time.Duration) string {
	return strconv.FormatFloat(elapsed.Seconds(), 'f', 3, 64) + "s"
}
