// Package metrics instruments an extraction run with Prometheus
// collectors. Each run owns its registry; the CLI can expose it over HTTP
// for long-running extractions.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors for one extraction run.
type Metrics struct {
	registry *prometheus.Registry

	NodesStaged   *prometheus.CounterVec
	NodesImported *prometheus.CounterVec
	EdgesImported *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec
	FilesWritten  prometheus.Counter
}

// New creates a Metrics with a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		NodesStaged: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "refgraph_nodes_staged_total",
			Help: "Identifiers staged into the run-scoped staging table, by tier.",
		}, []string{"tier"}),
		NodesImported: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "refgraph_nodes_imported_total",
			Help: "Nodes added to the in-memory graph, by tier.",
		}, []string{"tier"}),
		EdgesImported: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "refgraph_edges_imported_total",
			Help: "Edges added to the in-memory graph, by category.",
		}, []string{"category"}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "refgraph_stage_duration_seconds",
			Help:    "Wall time per extraction stage.",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		}, []string{"stage"}),
		FilesWritten: factory.NewCounter(prometheus.CounterOpts{
			Name: "refgraph_output_files_written_total",
			Help: "Output files written on successful runs.",
		}),
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler serving the run's metrics on /metrics.
func (m *Metrics) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	return mux
}
