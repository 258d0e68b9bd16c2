// Package telemetry holds the Prometheus collectors for chunkgraph
// operations. Each Metrics owns its registry so tests and parallel services
// never share counters.
package telemetry

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "chunkgraph"

// Outcome label values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics is the set of collectors recorded by the analysis service.
type Metrics struct {
	registry *prometheus.Registry

	operations    *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	snapshotEdges prometheus.Gauge
	ingestedEdges prometheus.Counter
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Operations served, by operation and outcome.",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Operation latency including the store snapshot.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"operation"}),
		snapshotEdges: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_edges",
			Help:      "Edge count of the most recent graph snapshot.",
		}),
		ingestedEdges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingested_edges_total",
			Help:      "Directed edges written by ingestion.",
		}),
	}
	m.registry.MustRegister(m.operations, m.duration, m.snapshotEdges, m.ingestedEdges)
	return m
}

// Registry exposes the underlying registry for scraping or dumping.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Observe records one finished operation. A nil receiver is a no-op.
func (m *Metrics) Observe(operation string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
	m.duration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// SetSnapshotEdges records the size of the snapshot a query ran against.
func (m *Metrics) SetSnapshotEdges(n int) {
	if m == nil {
		return
	}
	m.snapshotEdges.Set(float64(n))
}

// AddIngestedEdges counts edges written by an ingest call.
func (m *Metrics) AddIngestedEdges(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ingestedEdges.Add(float64(n))
}

// WriteTextfile dumps the registry in the node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
