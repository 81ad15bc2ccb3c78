// Package metrics provides observability for the retrieval module.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks indexing volume and retrieval latency per execution path.
type Metrics struct {
	ChunksIndexed prometheus.Counter

	// Retrieval latencies by path: "native" or "fallback"
	RetrieveLatency *prometheus.HistogramVec

	IndexLatency prometheus.Histogram
}

// New creates a new Metrics instance with all retrieval module metrics registered.
func New() *Metrics {
	return &Metrics{
		ChunksIndexed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "brandgov_retrieval_chunks_indexed_total",
			Help: "Total number of manual chunks embedded and stored",
		}),
		RetrieveLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "brandgov_retrieval_retrieve_duration_seconds",
			Help:    "Duration of scoped nearest-neighbor retrievals by execution path",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"path"}),
		IndexLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "brandgov_retrieval_index_duration_seconds",
			Help:    "Duration of manual indexing including embedding calls",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
}

// IncrementChunksIndexed records stored chunks.
func (m *Metrics) IncrementChunksIndexed(n int) {
	if m != nil {
		m.ChunksIndexed.Add(float64(n))
	}
}

// ObserveRetrieve records the duration of a retrieval on the given path.
func (m *Metrics) ObserveRetrieve(path string, d time.Duration) {
	if m != nil {
		m.RetrieveLatency.WithLabelValues(path).Observe(d.Seconds())
	}
}

// ObserveIndex records the duration of an indexing run.
func (m *Metrics) ObserveIndex(d time.Duration) {
	if m != nil {
		m.IndexLatency.Observe(d.Seconds())
	}
}
