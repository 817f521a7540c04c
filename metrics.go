package snowql

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors this package publishes.
// Callers register them once with their own registry via
// Metrics.MustRegister; a process that never calls that still runs
// fine, the collectors simply go unobserved.
type Metrics struct {
	SubmitCount       *prometheus.CounterVec
	SubmitRetryCount  prometheus.Counter
	PollIterations    prometheus.Histogram
	ChunkDownloadSecs *prometheus.HistogramVec
	ChunkBytes        prometheus.Counter
}

// NewMetrics constructs a fresh, unregistered Metrics instance.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		SubmitCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_submit_total",
			Help:      "Number of query submissions, labeled by outcome.",
		}, []string{"outcome"}),
		SubmitRetryCount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_submit_retry_total",
			Help:      "Number of submission retries due to HTTP 503.",
		}),
		PollIterations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_poll_iterations",
			Help:      "Number of poll iterations an async query took to reach a terminal status.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		ChunkDownloadSecs: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chunk_download_seconds",
			Help:      "Wall time to download and decode one result chunk.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"format"}),
		ChunkBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunk_bytes_total",
			Help:      "Total uncompressed bytes downloaded across all chunks.",
		}),
	}
}

// MustRegister registers every collector with r.
func (m *Metrics) MustRegister(r prometheus.Registerer) {
	r.MustRegister(m.SubmitCount, m.SubmitRetryCount, m.PollIterations, m.ChunkDownloadSecs, m.ChunkBytes)
}

// noopMetrics is used when a Session is constructed without an
// explicit Metrics, so call sites never need a nil check.
func noopMetrics() *Metrics {
	m := NewMetrics("snowql")
	return m
}
