package metrics

import (
	"sync"
	"time"

	"github.com/auditforge/workspacefs/pkg/filesystem"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// filesystemMetrics is the Prometheus implementation of filesystem.Metrics.
type filesystemMetrics struct {
	mutationsTotal   *prometheus.CounterVec
	mutationDuration *prometheus.HistogramVec
	nodes            prometheus.Gauge
	persistTotal     *prometheus.CounterVec
	persistDuration  *prometheus.HistogramVec
	snapshotBytes    *prometheus.GaugeVec
}

var (
	filesystemOnce sync.Once
	fsMetrics      *filesystemMetrics
)

// NewFilesystemMetrics creates Prometheus-backed filesystem metrics.
//
// Returns nil if metrics are not enabled, in which case the filesystem uses
// its no-op implementation. Repeated calls return the same collectors.
func NewFilesystemMetrics() filesystem.Metrics {
	if !IsEnabled() {
		return nil
	}

	filesystemOnce.Do(func() {
		reg := GetRegistry()
		fsMetrics = &filesystemMetrics{
			mutationsTotal: promauto.With(reg).NewCounterVec(
				prometheus.CounterOpts{
					Name: "workspacefs_fs_mutations_total",
					Help: "Total number of tree mutations by operation and status",
				},
				[]string{"operation", "status"},
			),
			mutationDuration: promauto.With(reg).NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "workspacefs_fs_mutation_duration_seconds",
					Help:    "Duration of tree mutations in seconds",
					Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8), // 10µs to ~160ms
				},
				[]string{"operation"},
			),
			nodes: promauto.With(reg).NewGauge(
				prometheus.GaugeOpts{
					Name: "workspacefs_fs_nodes",
					Help: "Number of entries in the tree, root included",
				},
			),
			persistTotal: promauto.With(reg).NewCounterVec(
				prometheus.CounterOpts{
					Name: "workspacefs_snapshot_operations_total",
					Help: "Total number of snapshot loads and saves by status",
				},
				[]string{"operation", "status"},
			),
			persistDuration: promauto.With(reg).NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "workspacefs_snapshot_duration_seconds",
					Help:    "Duration of snapshot loads and saves in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"operation"},
			),
			snapshotBytes: promauto.With(reg).NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "workspacefs_snapshot_bytes",
					Help: "Size of the last loaded or saved snapshot",
				},
				[]string{"operation"},
			),
		}
	})
	return fsMetrics
}

func (m *filesystemMetrics) ObserveMutation(op string, duration time.Duration, err error) {
	m.mutationsTotal.WithLabelValues(op, status(err)).Inc()
	m.mutationDuration.WithLabelValues(op).Observe(duration.Seconds())
}

func (m *filesystemMetrics) SetNodeCount(n int) {
	m.nodes.Set(float64(n))
}

func (m *filesystemMetrics) ObservePersist(op string, bytes int, duration time.Duration, err error) {
	m.persistTotal.WithLabelValues(op, status(err)).Inc()
	m.persistDuration.WithLabelValues(op).Observe(duration.Seconds())
	if err == nil && bytes > 0 {
		m.snapshotBytes.WithLabelValues(op).Set(float64(bytes))
	}
}
