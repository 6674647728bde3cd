package metrics

import (
	"sync"
	"time"

	"github.com/auditforge/workspacefs/pkg/store/content"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// contentCollectors are registered once and shared by every backend; the
// backend name is a label.
type contentCollectors struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	bytesTransferred  *prometheus.CounterVec
}

var (
	contentOnce sync.Once
	contentCols *contentCollectors
)

func getContentCollectors() *contentCollectors {
	contentOnce.Do(func() {
		reg := GetRegistry()
		contentCols = &contentCollectors{
			operationsTotal: promauto.With(reg).NewCounterVec(
				prometheus.CounterOpts{
					Name: "workspacefs_content_operations_total",
					Help: "Total number of content store operations by backend, operation and status",
				},
				[]string{"backend", "operation", "status"},
			),
			operationDuration: promauto.With(reg).NewHistogramVec(
				prometheus.HistogramOpts{
					Name: "workspacefs_content_operation_duration_seconds",
					Help: "Duration of content store operations in seconds",
					Buckets: []float64{
						0.0001, // 100µs
						0.0005, // 500µs
						0.001,  // 1ms
						0.005,  // 5ms
						0.01,   // 10ms
						0.05,   // 50ms
						0.1,    // 100ms
						0.5,    // 500ms
						1.0,    // 1s
						5.0,    // 5s
					},
				},
				[]string{"backend", "operation"},
			),
			bytesTransferred: promauto.With(reg).NewCounterVec(
				prometheus.CounterOpts{
					Name: "workspacefs_content_bytes_total",
					Help: "Total bytes read from and written to the content store",
				},
				[]string{"backend", "operation"},
			),
		}
	})
	return contentCols
}

// contentMetrics is the Prometheus implementation of content.Metrics.
type contentMetrics struct {
	backend string
	cols    *contentCollectors
}

// NewContentMetrics creates Prometheus-backed content store metrics labelled
// with backend ("memory", "badger", "filesystem", "s3").
//
// Returns nil if metrics are not enabled (InitRegistry not called), which
// makes content.NewInstrumented use its built-in no-op implementation.
func NewContentMetrics(backend string) content.Metrics {
	if !IsEnabled() {
		return nil
	}
	return &contentMetrics{backend: backend, cols: getContentCollectors()}
}

func (m *contentMetrics) ObserveOperation(operation string, duration time.Duration, err error) {
	m.cols.operationsTotal.WithLabelValues(m.backend, operation, status(err)).Inc()
	m.cols.operationDuration.WithLabelValues(m.backend, operation).Observe(duration.Seconds())
}

func (m *contentMetrics) RecordBytes(operation string, bytes int64) {
	if bytes <= 0 {
		return
	}
	m.cols.bytesTransferred.WithLabelValues(m.backend, operation).Add(float64(bytes))
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
