package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Kevinjil/stack-share-to-ftp/pkg/stack"
)

// stackMetrics is the Prometheus implementation of the stack.Metrics
// interface.
//
// This implementation collects metrics about remote share requests:
//   - Request counts per operation (login, list, download, upload)
//   - Request latency
//   - Bytes transferred
//   - Error rates
type stackMetrics struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	bytesTransferred *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
}

// NewStackMetrics creates a new Prometheus-backed stack.Metrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called), which
// causes the stack client to use its built-in no-op implementation.
func NewStackMetrics() stack.Metrics {
	if !IsEnabled() {
		return nil // stack client will use noopMetrics
	}

	reg := GetRegistry()

	return &stackMetrics{
		requestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "stackftp_stack_requests_total",
				Help: "Total number of remote share requests by operation and status",
			},
			[]string{"operation", "status"},
		),
		requestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "stackftp_stack_request_duration_seconds",
				Help: "Duration of remote share requests in seconds",
				Buckets: []float64{
					0.01,  // 10ms
					0.025, // 25ms
					0.05,  // 50ms
					0.1,   // 100ms
					0.25,  // 250ms
					0.5,   // 500ms
					1.0,   // 1s
					2.5,   // 2.5s
					5.0,   // 5s
					10.0,  // 10s
					30.0,  // 30s
					60.0,  // 1min
				},
			},
			[]string{"operation"},
		),
		bytesTransferred: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "stackftp_stack_bytes_transferred_total",
				Help: "Total payload bytes exchanged with the remote share",
			},
			[]string{"direction"}, // download or upload
		),
		errorsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "stackftp_stack_errors_total",
				Help: "Total number of remote share request errors by operation",
			},
			[]string{"operation"},
		),
	}
}

// ObserveRequest implements stack.Metrics.ObserveRequest
func (m *stackMetrics) ObserveRequest(operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
		m.errorsTotal.WithLabelValues(operation).Inc()
	}

	m.requestsTotal.WithLabelValues(operation, status).Inc()
	m.requestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordBytes implements stack.Metrics.RecordBytes
func (m *stackMetrics) RecordBytes(direction string, bytes int64) {
	m.bytesTransferred.WithLabelValues(direction).Add(float64(bytes))
}
