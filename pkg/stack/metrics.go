package stack

import (
	"io"
	"time"
)

// Metrics provides observability for share API operations.
//
// Implementations can collect metrics about request counts, latency and
// streamed bytes. This is optional - if not provided, metrics collection
// is skipped.
//
// Example implementations:
//   - Prometheus metrics (pkg/metrics)
//   - In-memory counters for testing
type Metrics interface {
	// ObserveRequest records a share API request with its duration and
	// outcome. Operation is one of "login", "list", "download", "upload".
	ObserveRequest(operation string, duration time.Duration, err error)

	// RecordBytes records payload bytes streamed for an operation.
	// Direction is "download" or "upload".
	RecordBytes(direction string, bytes int64)
}

// noopMetrics is the default no-op metrics implementation.
type noopMetrics struct{}

func (noopMetrics) ObserveRequest(operation string, duration time.Duration, err error) {}
func (noopMetrics) RecordBytes(direction string, bytes int64)                          {}

// countingReadCloser wraps a download stream to report streamed bytes on
// close.
type countingReadCloser struct {
	io.ReadCloser
	metrics   Metrics
	direction string
	bytes     int64
}

func (c *countingReadCloser) Read(p []byte) (n int, err error) {
	n, err = c.ReadCloser.Read(p)
	if n > 0 {
		c.bytes += int64(n)
	}
	return n, err
}

func (c *countingReadCloser) Close() error {
	err := c.ReadCloser.Close()
	if c.bytes > 0 {
		c.metrics.RecordBytes(c.direction, c.bytes)
	}
	return err
}
