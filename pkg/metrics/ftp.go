package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// FTPMetrics provides observability for FTP adapter operations.
//
// Implementations can collect metrics about logins, command dispatch,
// transfer throughput, and session lifecycle. This interface is optional -
// if metrics are disabled, a no-op implementation is used with zero
// overhead.
//
// Example usage:
//
//	// With metrics enabled
//	metrics.InitRegistry()
//	adapter := ftp.New(config, sessions, metrics.NewFTPMetrics())
//
//	// Without metrics (no-op)
//	adapter := ftp.New(config, sessions, nil)
type FTPMetrics interface {
	// RecordLogin records a completed login attempt.
	//
	// Parameters:
	//   - status: "success" for accepted logins, "denied" for rejected
	//     credentials, "error" for infrastructure failures
	RecordLogin(status string)

	// RecordCommand records a completed file-system command with its
	// duration and outcome.
	//
	// Parameters:
	//   - command: driver operation name (e.g. "LIST", "RETR", "STOR")
	//   - duration: Time taken to process the command
	//   - err: Error if the command failed, nil if successful
	RecordCommand(command string, duration time.Duration, err error)

	// RecordBytesTransferred records payload bytes moved for a client.
	//
	// Parameters:
	//   - direction: "download" or "upload"
	//   - bytes: Number of bytes transferred
	RecordBytesTransferred(direction string, bytes int64)

	// SetActiveSessions updates the current bound session count.
	SetActiveSessions(count int32)
}

// ftpMetrics is the Prometheus implementation of FTPMetrics.
type ftpMetrics struct {
	loginsTotal      *prometheus.CounterVec
	commandsTotal    *prometheus.CounterVec
	commandDuration  *prometheus.HistogramVec
	bytesTransferred *prometheus.CounterVec
	activeSessions   prometheus.Gauge
}

// NewFTPMetrics creates a new Prometheus-backed FTPMetrics instance.
//
// Returns a no-op implementation if metrics are not enabled (InitRegistry
// not called).
func NewFTPMetrics() FTPMetrics {
	if !IsEnabled() {
		return &noopFTPMetrics{}
	}

	reg := GetRegistry()

	return &ftpMetrics{
		loginsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "stackftp_ftp_logins_total",
				Help: "Total number of FTP login attempts by status",
			},
			[]string{"status"},
		),
		commandsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "stackftp_ftp_commands_total",
				Help: "Total number of FTP file-system commands by command and status",
			},
			[]string{"command", "status"},
		),
		commandDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "stackftp_ftp_command_duration_seconds",
				Help: "Duration of FTP file-system commands in seconds",
				Buckets: []float64{
					0.005, // 5ms
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
				},
			},
			[]string{"command"},
		),
		bytesTransferred: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "stackftp_ftp_bytes_transferred_total",
				Help: "Total payload bytes transferred over FTP data connections",
			},
			[]string{"direction"}, // download or upload
		),
		activeSessions: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "stackftp_ftp_active_sessions",
				Help: "Current number of bound FTP sessions",
			},
		),
	}
}

func (m *ftpMetrics) RecordLogin(status string) {
	m.loginsTotal.WithLabelValues(status).Inc()
}

func (m *ftpMetrics) RecordCommand(command string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	m.commandsTotal.WithLabelValues(command, status).Inc()
	m.commandDuration.WithLabelValues(command).Observe(duration.Seconds())
}

func (m *ftpMetrics) RecordBytesTransferred(direction string, bytes int64) {
	m.bytesTransferred.WithLabelValues(direction).Add(float64(bytes))
}

func (m *ftpMetrics) SetActiveSessions(count int32) {
	m.activeSessions.Set(float64(count))
}

// noopFTPMetrics is a no-op implementation of FTPMetrics with zero overhead.
type noopFTPMetrics struct{}

func (noopFTPMetrics) RecordLogin(status string)                                       {}
func (noopFTPMetrics) RecordCommand(command string, duration time.Duration, err error) {}
func (noopFTPMetrics) RecordBytesTransferred(direction string, bytes int64)            {}
func (noopFTPMetrics) SetActiveSessions(count int32)                                   {}
