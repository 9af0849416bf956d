package config

import (
	"github.com/Kevinjil/stack-share-to-ftp/pkg/metrics"
	"github.com/Kevinjil/stack-share-to-ftp/pkg/stack"
)

// MetricsResult contains all metrics-related components created from configuration.
type MetricsResult struct {
	// Server is the HTTP server exposing Prometheus metrics (nil if disabled)
	Server *metrics.Server

	// FTPMetrics is the metrics collector for the FTP adapter (never nil, uses noop if disabled)
	FTPMetrics metrics.FTPMetrics

	// StackMetrics is the metrics collector for the STACK backend (nil if
	// disabled; the backend client falls back to its own noop)
	StackMetrics stack.Metrics
}

// InitializeMetrics creates and initializes all metrics components based on configuration.
//
// If metrics are enabled in the configuration:
//   - Initializes the global Prometheus registry
//   - Creates the metrics HTTP server
//   - Creates Prometheus-backed metrics instances for all components
//
// If metrics are disabled:
//   - Returns nil server
//   - Returns no-op metrics implementations (zero overhead)
//
// Parameters:
//   - cfg: The complete bridge configuration
//
// Returns:
//   - MetricsResult containing all metrics components
func InitializeMetrics(cfg *Config) *MetricsResult {
	if !cfg.Server.Metrics.Enabled {
		// Metrics disabled - the registry stays uninitialized, so the
		// constructors below hand back no-op implementations
		return &MetricsResult{
			Server:       nil,
			FTPMetrics:   metrics.NewFTPMetrics(),
			StackMetrics: metrics.NewStackMetrics(),
		}
	}

	// Initialize global Prometheus registry
	metrics.InitRegistry()

	// Create metrics HTTP server
	server := metrics.NewServer(metrics.ServerConfig{
		Port: cfg.Server.Metrics.Port,
	})

	return &MetricsResult{
		Server:       server,
		FTPMetrics:   metrics.NewFTPMetrics(),
		StackMetrics: metrics.NewStackMetrics(),
	}
}
