package config

import (
	"strings"
	"time"

	"github.com/Kevinjil/stack-share-to-ftp/pkg/adapter/ftp"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and environment
// variables to fill in any missing values with sensible defaults.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
//   - Backend-specific defaults are handled by backend implementations
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyServerDefaults(&cfg.Server)
	applyBackendDefaults(&cfg.Backend)
	applyAdaptersDefaults(&cfg.Adapters)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "console"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyServerDefaults sets server defaults.
func applyServerDefaults(cfg *ServerConfig) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}

	// Metrics.Enabled defaults to false

	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9090
	}
}

// applyBackendDefaults sets storage backend defaults.
func applyBackendDefaults(cfg *BackendConfig) {
	if cfg.Type == "" {
		cfg.Type = "stack"
	}

	// Initialize maps if nil
	if cfg.Stack == nil {
		cfg.Stack = make(map[string]any)
	}

	// Apply backend defaults (for config file generation). The stack
	// factory applies the same defaults at decode time, so these only
	// make the generated config file self-describing.
	if _, ok := cfg.Stack["scheme"]; !ok {
		cfg.Stack["scheme"] = "https"
	}
	if _, ok := cfg.Stack["user_agent"]; !ok {
		cfg.Stack["user_agent"] = "stack-share-to-ftp"
	}
	if _, ok := cfg.Stack["dial_timeout"]; !ok {
		cfg.Stack["dial_timeout"] = "10s"
	}
	if _, ok := cfg.Stack["tls_handshake_timeout"]; !ok {
		cfg.Stack["tls_handshake_timeout"] = "10s"
	}
	if _, ok := cfg.Stack["response_header_timeout"]; !ok {
		cfg.Stack["response_header_timeout"] = "30s"
	}
	if _, ok := cfg.Stack["idle_conn_timeout"]; !ok {
		cfg.Stack["idle_conn_timeout"] = "90s"
	}
}

// applyAdaptersDefaults sets adapter defaults.
func applyAdaptersDefaults(cfg *AdaptersConfig) {
	// Enable the FTP adapter by default if no adapters are configured.
	// This ensures that a freshly loaded config (with no config file) will
	// have at least one adapter enabled and pass validation.
	// Users can explicitly set enabled: false in their config to disable it.
	if !cfg.FTP.Enabled {
		// Check if this looks like a default/unconfigured state
		// (Port is 0, meaning no explicit configuration was provided)
		if cfg.FTP.Port == 0 {
			cfg.FTP.Enabled = true
		}
	}

	applyFTPDefaults(&cfg.FTP)
}

// applyFTPDefaults sets FTP adapter defaults.
func applyFTPDefaults(cfg *ftp.FTPConfig) {
	// Note: Port and timeout defaults are always applied.
	// Enabled is set to true in applyAdaptersDefaults if not explicitly configured.

	if cfg.Port == 0 {
		cfg.Port = 21
	}

	if cfg.BindAddress == "" {
		cfg.BindAddress = "127.0.0.1"
	}

	// PublicIP defaults to empty (advertise the bind address)
	// PassivePorts defaults to empty (let the OS pick data ports)

	if cfg.Name == "" {
		cfg.Name = "stack-share-to-ftp"
	}

	if cfg.WelcomeMessage == "" {
		cfg.WelcomeMessage = "Welcome to the STACK share FTP bridge"
	}

	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}

	if cfg.SessionIdleTimeout == 0 {
		cfg.SessionIdleTimeout = time.Hour
	}

	if cfg.MetricsLogInterval == 0 {
		cfg.MetricsLogInterval = 5 * time.Minute
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{
		Logging: LoggingConfig{},
		Server:  ServerConfig{},
		Backend: BackendConfig{
			Stack: make(map[string]any),
		},
		Adapters: AdaptersConfig{
			FTP: ftp.FTPConfig{
				Enabled: true, // FTP adapter enabled by default
			},
		},
	}

	ApplyDefaults(cfg)
	return cfg
}
