package ftp

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FTPConfig holds configuration parameters for the FTP frontend.
//
// These values control listener placement, passive transfer behavior and
// housekeeping intervals. All timeout values are optional, zero means the
// default is applied.
//
// Default values (applied by New if zero):
//   - Port: 21 (standard FTP control port)
//   - BindAddress: 127.0.0.1
//   - Name: "stack-share-to-ftp"
//   - ShutdownTimeout: 30s
//   - SessionIdleTimeout: 1h
//   - MetricsLogInterval: 5m (0 disables)
type FTPConfig struct {
	// Enabled controls whether the FTP adapter is active.
	// When false, the FTP adapter will not be started.
	Enabled bool `mapstructure:"enabled"`

	// Port is the TCP port to listen on for FTP control connections.
	// Standard FTP port is 21. If 0, defaults to 21.
	Port int `mapstructure:"port" validate:"min=0,max=65535"`

	// BindAddress is the local address the control listener binds to.
	// Defaults to 127.0.0.1 so the bridge is not reachable from other
	// hosts unless explicitly configured.
	BindAddress string `mapstructure:"bind_address"`

	// PublicIP is the address advertised to clients for passive data
	// connections. Required when the bridge runs behind NAT and serves
	// clients outside the local network. Empty means the address of the
	// control connection is used.
	PublicIP string `mapstructure:"public_ip"`

	// PassivePorts restricts passive data connections to a port range,
	// formatted as "min-max" (for example "30000-32000"). Empty means
	// the operating system picks ephemeral ports.
	PassivePorts string `mapstructure:"passive_ports"`

	// Name is the server name reported to clients in the greeting.
	Name string `mapstructure:"name"`

	// WelcomeMessage is the banner sent after the connection is accepted.
	WelcomeMessage string `mapstructure:"welcome_message"`

	// ShutdownTimeout is the maximum duration to wait during graceful
	// shutdown. Must be > 0 to ensure shutdown completes.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0"`

	// SessionIdleTimeout is the age after which a bound session that has
	// not issued any command is dropped from the session registry.
	// 0 applies the default. The remote share decides cookie expiry on
	// its own, this value only controls local bookkeeping.
	SessionIdleTimeout time.Duration `mapstructure:"session_idle_timeout" validate:"min=0"`

	// MetricsLogInterval is the interval at which session counts are
	// logged and idle sessions are pruned.
	// 0 disables periodic housekeeping.
	MetricsLogInterval time.Duration `mapstructure:"metrics_log_interval" validate:"min=0"`
}

// applyDefaults fills in zero values with sensible defaults.
func (c *FTPConfig) applyDefaults() {
	// Note: Enabled field defaults are handled in pkg/config/defaults.go
	// to allow explicit false values from configuration files.

	if c.Port <= 0 {
		c.Port = 21
	}
	if c.BindAddress == "" {
		c.BindAddress = "127.0.0.1"
	}
	if c.Name == "" {
		c.Name = "stack-share-to-ftp"
	}
	if c.WelcomeMessage == "" {
		c.WelcomeMessage = "Welcome to the STACK share FTP bridge"
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 30 * time.Second
	}
	if c.SessionIdleTimeout == 0 {
		c.SessionIdleTimeout = time.Hour
	}
	if c.MetricsLogInterval == 0 {
		c.MetricsLogInterval = 5 * time.Minute
	}
}

// validate checks that the configuration is valid for production use.
func (c *FTPConfig) validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d: must be 0-65535", c.Port)
	}
	if c.PassivePorts != "" {
		if err := validatePortRange(c.PassivePorts); err != nil {
			return fmt.Errorf("invalid PassivePorts %q: %w", c.PassivePorts, err)
		}
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("invalid ShutdownTimeout %v: must be > 0", c.ShutdownTimeout)
	}
	if c.SessionIdleTimeout < 0 {
		return fmt.Errorf("invalid SessionIdleTimeout %v: must be >= 0", c.SessionIdleTimeout)
	}
	if c.MetricsLogInterval < 0 {
		return fmt.Errorf("invalid MetricsLogInterval %v: must be >= 0", c.MetricsLogInterval)
	}
	return nil
}

// validatePortRange checks a "min-max" passive port range.
func validatePortRange(s string) error {
	low, high, found := strings.Cut(s, "-")
	if !found {
		return fmt.Errorf("expected format min-max")
	}
	lo, err := strconv.Atoi(low)
	if err != nil {
		return fmt.Errorf("invalid lower bound: %w", err)
	}
	hi, err := strconv.Atoi(high)
	if err != nil {
		return fmt.Errorf("invalid upper bound: %w", err)
	}
	if lo < 1 || hi > 65535 || lo > hi {
		return fmt.Errorf("range %d-%d out of order or out of bounds", lo, hi)
	}
	return nil
}
