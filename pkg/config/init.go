package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// InitConfig writes a commented default configuration file to the default
// location (~/.config/stack-share-to-ftp/config.yaml).
//
// Parameters:
//   - force: Overwrite an existing config file
//
// Returns:
//   - string: Path of the written config file
//   - error: If the file exists (without force) or cannot be written
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()

	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}

	return path, nil
}

// InitConfigToPath writes a commented default configuration file to the
// given path, creating parent directories as needed.
//
// Parameters:
//   - path: Destination file path
//   - force: Overwrite an existing config file
//
// Returns:
//   - error: If the file exists (without force) or cannot be written
func InitConfigToPath(path string, force bool) error {
	// Refuse to clobber an existing config unless forced
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s (use force to overwrite)", path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	content, err := generateYAMLWithComments(GetDefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to generate config: %w", err)
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// generateYAMLWithComments renders a configuration as commented YAML.
//
// The output is hand-assembled rather than marshaled so every section can
// carry explanatory comments. Values come from the passed config, keeping
// the generated file in sync with the actual defaults.
func generateYAMLWithComments(cfg *Config) (string, error) {
	var b strings.Builder

	b.WriteString("# stack-share-to-ftp configuration file\n")
	b.WriteString("#\n")
	b.WriteString("# The bridge serves remote STACK public shares over FTP. Clients log in\n")
	b.WriteString("# with the share identity \"share@domain\" and the share password.\n")
	b.WriteString("#\n")
	b.WriteString("# Environment variables override file settings using the STACKFTP_ prefix:\n")
	b.WriteString("#   STACKFTP_LOGGING_LEVEL=DEBUG\n")
	b.WriteString("#   STACKFTP_ADAPTERS_FTP_PORT=2121\n")
	b.WriteString("\n")

	b.WriteString("# Logging configuration\n")
	b.WriteString("logging:\n")
	b.WriteString("  # Minimum log level: DEBUG, INFO, WARN, ERROR\n")
	fmt.Fprintf(&b, "  level: %s\n", cfg.Logging.Level)
	b.WriteString("  # Output format: console or json\n")
	fmt.Fprintf(&b, "  format: %s\n", cfg.Logging.Format)
	b.WriteString("  # Log destination: stdout, stderr, or a file path\n")
	fmt.Fprintf(&b, "  output: %s\n", cfg.Logging.Output)
	b.WriteString("\n")

	b.WriteString("# Server-wide settings\n")
	b.WriteString("server:\n")
	b.WriteString("  # Maximum time to wait for graceful shutdown\n")
	fmt.Fprintf(&b, "  shutdown_timeout: %s\n", cfg.Server.ShutdownTimeout)
	b.WriteString("  # Prometheus metrics endpoint\n")
	b.WriteString("  metrics:\n")
	fmt.Fprintf(&b, "    enabled: %t\n", cfg.Server.Metrics.Enabled)
	fmt.Fprintf(&b, "    port: %d\n", cfg.Server.Metrics.Port)
	b.WriteString("\n")

	b.WriteString("# Storage backend\n")
	b.WriteString("backend:\n")
	b.WriteString("  # Backend type: stack\n")
	fmt.Fprintf(&b, "  type: %s\n", cfg.Backend.Type)
	b.WriteString("  stack:\n")
	b.WriteString("    # URL scheme for share requests: https or http\n")
	fmt.Fprintf(&b, "    scheme: %v\n", cfg.Backend.Stack["scheme"])
	fmt.Fprintf(&b, "    user_agent: %v\n", cfg.Backend.Stack["user_agent"])
	b.WriteString("    # HTTP transport timeouts\n")
	fmt.Fprintf(&b, "    dial_timeout: %v\n", cfg.Backend.Stack["dial_timeout"])
	fmt.Fprintf(&b, "    tls_handshake_timeout: %v\n", cfg.Backend.Stack["tls_handshake_timeout"])
	fmt.Fprintf(&b, "    response_header_timeout: %v\n", cfg.Backend.Stack["response_header_timeout"])
	fmt.Fprintf(&b, "    idle_conn_timeout: %v\n", cfg.Backend.Stack["idle_conn_timeout"])
	b.WriteString("\n")

	b.WriteString("# Protocol adapters\n")
	b.WriteString("adapters:\n")
	b.WriteString("  ftp:\n")
	fmt.Fprintf(&b, "    enabled: %t\n", cfg.Adapters.FTP.Enabled)
	b.WriteString("    # Control connection port\n")
	fmt.Fprintf(&b, "    port: %d\n", cfg.Adapters.FTP.Port)
	fmt.Fprintf(&b, "    bind_address: %s\n", cfg.Adapters.FTP.BindAddress)
	b.WriteString("    # Address advertised for passive data connections (set behind NAT)\n")
	fmt.Fprintf(&b, "    public_ip: %q\n", cfg.Adapters.FTP.PublicIP)
	b.WriteString("    # Passive data port range, e.g. \"30000-32000\" (empty lets the OS pick)\n")
	fmt.Fprintf(&b, "    passive_ports: %q\n", cfg.Adapters.FTP.PassivePorts)
	fmt.Fprintf(&b, "    name: %s\n", cfg.Adapters.FTP.Name)
	fmt.Fprintf(&b, "    welcome_message: %s\n", cfg.Adapters.FTP.WelcomeMessage)
	fmt.Fprintf(&b, "    shutdown_timeout: %s\n", cfg.Adapters.FTP.ShutdownTimeout)
	b.WriteString("    # Sessions idle longer than this are dropped from bookkeeping\n")
	fmt.Fprintf(&b, "    session_idle_timeout: %s\n", cfg.Adapters.FTP.SessionIdleTimeout)
	fmt.Fprintf(&b, "    metrics_log_interval: %s\n", cfg.Adapters.FTP.MetricsLogInterval)

	return b.String(), nil
}
