package ftp

import (
	"testing"
	"time"
)

func TestFTPConfigApplyDefaults(t *testing.T) {
	cfg := FTPConfig{}
	cfg.applyDefaults()

	if cfg.Port != 21 {
		t.Errorf("expected default port 21, got %d", cfg.Port)
	}
	if cfg.BindAddress != "127.0.0.1" {
		t.Errorf("expected default bind address 127.0.0.1, got %q", cfg.BindAddress)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("expected default shutdown timeout 30s, got %v", cfg.ShutdownTimeout)
	}
	if cfg.SessionIdleTimeout != time.Hour {
		t.Errorf("expected default session idle timeout 1h, got %v", cfg.SessionIdleTimeout)
	}
	if cfg.Name == "" || cfg.WelcomeMessage == "" {
		t.Error("expected default name and welcome message")
	}
}

func TestFTPConfigApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := FTPConfig{
		Port:            2121,
		BindAddress:     "0.0.0.0",
		ShutdownTimeout: 5 * time.Second,
	}
	cfg.applyDefaults()

	if cfg.Port != 2121 {
		t.Errorf("expected port 2121 to survive, got %d", cfg.Port)
	}
	if cfg.BindAddress != "0.0.0.0" {
		t.Errorf("expected bind address 0.0.0.0 to survive, got %q", cfg.BindAddress)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("expected shutdown timeout 5s to survive, got %v", cfg.ShutdownTimeout)
	}
}

func TestFTPConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*FTPConfig)
		wantErr bool
	}{
		{"defaults are valid", func(c *FTPConfig) {}, false},
		{"port out of range", func(c *FTPConfig) { c.Port = 70000 }, true},
		{"passive ports well formed", func(c *FTPConfig) { c.PassivePorts = "30000-32000" }, false},
		{"passive ports missing dash", func(c *FTPConfig) { c.PassivePorts = "30000" }, true},
		{"passive ports reversed", func(c *FTPConfig) { c.PassivePorts = "32000-30000" }, true},
		{"passive ports not numeric", func(c *FTPConfig) { c.PassivePorts = "low-high" }, true},
		{"zero shutdown timeout", func(c *FTPConfig) { c.ShutdownTimeout = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := FTPConfig{}
			cfg.applyDefaults()
			tt.mutate(&cfg)

			err := cfg.validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}
