package config

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/Kevinjil/stack-share-to-ftp/internal/logger"
	"github.com/Kevinjil/stack-share-to-ftp/pkg/provider"
	"github.com/Kevinjil/stack-share-to-ftp/pkg/stack"
)

// CreateBinder creates a storage backend binder based on configuration.
//
// This factory function uses the Type field to determine which backend
// implementation to create, then decodes the type-specific configuration
// from the corresponding map and passes it to the backend's constructor.
//
// Supported types:
//   - "stack": Uses pkg/stack (STACK public share over HTTPS)
//
// Parameters:
//   - cfg: Complete configuration
//   - metrics: Backend metrics collector (nil disables collection)
//
// Returns:
//   - provider.Binder: Initialized backend binder
//   - error: Configuration or initialization error
func CreateBinder(cfg *Config, metrics stack.Metrics) (provider.Binder, error) {
	switch cfg.Backend.Type {
	case "stack":
		return createStackBinder(cfg.Backend.Stack, metrics)
	default:
		return nil, fmt.Errorf("unknown backend type: %q (supported: stack)", cfg.Backend.Type)
	}
}

// createStackBinder creates a STACK public share binder.
func createStackBinder(options map[string]any, metrics stack.Metrics) (provider.Binder, error) {
	// Decode backend-specific options with duration string support
	// (e.g. "10s" -> 10*time.Second)
	var opts stack.Options
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.StringToTimeDurationHookFunc(),
		Result:     &opts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(options); err != nil {
		return nil, fmt.Errorf("failed to decode stack backend options: %w", err)
	}

	// Validate fields the binder cannot default away
	if opts.Scheme != "" && opts.Scheme != "https" && opts.Scheme != "http" {
		return nil, fmt.Errorf("stack backend: scheme must be https or http, got %q", opts.Scheme)
	}

	binder := stack.NewBinder(opts, metrics)

	scheme := opts.Scheme
	if scheme == "" {
		scheme = "https"
	}
	logger.Info("STACK share binder initialized: scheme=%s", scheme)

	return binder, nil
}
