// Package ftp bridges the FTP protocol to a shared-folder backend.
//
// The package wires a third-party FTP engine to the provider interfaces:
// every client connection gets its own driver, the driver binds the
// client's credentials through the injected provider.Binder, and all
// file operations are delegated to the bound file system.
package ftp

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	ftpserver "goftp.io/server/core"

	"github.com/Kevinjil/stack-share-to-ftp/internal/logger"
	"github.com/Kevinjil/stack-share-to-ftp/pkg/metrics"
	"github.com/Kevinjil/stack-share-to-ftp/pkg/provider"
	"github.com/Kevinjil/stack-share-to-ftp/pkg/registry"
)

// FTPAdapter implements the adapter.Adapter interface for the FTP protocol.
//
// This adapter provides an FTP frontend with:
//   - Per-connection authentication against the remote share
//   - Streaming downloads and uploads without local spooling
//   - Graceful shutdown with configurable timeout
//   - Context-based cancellation of in-flight backend requests
//
// Architecture:
// The TCP listener, control channel parsing and data connections are owned
// by the embedded FTP engine. FTPAdapter supplies the engine with a driver
// factory (one driver per client connection), an authenticator and a logger,
// and manages the engine's lifecycle.
//
// Shutdown flow:
//  1. Context cancelled or Stop() called
//  2. Engine shut down (listener closed, sessions wound down)
//  3. shutdownCtx cancelled (aborts in-flight backend requests)
//
// Thread safety:
// All methods are safe for concurrent use. The shutdown mechanism uses
// sync.Once to ensure idempotent behavior even if Stop() is called multiple
// times.
type FTPAdapter struct {
	// config holds the server configuration (ports, timeouts, banner)
	config FTPConfig

	// binder authenticates logins and hands out per-connection file systems
	binder provider.Binder

	// sessions tracks bound sessions for diagnostics and idle pruning
	sessions *registry.Registry

	// metrics provides optional Prometheus metrics collection
	metrics metrics.FTPMetrics

	// srv is the underlying FTP engine, created by Serve()
	srv *ftpserver.Server

	// shutdownOnce ensures shutdown is only initiated once
	shutdownOnce sync.Once

	// shutdown signals that graceful shutdown has been initiated
	shutdown chan struct{}

	// shutdownCtx is cancelled during shutdown to abort in-flight backend
	// requests. Drivers use it for all remote calls, so a shutdown aborts
	// long-running transfers cleanly.
	shutdownCtx context.Context

	// cancelRequests cancels shutdownCtx during shutdown
	cancelRequests context.CancelFunc
}

// New creates a new FTPAdapter with the specified configuration.
//
// The adapter is created in a stopped state. Call SetBinder() to inject
// the backend access, then call Serve() to start accepting connections.
//
// Parameters:
//   - config: Server configuration (zero values are replaced with defaults)
//   - sessions: Session registry for diagnostics (nil creates a private one)
//   - ftpMetrics: Optional metrics collector (nil for no metrics)
//
// Returns a configured but not yet started FTPAdapter.
//
// Panics if config validation fails.
func New(config FTPConfig, sessions *registry.Registry, ftpMetrics metrics.FTPMetrics) *FTPAdapter {
	config.applyDefaults()

	if err := config.validate(); err != nil {
		panic("invalid FTP config: " + err.Error())
	}

	if sessions == nil {
		sessions = registry.NewRegistry()
	}
	if ftpMetrics == nil {
		ftpMetrics = &noopFTPMetrics{}
	}

	shutdownCtx, cancelRequests := context.WithCancel(context.Background())

	return &FTPAdapter{
		config:         config,
		sessions:       sessions,
		metrics:        ftpMetrics,
		shutdown:       make(chan struct{}),
		shutdownCtx:    shutdownCtx,
		cancelRequests: cancelRequests,
	}
}

// noopFTPMetrics provides a local no-op implementation when metrics package is not used
type noopFTPMetrics struct{}

func (noopFTPMetrics) RecordLogin(status string)                                       {}
func (noopFTPMetrics) RecordCommand(command string, duration time.Duration, err error) {}
func (noopFTPMetrics) RecordBytesTransferred(direction string, bytes int64)            {}
func (noopFTPMetrics) SetActiveSessions(count int32)                                   {}

// SetBinder injects the backend binder used to authenticate logins.
//
// This method is called by the bridge server before Serve() is called.
//
// Thread safety:
// Called exactly once before Serve(), no synchronization needed.
func (a *FTPAdapter) SetBinder(binder provider.Binder) {
	a.binder = binder
	logger.Debug("FTP binder configured")
}

// Serve starts the FTP server and blocks until the context is cancelled
// or an unrecoverable error occurs.
//
// The embedded engine accepts control connections on the configured
// address and creates one driver per connection via NewDriver(). Clients
// authenticate with USER/PASS, which the driver forwards to the binder.
//
// Graceful shutdown:
// When the context is cancelled, Serve initiates graceful shutdown:
//  1. The engine stops accepting new connections and winds down sessions
//  2. shutdownCtx is cancelled, aborting in-flight backend requests
//
// Parameters:
//   - ctx: Controls the server lifecycle. Cancellation triggers shutdown.
//
// Returns:
//   - nil on graceful shutdown
//   - error if no binder is configured or the engine fails
//
// Thread safety:
// Serve() should only be called once per FTPAdapter instance.
func (a *FTPAdapter) Serve(ctx context.Context) error {
	if a.binder == nil {
		return errors.New("FTP adapter started without a binder")
	}

	opts := &ftpserver.ServerOpts{
		Name:           a.config.Name,
		WelcomeMessage: a.config.WelcomeMessage,
		Factory:        a,
		Hostname:       a.config.BindAddress,
		Port:           a.config.Port,
		PublicIP:       a.config.PublicIP,
		PassivePorts:   a.config.PassivePorts,
		Auth:           a,
		Logger:         engineLogger{},
	}
	a.srv = ftpserver.NewServer(opts)

	logger.Info("FTP server listening on %s:%d", a.config.BindAddress, a.config.Port)
	if a.config.PublicIP != "" {
		logger.Debug("FTP passive connections advertised on %s (ports %s)",
			a.config.PublicIP, a.config.PassivePorts)
	}

	// Monitor context cancellation in a separate goroutine. The select on
	// a.shutdown lets the goroutine exit when Stop() is called without the
	// context being cancelled.
	go func() {
		select {
		case <-ctx.Done():
			logger.Info("FTP shutdown signal received: %v", ctx.Err())
			a.initiateShutdown()
		case <-a.shutdown:
		}
	}()

	// Start housekeeping if enabled
	if a.config.MetricsLogInterval > 0 {
		go a.logMetrics()
	}

	err := a.srv.ListenAndServe()

	// The engine returns an error when its listener is closed. During
	// shutdown that is the expected way out of ListenAndServe.
	select {
	case <-a.shutdown:
		logger.Info("FTP server stopped")
		return nil
	default:
	}

	if err != nil {
		return errors.Wrap(err, "FTP server failed")
	}
	return nil
}

// initiateShutdown signals the server to begin graceful shutdown.
//
// This method is called automatically when the context is cancelled or
// when Stop() is called. It's safe to call multiple times.
//
// Shutdown sequence:
//  1. Close shutdown channel (marks the adapter as stopping)
//  2. Shut down the engine (stops accepting, winds down sessions)
//  3. Cancel shutdownCtx (aborts in-flight backend requests)
//
// Thread safety:
// Safe to call multiple times and from multiple goroutines.
// Uses sync.Once to ensure shutdown logic only runs once.
func (a *FTPAdapter) initiateShutdown() {
	a.shutdownOnce.Do(func() {
		logger.Debug("FTP shutdown initiated")

		close(a.shutdown)

		if a.srv != nil {
			if err := a.srv.Shutdown(); err != nil {
				logger.Debug("Error shutting down FTP engine: %v", err)
			}
		}

		// Abort in-flight backend requests. Transfers in progress fail
		// fast instead of blocking shutdown on slow remotes.
		a.cancelRequests()
		logger.Debug("FTP request cancellation signal sent to all in-flight operations")
	})
}

// Stop initiates graceful shutdown of the FTP server.
//
// Stop is safe to call multiple times and safe to call concurrently with
// Serve(). Active sessions are torn down by the engine; pending backend
// requests are cancelled via shutdownCtx.
//
// Parameters:
//   - ctx: Reserved for future draining support. The engine does not
//     expose a way to wait for session teardown, so Stop returns as soon
//     as shutdown has been initiated.
//
// Returns:
//   - nil, shutdown initiation cannot fail
//
// Thread safety:
// Safe to call concurrently from multiple goroutines.
func (a *FTPAdapter) Stop(ctx context.Context) error {
	a.initiateShutdown()

	removed := a.sessions.RemoveAll()
	if removed > 0 {
		logger.Debug("FTP session registry cleared: %d session(s)", removed)
	}

	logger.Info("FTP graceful shutdown complete")
	return nil
}

// logMetrics periodically prunes idle sessions and logs session counts.
//
// Sessions have no close notification from the engine, so the registry
// is trimmed here: entries that have not issued a command for longer
// than SessionIdleTimeout are dropped. The active session gauge is
// refreshed on the same tick.
//
// The goroutine exits when shutdown is initiated.
func (a *FTPAdapter) logMetrics() {
	ticker := time.NewTicker(a.config.MetricsLogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-a.shutdown:
			return
		case <-ticker.C:
			pruned := a.sessions.PruneIdle(time.Now().Add(-a.config.SessionIdleTimeout))
			active := a.sessions.Count()
			a.metrics.SetActiveSessions(int32(active))
			if pruned > 0 {
				logger.Info("FTP metrics: active_sessions=%d pruned_sessions=%d", active, pruned)
			} else {
				logger.Info("FTP metrics: active_sessions=%d", active)
			}
		}
	}
}

// NewDriver creates a driver for a freshly accepted client connection.
//
// This implements the engine's driver factory interface. Each control
// connection gets its own driver and therefore its own backend session
// once the client logs in.
func (a *FTPAdapter) NewDriver() (ftpserver.Driver, error) {
	d := newDriver(a)
	logger.Debug("FTP connection accepted (conn %s)", d.connID)
	return d, nil
}

// CheckPasswd implements the engine's fallback authenticator.
//
// This is not used, the engine prefers the driver's CheckPasswd so that
// credentials bind a session on the connection that presented them.
func (a *FTPAdapter) CheckPasswd(user, pass string) (bool, error) {
	err := errors.New("internal error: adapter-level CheckPasswd should never be called")
	logger.Error("%v", err)
	return false, err
}

// Port returns the TCP port the FTP server is listening on.
//
// This implements the adapter.Adapter interface.
func (a *FTPAdapter) Port() int {
	return a.config.Port
}

// Protocol returns "FTP" as the protocol identifier.
//
// This implements the adapter.Adapter interface.
func (a *FTPAdapter) Protocol() string {
	return "FTP"
}
