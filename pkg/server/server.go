package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Kevinjil/stack-share-to-ftp/internal/logger"
	"github.com/Kevinjil/stack-share-to-ftp/pkg/adapter"
	"github.com/Kevinjil/stack-share-to-ftp/pkg/provider"
)

// BridgeServer manages the lifecycle of multiple protocol adapters that share
// a common storage backend binder.
//
// Architecture:
// BridgeServer orchestrates different file transfer protocols (FTP today,
// potentially SFTP or WebDAV later) that are represented as Adapter
// implementations. All adapters share the same backend binder, so a client
// session is bound to the same remote share regardless of which protocol it
// arrived through.
//
// Lifecycle:
//  1. Creation: New() with the backend binder
//  2. Registration: AddAdapter() for each protocol
//  3. Startup: Serve() starts all adapters concurrently
//  4. Shutdown: Context cancellation triggers graceful shutdown of all adapters
//
// Thread safety:
// BridgeServer is safe for concurrent use. AddAdapter() may be called
// concurrently with other methods. Serve() should only be called once per
// server instance.
//
// Example usage:
//
//	srv := server.New(binder, cfg.Server.ShutdownTimeout)
//	srv.AddAdapter(ftp.New(ftpConfig, sessions, nil))
//
//	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer cancel()
//
//	if err := srv.Serve(ctx); err != nil && err != context.Canceled {
//	    log.Fatal(err)
//	}
type BridgeServer struct {
	// binder is the shared storage backend binder for all adapters
	binder provider.Binder

	// stopTimeout bounds how long adapter Stop() calls may take on shutdown
	stopTimeout time.Duration

	// adapters contains all registered protocol adapters
	adapters []adapter.Adapter

	// mu protects the adapters slice and serving flag
	mu sync.RWMutex

	// served indicates whether Serve() has been called
	served bool
}

// New creates a new BridgeServer with the provided backend binder.
//
// The binder is shared across all adapters added to this server, ensuring
// that client sessions are authenticated and bound the same way regardless
// of which protocol is used.
//
// Parameters:
//   - binder: Backend binder authenticating client sessions (required)
//   - stopTimeout: Timeout for adapter shutdown (0 uses 30 seconds)
//
// Returns a configured but not yet started BridgeServer. Call AddAdapter()
// to register protocols, then Serve() to start the server.
//
// Panics if the binder is nil (indicates programmer error).
func New(binder provider.Binder, stopTimeout time.Duration) *BridgeServer {
	if binder == nil {
		panic("backend binder cannot be nil")
	}
	if stopTimeout <= 0 {
		stopTimeout = 30 * time.Second
	}

	return &BridgeServer{
		binder:      binder,
		stopTimeout: stopTimeout,
		adapters:    make([]adapter.Adapter, 0, 2),
	}
}

// AddAdapter registers a new protocol adapter with the server.
//
// This method injects the shared binder into the adapter and adds it to the
// list of adapters that will be started when Serve() is called.
//
// AddAdapter() may be called multiple times to register different protocol
// adapters. Each adapter must implement a different protocol and listen on a
// different port. Duplicate protocols or port conflicts are detected and
// return an error.
//
// Parameters:
//   - a: The protocol adapter to register (must not be nil)
//
// Returns:
//   - error if the adapter conflicts with an existing adapter
//
// Panics if:
//   - adapter is nil (programmer error)
//   - Serve() has already been called (server is running)
//
// Thread safety:
// Safe to call concurrently from multiple goroutines before Serve() is called.
func (s *BridgeServer) AddAdapter(a adapter.Adapter) error {
	if a == nil {
		panic("adapter cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.served {
		panic("cannot add adapter after Serve() has been called")
	}

	protocol := a.Protocol()
	port := a.Port()

	// Validate no duplicate protocols
	for _, existing := range s.adapters {
		if existing.Protocol() == protocol {
			return fmt.Errorf("adapter for protocol %s already registered", protocol)
		}
	}

	// Validate no port conflicts
	for _, existing := range s.adapters {
		if existing.Port() == port {
			return fmt.Errorf("port %d already in use by %s adapter",
				port, existing.Protocol())
		}
	}

	// Inject the shared backend binder
	a.SetBinder(s.binder)

	// Register the adapter
	s.adapters = append(s.adapters, a)

	logger.Info("Registered %s adapter on port %d", protocol, port)

	return nil
}

// Serve starts all registered adapters and blocks until the context is
// cancelled or an adapter fails.
//
// Serve() orchestrates the lifecycle of all adapters:
//  1. Validates that at least one adapter is registered
//  2. Starts all adapters concurrently in separate goroutines
//  3. Monitors for context cancellation or adapter failures
//  4. On shutdown signal: stops all adapters in reverse order
//  5. Waits for all adapters to complete shutdown
//
// Error handling:
//   - If any adapter fails to start: stops all already-started adapters and returns the error
//   - If context is cancelled: initiates graceful shutdown and returns context.Canceled
//   - If any adapter fails during operation: stops all adapters and returns the error
//
// Parameters:
//   - ctx: Controls server lifecycle. Cancellation triggers graceful shutdown.
//
// Returns:
//   - context.Canceled if shutdown was triggered by context cancellation
//   - error if startup failed or an adapter encountered an error
//
// Panics if Serve() is called more than once on the same instance.
func (s *BridgeServer) Serve(ctx context.Context) error {
	s.mu.Lock()
	if s.served {
		s.mu.Unlock()
		panic("Serve() has already been called on this server instance")
	}
	s.served = true
	s.mu.Unlock()

	return s.serve(ctx)
}

// serve is the internal implementation of Serve().
func (s *BridgeServer) serve(ctx context.Context) error {
	// Get snapshot of adapters under lock
	s.mu.RLock()
	if len(s.adapters) == 0 {
		s.mu.RUnlock()
		return fmt.Errorf("no adapters registered; call AddAdapter() before Serve()")
	}
	adapters := make([]adapter.Adapter, len(s.adapters))
	copy(adapters, s.adapters)
	s.mu.RUnlock()

	logger.Info("Starting bridge server with %d adapter(s)", len(adapters))

	// Channel to collect errors from adapter goroutines
	// Buffered to prevent goroutine leaks if multiple adapters fail simultaneously
	errChan := make(chan adapterError, len(adapters))

	// WaitGroup to track adapter goroutines
	var wg sync.WaitGroup

	// Start all adapters concurrently
	startTime := time.Now()
	for _, adp := range adapters {
		wg.Add(1)
		go func(a adapter.Adapter) {
			defer wg.Done()

			protocol := a.Protocol()
			port := a.Port()

			logger.Info("Starting %s adapter on port %d", protocol, port)

			if err := a.Serve(ctx); err != nil {
				// Only report unexpected errors
				// context.Canceled is expected during shutdown
				if err != context.Canceled && ctx.Err() == nil {
					logger.Error("%s adapter failed: %v", protocol, err)
					errChan <- adapterError{protocol: protocol, err: err}
				} else {
					logger.Debug("%s adapter stopped gracefully", protocol)
				}
			} else {
				logger.Info("%s adapter stopped", protocol)
			}
		}(adp)
	}

	// Log successful startup after a brief delay to allow adapters to initialize
	go func() {
		time.Sleep(100 * time.Millisecond)
		logger.Info("All adapters started successfully in %v", time.Since(startTime))
	}()

	// Wait for either context cancellation or adapter error
	var shutdownErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received (reason: %v)", ctx.Err())
		s.stopAllAdapters(adapters)
		shutdownErr = ctx.Err()

	case adapterErr := <-errChan:
		logger.Error("Adapter %s failed: %v - initiating shutdown of all adapters",
			adapterErr.protocol, adapterErr.err)
		s.stopAllAdapters(adapters)
		shutdownErr = fmt.Errorf("%s adapter error: %w", adapterErr.protocol, adapterErr.err)
	}

	// Wait for all adapter goroutines to complete
	logger.Debug("Waiting for all adapters to complete shutdown")
	wg.Wait()

	logger.Info("Bridge server stopped gracefully")

	return shutdownErr
}

// adapterError pairs an adapter protocol name with its error for better error reporting.
type adapterError struct {
	protocol string
	err      error
}

// stopAllAdapters initiates graceful shutdown of all adapters in reverse
// registration order.
//
// Each adapter receives a Stop() call with a shared timeout context, so a
// single misbehaving adapter cannot block shutdown indefinitely. Errors are
// logged but do not interrupt the shutdown of remaining adapters.
//
// Note: This method only initiates shutdown. The caller must wait for
// adapter goroutines to complete using the WaitGroup.
//
// Parameters:
//   - adapters: Snapshot of adapters to stop (in registration order)
func (s *BridgeServer) stopAllAdapters(adapters []adapter.Adapter) {
	ctx, cancel := context.WithTimeout(context.Background(), s.stopTimeout)
	defer cancel()

	logger.Info("Initiating graceful shutdown of %d adapter(s)", len(adapters))

	// Stop adapters in reverse registration order
	// This handles potential dependencies between adapters
	for i := len(adapters) - 1; i >= 0; i-- {
		adp := adapters[i]
		protocol := adp.Protocol()

		logger.Debug("Stopping %s adapter (port %d)", protocol, adp.Port())

		if err := adp.Stop(ctx); err != nil && err != context.Canceled {
			logger.Error("Error stopping %s adapter: %v", protocol, err)
		} else {
			logger.Debug("%s adapter stop signal sent", protocol)
		}
	}
}

// Adapters returns a snapshot of currently registered adapters.
//
// The returned slice is a copy and safe to iterate over without holding
// locks. Modifications to the returned slice do not affect the server's
// adapter list.
func (s *BridgeServer) Adapters() []adapter.Adapter {
	s.mu.RLock()
	defer s.mu.RUnlock()

	adapters := make([]adapter.Adapter, len(s.adapters))
	copy(adapters, s.adapters)
	return adapters
}
