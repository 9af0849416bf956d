package adapter

import (
	"context"

	"github.com/Kevinjil/stack-share-to-ftp/pkg/provider"
)

// Adapter represents a protocol-specific server adapter managed by the
// bridge server.
//
// Each adapter implements a file transfer protocol frontend (FTP today)
// and provides a unified interface for lifecycle management. All adapters
// bind client credentials through the same provider.Binder, so every
// protocol exposes the same remote storage.
//
// Lifecycle:
//  1. Creation: Adapter is created with protocol-specific configuration
//  2. Binder injection: SetBinder() provides the shared backend access
//  3. Startup: Serve() starts the protocol server and blocks until shutdown
//  4. Shutdown: Stop() initiates graceful shutdown with timeout
//
// Thread safety:
// Implementations must be safe for concurrent use. SetBinder() is called
// once before Serve(), but Stop() may be called concurrently with Serve().
type Adapter interface {
	// Serve starts the protocol server and blocks until the context is
	// cancelled or an unrecoverable error occurs.
	//
	// When the context is cancelled, Serve must initiate graceful shutdown:
	//   - Stop accepting new connections
	//   - Let the protocol engine wind down active sessions
	//   - Clean up resources
	//   - Return context.Canceled or nil
	//
	// If Serve returns before context cancellation, the bridge server
	// treats it as a fatal error and stops all other adapters.
	//
	// Returns:
	//   - nil on graceful shutdown
	//   - context.Canceled if cancelled via context
	//   - error if startup fails or shutdown is not graceful
	Serve(ctx context.Context) error

	// SetBinder injects the backend binder used to authenticate protocol
	// logins and obtain per-connection file systems.
	//
	// This method is called exactly once by the bridge server before
	// Serve().
	//
	// Thread safety:
	// Called before Serve(), no synchronization needed.
	SetBinder(binder provider.Binder)

	// Stop initiates graceful shutdown of the protocol server.
	//
	// This method may be called concurrently with Serve() during bridge
	// server shutdown. Implementations must:
	//   - Be safe to call multiple times (idempotent)
	//   - Be safe to call concurrently with Serve()
	//   - Respect the context timeout for shutdown operations
	//   - Clean up all resources (listeners, connections, goroutines)
	//
	// Returns:
	//   - nil if shutdown completed successfully
	//   - error if shutdown exceeded timeout or encountered errors
	Stop(ctx context.Context) error

	// Protocol returns the human-readable protocol name for logging and
	// metrics.
	//
	// Examples: "FTP", "SFTP", "WebDAV"
	//
	// The returned value should be constant for the lifecycle of the
	// adapter.
	Protocol() string

	// Port returns the TCP port the adapter is listening on.
	//
	// This is used for logging, duplicate-port checks and health checks.
	// The returned value should be constant after Serve() is called.
	Port() int
}
