// Package provider defines the contract between protocol adapters and
// remote storage backends.
//
// A protocol adapter (FTP today) never talks to remote storage directly.
// It binds client credentials to a FileSystem through a Binder, then
// drives every file operation through that FileSystem. Backends implement
// both interfaces; adapters consume them.
package provider

import (
	"context"
	"io"
	"os"
)

// ============================================================================
// Binder Interface
// ============================================================================

// Binder exchanges protocol-level credentials for a live FileSystem.
//
// One Bind call backs one protocol connection: the returned FileSystem
// carries whatever per-connection state the backend needs (remote session,
// cookies, working directory) and must not be shared across connections.
//
// Design Principles:
//   - Single handshake: Bind performs the backend's full authentication
//     exactly once; the FileSystem it returns is ready for use
//   - Fail closed: any authentication problem returns an error and no
//     FileSystem; there are no partially-authenticated results
//   - Credentials are never logged; implementations may log the identity
//
// Thread Safety:
// Implementations must be safe for concurrent Bind calls.
type Binder interface {
	// Bind authenticates the given identity and returns a connection-scoped
	// FileSystem rooted at the backend location the identity names.
	//
	// Parameters:
	//   - connID: adapter-assigned connection identifier, for logging only
	//   - identity: backend-specific identity string (e.g. "share@domain")
	//   - password: secret proving access to the identity
	//
	// Returns:
	//   - FileSystem: the bound file system, nil on error
	//   - error: ErrAuthenticationFailed for bad identities or credentials,
	//     ErrRemoteAPI when the backend cannot be reached
	Bind(ctx context.Context, connID, identity, password string) (FileSystem, error)
}

// ============================================================================
// FileSystem Interface
// ============================================================================

// FileSystem is the per-connection file-system view a protocol adapter
// operates on.
//
// Path Semantics:
// All target paths are interpreted relative to the current working
// directory unless absolute. Resolution is purely lexical (POSIX dot and
// dot-dot folding); no operation verifies that intermediate directories
// exist on the backend. Resolution above the root clamps to "/".
//
// Read-mostly backends: backends that cannot mutate the remote namespace
// implement MakeDirectory, DeleteEntry, Rename, ChangeMode and UniqueName
// by returning ErrUnsupported. Callers must treat those failures as
// terminal, not transient.
//
// Thread Safety:
// A FileSystem belongs to a single protocol connection. Implementations
// must tolerate the adapter calling operations from the connection's
// goroutine interleaved with registry/diagnostic reads of
// CurrentDirectory.
type FileSystem interface {
	// CurrentDirectory returns the session's working directory as an
	// absolute slash-separated path. The initial working directory is "/".
	CurrentDirectory() string

	// ChangeDirectory moves the working directory to target (lexically
	// resolved against the current one) and returns the new absolute
	// working directory.
	//
	// The backend is not consulted: changing into a directory that does
	// not exist remotely succeeds and only surfaces errors on the next
	// List/Read/Write against it.
	//
	// Returns:
	//   - string: the new working directory
	//   - error: ErrPathResolution for malformed targets
	ChangeDirectory(target string) (string, error)

	// List returns the attributes of every entry in the directory at
	// target. The result is complete or the call fails: implementations
	// never return a partial listing alongside an error.
	//
	// Returns:
	//   - []FileAttributes: entries in backend order
	//   - error: ErrRemoteAPI if any page of the listing fails,
	//     ErrPathResolution for malformed targets
	List(ctx context.Context, target string) ([]FileAttributes, error)

	// Read opens the file at target for streaming download. The returned
	// reader yields bytes directly from the backend; no buffering of the
	// whole file occurs. The caller owns the reader and must close it.
	Read(ctx context.Context, target string) (io.ReadCloser, error)

	// Write opens the file at target for streaming upload. Bytes written
	// to the sink flow directly to the backend; Close completes the
	// transfer and reports the backend's final verdict. A Close error
	// means the upload must be considered failed.
	Write(ctx context.Context, target string) (io.WriteCloser, error)

	// MakeDirectory creates a directory at target.
	MakeDirectory(ctx context.Context, target string) error

	// DeleteEntry removes the file or directory at target.
	DeleteEntry(ctx context.Context, target string) error

	// Rename moves the entry at from to the path at to.
	Rename(ctx context.Context, from, to string) error

	// ChangeMode sets the permission bits of the entry at target.
	ChangeMode(ctx context.Context, target string, mode os.FileMode) error

	// UniqueName reserves a fresh, unused file name in the current
	// working directory and returns its absolute path.
	UniqueName(ctx context.Context) (string, error)
}
