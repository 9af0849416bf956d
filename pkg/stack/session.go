package stack

import (
	"context"
	"io"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/Kevinjil/stack-share-to-ftp/pkg/provider"
)

// Session implements provider.FileSystem on top of an authenticated
// Client.
//
// The session owns exactly two pieces of state: the immutable client
// (base URL, cookies, anti-forgery token) and the mutable working
// directory, which starts at "/". Directory changes are purely lexical;
// the remote is only consulted by List, Read and Write, so a session can
// sit in a directory that does not exist remotely and only hear about it
// from the next remote operation.
type Session struct {
	client *Client

	mu  sync.Mutex
	cwd string
}

var _ provider.FileSystem = (*Session)(nil)

// NewSession wraps an authenticated client into a file-system session
// rooted at "/".
func NewSession(client *Client) *Session {
	return &Session{
		client: client,
		cwd:    "/",
	}
}

// CurrentDirectory returns the session's working directory.
func (s *Session) CurrentDirectory() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cwd
}

// ChangeDirectory moves the working directory to target and returns the
// new one. The target is resolved lexically against the current working
// directory; the remote is not consulted, so a change into a missing
// directory succeeds here and fails on the next listing.
func (s *Session) ChangeDirectory(target string) (string, error) {
	resolved, err := s.resolve(target)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.cwd = resolved
	s.mu.Unlock()

	return resolved, nil
}

// resolve turns target into an absolute share path using POSIX lexical
// rules: absolute targets replace the working directory, relative ones
// append to it, dot and dot-dot fold away, and dot-dot at the root stays
// at the root. Only a NUL byte makes a target unresolvable.
func (s *Session) resolve(target string) (string, error) {
	if strings.IndexByte(target, 0) >= 0 {
		return "", provider.NewPathResolutionError(target, "path contains a NUL byte")
	}

	s.mu.Lock()
	base := s.cwd
	s.mu.Unlock()

	if target == "" {
		return base, nil
	}
	if path.IsAbs(target) {
		return path.Clean(target), nil
	}
	return path.Join(base, target), nil
}

// List fetches the complete listing of the directory at target.
//
// Pages of PageSize records are requested until a short page arrives;
// results concatenate in fetch order. If any page fails, the whole
// listing fails and nothing fetched so far is returned.
func (s *Session) List(ctx context.Context, target string) ([]provider.FileAttributes, error) {
	dir, err := s.resolve(target)
	if err != nil {
		return nil, err
	}

	var entries []provider.FileAttributes
	for offset := 0; ; offset += PageSize {
		page, err := s.client.ListPage(ctx, dir, offset, PageSize)
		if err != nil {
			return nil, err
		}
		for _, record := range page {
			entries = append(entries, RecordAttributes(record))
		}
		if len(page) < PageSize {
			return entries, nil
		}
	}
}

// Read opens the file at target for streaming download.
func (s *Session) Read(ctx context.Context, target string) (io.ReadCloser, error) {
	filePath, err := s.resolve(target)
	if err != nil {
		return nil, err
	}
	return s.client.DownloadStream(ctx, filePath)
}

// Write opens the file at target for streaming upload.
func (s *Session) Write(ctx context.Context, target string) (io.WriteCloser, error) {
	filePath, err := s.resolve(target)
	if err != nil {
		return nil, err
	}
	return s.client.UploadStream(ctx, filePath)
}

// The share API exposes no namespace mutation, so everything below fails
// with the provider's unsupported error. Targets are still resolved so
// the error names the path the client was aiming at; no remote call is
// made.

// MakeDirectory always fails: shares cannot grow directories.
func (s *Session) MakeDirectory(_ context.Context, target string) error {
	p, err := s.resolve(target)
	if err != nil {
		return err
	}
	return provider.NewUnsupported("mkdir", p)
}

// DeleteEntry always fails: shares cannot delete nodes.
func (s *Session) DeleteEntry(_ context.Context, target string) error {
	p, err := s.resolve(target)
	if err != nil {
		return err
	}
	return provider.NewUnsupported("delete", p)
}

// Rename always fails: shares cannot move nodes.
func (s *Session) Rename(_ context.Context, from, _ string) error {
	p, err := s.resolve(from)
	if err != nil {
		return err
	}
	return provider.NewUnsupported("rename", p)
}

// ChangeMode always fails: shares carry no permission model.
func (s *Session) ChangeMode(_ context.Context, target string, _ os.FileMode) error {
	p, err := s.resolve(target)
	if err != nil {
		return err
	}
	return provider.NewUnsupported("chmod", p)
}

// UniqueName always fails: the API offers no way to reserve a name.
func (s *Session) UniqueName(_ context.Context) (string, error) {
	return "", provider.NewUnsupported("unique-name", s.CurrentDirectory())
}
