package ftp

import (
	"context"
	"io"
	"path"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	ftpserver "goftp.io/server/core"

	"github.com/Kevinjil/stack-share-to-ftp/internal/logger"
	"github.com/Kevinjil/stack-share-to-ftp/pkg/metrics"
	"github.com/Kevinjil/stack-share-to-ftp/pkg/provider"
)

// driver serves the engine callbacks for a single client connection.
//
// The engine resolves relative paths against the session working directory
// before calling the driver, so every path argument below is absolute.
// A driver starts unbound; CheckPasswd binds it to a backend session and
// all other callbacks fail until that happened.
type driver struct {
	adapter *FTPAdapter
	connID  string

	mu   sync.Mutex
	fsys provider.FileSystem
}

func newDriver(a *FTPAdapter) *driver {
	return &driver{
		adapter: a,
		connID:  uuid.NewString(),
	}
}

// CheckPasswd authenticates the login against the remote share.
//
// The username carries the share identity ("share@domain") and the
// password is the share password. On success the driver holds the bound
// file system for the rest of the connection.
//
// Returns (false, nil) when the share rejects the credentials and
// (false, err) when the share could not be reached, so the engine can
// distinguish a bad password from an outage.
func (d *driver) CheckPasswd(user, pass string) (bool, error) {
	fsys, err := d.adapter.binder.Bind(d.adapter.shutdownCtx, d.connID, user, pass)
	if err != nil {
		if provider.IsAuthenticationFailed(err) {
			logger.Info("FTP login denied for %q: %v", user, err)
			d.adapter.metrics.RecordLogin("denied")
			return false, nil
		}
		logger.Warn("FTP login error for %q: %v", user, err)
		d.adapter.metrics.RecordLogin("error")
		return false, err
	}

	d.mu.Lock()
	d.fsys = fsys
	d.mu.Unlock()

	d.adapter.sessions.Register(d.connID, user, time.Now())
	d.adapter.metrics.RecordLogin("success")
	return true, nil
}

// fileSystem returns the bound file system or an error when the client
// has not logged in yet.
func (d *driver) fileSystem() (provider.FileSystem, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fsys == nil {
		return nil, errors.New("not logged in")
	}
	return d.fsys, nil
}

// finish records command metrics and marks the session as recently used.
func (d *driver) finish(command string, start time.Time, err error) {
	d.adapter.sessions.Touch(d.connID, time.Now())
	d.adapter.metrics.RecordCommand(command, time.Since(start), err)
}

// Stat returns the attributes of a file or directory.
func (d *driver) Stat(p string) (fi ftpserver.FileInfo, err error) {
	start := time.Now()
	defer func() { d.finish("STAT", start, err) }()

	fsys, err := d.fileSystem()
	if err != nil {
		return nil, err
	}

	attr, err := statPath(d.adapter.shutdownCtx, fsys, p)
	if err != nil {
		return nil, err
	}
	return &fileInfo{attr: attr}, nil
}

// ChangeDir moves the session working directory.
//
// Resolution is purely lexical. The remote is not consulted, a change
// into a directory that does not exist succeeds and later listings of it
// come back empty.
func (d *driver) ChangeDir(p string) (err error) {
	start := time.Now()
	defer func() { d.finish("CWD", start, err) }()

	fsys, err := d.fileSystem()
	if err != nil {
		return err
	}

	_, err = fsys.ChangeDirectory(p)
	return err
}

// ListDir streams the entries of a directory to the engine callback.
func (d *driver) ListDir(p string, callback func(ftpserver.FileInfo) error) (err error) {
	start := time.Now()
	defer func() { d.finish("LIST", start, err) }()

	fsys, err := d.fileSystem()
	if err != nil {
		return err
	}

	entries, err := fsys.List(d.adapter.shutdownCtx, p)
	if err != nil {
		return err
	}

	for _, attr := range entries {
		if err = callback(&fileInfo{attr: attr}); err != nil {
			return err
		}
	}
	return nil
}

// DeleteDir rejects directory removal, the share is list/read/write only.
func (d *driver) DeleteDir(p string) (err error) {
	start := time.Now()
	defer func() { d.finish("RMD", start, err) }()

	fsys, err := d.fileSystem()
	if err != nil {
		return err
	}
	return fsys.DeleteEntry(d.adapter.shutdownCtx, p)
}

// DeleteFile rejects file removal, the share is list/read/write only.
func (d *driver) DeleteFile(p string) (err error) {
	start := time.Now()
	defer func() { d.finish("DELE", start, err) }()

	fsys, err := d.fileSystem()
	if err != nil {
		return err
	}
	return fsys.DeleteEntry(d.adapter.shutdownCtx, p)
}

// Rename rejects renames, the share offers no move operation.
func (d *driver) Rename(oldName, newName string) (err error) {
	start := time.Now()
	defer func() { d.finish("RNTO", start, err) }()

	fsys, err := d.fileSystem()
	if err != nil {
		return err
	}
	return fsys.Rename(d.adapter.shutdownCtx, oldName, newName)
}

// MakeDir rejects directory creation, the share offers no such call.
func (d *driver) MakeDir(p string) (err error) {
	start := time.Now()
	defer func() { d.finish("MKD", start, err) }()

	fsys, err := d.fileSystem()
	if err != nil {
		return err
	}
	return fsys.MakeDirectory(d.adapter.shutdownCtx, p)
}

// GetFile downloads a file, optionally skipping a restart offset.
//
// The remote cannot seek, so a restart offset is honored by reading and
// discarding the prefix of the stream.
func (d *driver) GetFile(p string, offset int64) (size int64, rc io.ReadCloser, err error) {
	start := time.Now()
	defer func() { d.finish("RETR", start, err) }()

	fsys, err := d.fileSystem()
	if err != nil {
		return 0, nil, err
	}

	ctx := d.adapter.shutdownCtx
	attr, err := statPath(ctx, fsys, p)
	if err != nil {
		return 0, nil, err
	}
	if attr.Directory {
		return 0, nil, errors.Errorf("not a file: %s", p)
	}

	stream, err := fsys.Read(ctx, p)
	if err != nil {
		return 0, nil, err
	}

	if offset > 0 {
		if _, err := io.CopyN(io.Discard, stream, offset); err != nil {
			_ = stream.Close()
			return 0, nil, errors.Wrapf(err, "failed to skip to offset %d", offset)
		}
	}

	remaining := attr.Size - offset
	if remaining < 0 {
		remaining = 0
	}
	return remaining, &countingReader{ReadCloser: stream, metrics: d.adapter.metrics}, nil
}

// PutFile uploads a file from the engine's data connection.
//
// The data is streamed to the remote as it arrives. Append mode is not
// supported because the share cannot extend existing files. The upload
// verdict only exists once the remote has seen the full request, so
// failures surface when the sink is closed.
func (d *driver) PutFile(p string, data io.Reader, appendData bool) (n int64, err error) {
	start := time.Now()
	defer func() { d.finish("STOR", start, err) }()

	fsys, err := d.fileSystem()
	if err != nil {
		return 0, err
	}

	if appendData {
		return 0, provider.NewUnsupported("append", p)
	}

	sink, err := fsys.Write(d.adapter.shutdownCtx, p)
	if err != nil {
		return 0, err
	}

	n, err = io.Copy(sink, data)
	cerr := sink.Close()
	if err != nil {
		return n, errors.Wrapf(err, "upload of %s interrupted", p)
	}
	if cerr != nil {
		return n, cerr
	}

	d.adapter.metrics.RecordBytesTransferred("upload", n)
	return n, nil
}

// statPath resolves the attributes of an entry by listing its parent
// directory. The remote offers no dedicated stat call. The root always
// exists and gets synthetic attributes, it is not contained in any
// listing.
func statPath(ctx context.Context, fsys provider.FileSystem, p string) (provider.FileAttributes, error) {
	clean := path.Clean(p)
	if clean == "/" || clean == "" || clean == "." {
		return rootAttributes(), nil
	}

	entries, err := fsys.List(ctx, path.Dir(clean))
	if err != nil {
		return provider.FileAttributes{}, err
	}

	leaf := path.Base(clean)
	for _, attr := range entries {
		if attr.Name == leaf {
			return attr, nil
		}
	}
	return provider.FileAttributes{}, errors.Errorf("no such file or directory: %s", p)
}

// rootAttributes returns the synthetic attributes of the share root.
func rootAttributes() provider.FileAttributes {
	return provider.FileAttributes{
		Name:      "/",
		Directory: true,
		Mode:      provider.DefaultDirMode,
		MTime:     time.Unix(0, 0),
		UID:       provider.DefaultUID,
		GID:       provider.DefaultGID,
		Links:     provider.DefaultLinkCount,
	}
}

// countingReader reports downloaded payload bytes when the transfer ends.
type countingReader struct {
	io.ReadCloser
	metrics metrics.FTPMetrics
	bytes   int64
}

func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.ReadCloser.Read(p)
	r.bytes += int64(n)
	return n, err
}

func (r *countingReader) Close() error {
	r.metrics.RecordBytesTransferred("download", r.bytes)
	return r.ReadCloser.Close()
}
