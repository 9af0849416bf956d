package provider

import (
	"os"
	"time"
)

// Placeholder identity and permission values reported for every entry.
//
// Remote shared-folder backends have no POSIX identity model, but file
// transfer protocols insist on one. Backends fill these constants into
// every FileAttributes they produce so clients see a stable, read-friendly
// shape instead of per-backend guesses.
const (
	// DefaultFileMode is the permission set reported for regular files.
	DefaultFileMode os.FileMode = 0o644

	// DefaultDirMode is the permission set reported for directories.
	DefaultDirMode os.FileMode = os.ModeDir | 0o755

	// DefaultUID and DefaultGID are the numeric owner reported for all
	// entries.
	DefaultUID uint32 = 1000
	DefaultGID uint32 = 1000

	// DefaultLinkCount is the hard-link count reported for all entries.
	DefaultLinkCount uint32 = 1
)

// FileAttributes describes one file or directory as seen by a protocol
// adapter.
//
// Only Name, Size, MTime and Directory carry backend truth. Mode, UID,
// GID and Links carry the placeholder constants above; Mode never
// contains symlink, device, socket or FIFO bits.
type FileAttributes struct {
	// Name is the leaf name of the entry, without any path components.
	Name string

	// Size is the entry size in bytes as reported by the backend.
	Size int64

	// MTime is the entry's last modification time.
	MTime time.Time

	// Directory reports whether the entry is a directory.
	Directory bool

	// Mode holds the reported permission bits (DefaultFileMode or
	// DefaultDirMode depending on Directory).
	Mode os.FileMode

	// UID and GID hold the reported numeric owner.
	UID uint32
	GID uint32

	// Links holds the reported hard-link count.
	Links uint32
}
