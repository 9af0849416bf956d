package stack

import (
	"strings"
	"time"

	"github.com/Kevinjil/stack-share-to-ftp/pkg/provider"
)

// RecordAttributes adapts one remote file record into the attribute shape
// the protocol layer consumes.
//
// The leaf name is the substring after the record path's last slash. Size
// and modification time pass through as reported. Ownership, permission
// and link fields carry the provider placeholder constants; the mode is
// derived solely from the directory sentinel mimetype, so no symlink,
// device, socket or FIFO bits can ever appear.
func RecordAttributes(record RemoteFileRecord) provider.FileAttributes {
	name := record.Path
	if i := strings.LastIndexByte(record.Path, '/'); i >= 0 {
		name = record.Path[i+1:]
	}

	dir := record.MimeType == directoryMimeType
	mode := provider.DefaultFileMode
	if dir {
		mode = provider.DefaultDirMode
	}

	return provider.FileAttributes{
		Name:      name,
		Size:      record.FileSize,
		MTime:     time.Unix(record.MTime, 0),
		Directory: dir,
		Mode:      mode,
		UID:       provider.DefaultUID,
		GID:       provider.DefaultGID,
		Links:     provider.DefaultLinkCount,
	}
}
