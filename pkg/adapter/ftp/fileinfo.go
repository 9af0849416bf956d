package ftp

import (
	"os"
	"strconv"
	"time"

	"github.com/Kevinjil/stack-share-to-ftp/pkg/provider"
)

// fileInfo adapts provider.FileAttributes to the engine's file info
// interface, which extends os.FileInfo with ownership strings.
type fileInfo struct {
	attr provider.FileAttributes
}

func (f *fileInfo) Name() string       { return f.attr.Name }
func (f *fileInfo) Size() int64        { return f.attr.Size }
func (f *fileInfo) Mode() os.FileMode  { return f.attr.Mode }
func (f *fileInfo) ModTime() time.Time { return f.attr.MTime }
func (f *fileInfo) IsDir() bool        { return f.attr.Directory }
func (f *fileInfo) Sys() any           { return nil }

// Owner returns the numeric owner shown in listings. The share has no
// user database, entries carry synthetic identifiers.
func (f *fileInfo) Owner() string {
	return strconv.FormatUint(uint64(f.attr.UID), 10)
}

// Group returns the numeric group shown in listings.
func (f *fileInfo) Group() string {
	return strconv.FormatUint(uint64(f.attr.GID), 10)
}
