package ftp

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	ftpserver "goftp.io/server/core"

	"github.com/Kevinjil/stack-share-to-ftp/pkg/provider"
	"github.com/Kevinjil/stack-share-to-ftp/pkg/registry"
	"github.com/Kevinjil/stack-share-to-ftp/pkg/stack"
	stacktesting "github.com/Kevinjil/stack-share-to-ftp/pkg/stack/testing"
)

func newTestAdapter(t *testing.T) (*FTPAdapter, *stacktesting.ShareServer, *registry.Registry) {
	t.Helper()

	srv := stacktesting.NewShareServer("demo", "hunter2")
	t.Cleanup(srv.Close)

	reg := registry.NewRegistry()
	a := New(FTPConfig{Port: 2121}, reg, nil)
	a.SetBinder(stack.NewBinder(stack.Options{Scheme: "http"}, nil))
	return a, srv, reg
}

func newBoundDriver(t *testing.T, a *FTPAdapter, srv *stacktesting.ShareServer) *driver {
	t.Helper()

	fd, err := a.NewDriver()
	require.NoError(t, err)

	d, ok := fd.(*driver)
	require.True(t, ok)

	authed, err := d.CheckPasswd(srv.Identity(), srv.Password)
	require.NoError(t, err)
	require.True(t, authed)
	return d
}

func TestDriverCheckPasswdBindsSession(t *testing.T) {
	a, srv, reg := newTestAdapter(t)

	newBoundDriver(t, a, srv)

	require.Equal(t, 1, srv.Logins())
	require.Equal(t, 1, reg.Count())

	sessions := reg.List()
	require.Len(t, sessions, 1)
	require.Equal(t, srv.Identity(), sessions[0].Identity)
}

func TestDriverCheckPasswdDenied(t *testing.T) {
	a, srv, reg := newTestAdapter(t)

	fd, err := a.NewDriver()
	require.NoError(t, err)
	d := fd.(*driver)

	authed, err := d.CheckPasswd(srv.Identity(), "wrong-password")
	require.NoError(t, err)
	require.False(t, authed)
	require.Equal(t, 0, reg.Count())
}

func TestDriverCheckPasswdUnreachableShare(t *testing.T) {
	srv := stacktesting.NewShareServer("demo", "hunter2")
	identity := srv.Identity()
	password := srv.Password
	srv.Close()

	a := New(FTPConfig{Port: 2121}, nil, nil)
	a.SetBinder(stack.NewBinder(stack.Options{Scheme: "http"}, nil))

	fd, err := a.NewDriver()
	require.NoError(t, err)
	d := fd.(*driver)

	authed, err := d.CheckPasswd(identity, password)
	require.Error(t, err)
	require.False(t, authed)
}

func TestDriverRequiresLogin(t *testing.T) {
	a, _, _ := newTestAdapter(t)

	fd, err := a.NewDriver()
	require.NoError(t, err)
	d := fd.(*driver)

	_, err = d.Stat("/")
	require.Error(t, err)

	err = d.ListDir("/", func(ftpserver.FileInfo) error { return nil })
	require.Error(t, err)
}

func TestDriverStat(t *testing.T) {
	a, srv, _ := newTestAdapter(t)
	srv.AddDirectory("/docs", 1700000000)
	srv.AddFile("/docs/report.txt", []byte("quarterly numbers"), 1700000001)

	d := newBoundDriver(t, a, srv)

	fi, err := d.Stat("/")
	require.NoError(t, err)
	require.True(t, fi.IsDir())

	fi, err = d.Stat("/docs")
	require.NoError(t, err)
	require.True(t, fi.IsDir())
	require.Equal(t, "docs", fi.Name())

	fi, err = d.Stat("/docs/report.txt")
	require.NoError(t, err)
	require.False(t, fi.IsDir())
	require.Equal(t, int64(len("quarterly numbers")), fi.Size())
	require.Equal(t, "1000", fi.Owner())
	require.Equal(t, "1000", fi.Group())

	_, err = d.Stat("/docs/missing.txt")
	require.Error(t, err)
}

func TestDriverListDir(t *testing.T) {
	a, srv, _ := newTestAdapter(t)
	srv.AddDirectory("/docs", 1700000000)
	srv.AddFile("/docs/report.txt", []byte("quarterly numbers"), 1700000001)
	srv.AddFile("/readme.md", []byte("hello"), 1700000002)

	d := newBoundDriver(t, a, srv)

	var names []string
	err := d.ListDir("/", func(fi ftpserver.FileInfo) error {
		names = append(names, fi.Name())
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"docs", "readme.md"}, names)

	names = names[:0]
	err = d.ListDir("/docs", func(fi ftpserver.FileInfo) error {
		names = append(names, fi.Name())
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"report.txt"}, names)
}

func TestDriverListDirCallbackErrorAborts(t *testing.T) {
	a, srv, _ := newTestAdapter(t)
	srv.AddFile("/a.txt", []byte("a"), 1)
	srv.AddFile("/b.txt", []byte("b"), 2)

	d := newBoundDriver(t, a, srv)

	boom := errors.New("list aborted")
	seen := 0
	err := d.ListDir("/", func(ftpserver.FileInfo) error {
		seen++
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, seen)
}

func TestDriverGetFile(t *testing.T) {
	a, srv, _ := newTestAdapter(t)
	srv.AddDirectory("/docs", 1)
	srv.AddFile("/notes.txt", []byte("0123456789"), 2)

	d := newBoundDriver(t, a, srv)

	size, rc, err := d.GetFile("/notes.txt", 0)
	require.NoError(t, err)
	require.Equal(t, int64(10), size)

	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	require.Equal(t, "0123456789", string(body))

	_, _, err = d.GetFile("/docs", 0)
	require.Error(t, err)

	_, _, err = d.GetFile("/gone.txt", 0)
	require.Error(t, err)
}

func TestDriverGetFileWithRestartOffset(t *testing.T) {
	a, srv, _ := newTestAdapter(t)
	srv.AddFile("/notes.txt", []byte("0123456789"), 1)

	d := newBoundDriver(t, a, srv)

	size, rc, err := d.GetFile("/notes.txt", 4)
	require.NoError(t, err)
	require.Equal(t, int64(6), size)

	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	require.Equal(t, "456789", string(body))
}

func TestDriverPutFile(t *testing.T) {
	a, srv, _ := newTestAdapter(t)

	d := newBoundDriver(t, a, srv)

	n, err := d.PutFile("/incoming/data.bin", strings.NewReader("fresh bytes"), false)
	require.NoError(t, err)
	require.Equal(t, int64(len("fresh bytes")), n)

	got, ok := srv.Uploaded("/incoming/data.bin")
	require.True(t, ok)
	require.Equal(t, "fresh bytes", string(got))
}

func TestDriverPutFileAppendRejected(t *testing.T) {
	a, srv, _ := newTestAdapter(t)

	d := newBoundDriver(t, a, srv)

	_, err := d.PutFile("/data.bin", strings.NewReader("x"), true)
	require.True(t, provider.IsUnsupported(err))
	require.Empty(t, srv.Uploads())
}

func TestDriverWriteOperationsRejected(t *testing.T) {
	a, srv, _ := newTestAdapter(t)
	srv.AddDirectory("/docs", 1)
	srv.AddFile("/readme.md", []byte("hello"), 2)

	d := newBoundDriver(t, a, srv)
	before := len(srv.ListRequests())

	require.True(t, provider.IsUnsupported(d.MakeDir("/newdir")))
	require.True(t, provider.IsUnsupported(d.DeleteFile("/readme.md")))
	require.True(t, provider.IsUnsupported(d.DeleteDir("/docs")))
	require.True(t, provider.IsUnsupported(d.Rename("/readme.md", "/readme.bak")))

	// None of the rejected operations may have called the remote.
	require.Len(t, srv.ListRequests(), before)
	require.Empty(t, srv.Uploads())
}
