package ftp

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	ftpclient "github.com/jlaffaye/ftp"
	"github.com/stretchr/testify/require"

	"github.com/Kevinjil/stack-share-to-ftp/pkg/registry"
	"github.com/Kevinjil/stack-share-to-ftp/pkg/stack"
	stacktesting "github.com/Kevinjil/stack-share-to-ftp/pkg/stack/testing"
)

// freePort grabs a port from the kernel and releases it again. There is
// a small window in which another process could claim it, acceptable for
// tests.
func freePort(t *testing.T) int {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

// dialFTP connects to the adapter, retrying until the listener is up.
func dialFTP(t *testing.T, port int) *ftpclient.ServerConn {
	t.Helper()

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	deadline := time.Now().Add(5 * time.Second)
	for {
		conn, err := ftpclient.Dial(addr, ftpclient.DialWithTimeout(time.Second))
		if err == nil {
			return conn
		}
		if time.Now().After(deadline) {
			t.Fatalf("FTP server never came up on %s: %v", addr, err)
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func TestFTPAdapterEndToEnd(t *testing.T) {
	srv := stacktesting.NewShareServer("demo", "hunter2")
	defer srv.Close()

	srv.AddDirectory("/docs", 1700000000)
	srv.AddFile("/docs/report.txt", []byte("quarterly numbers"), 1700000001)
	srv.AddFile("/readme.md", []byte("hello"), 1700000002)

	reg := registry.NewRegistry()
	a := New(FTPConfig{
		Port:            freePort(t),
		ShutdownTimeout: 2 * time.Second,
	}, reg, nil)
	a.SetBinder(stack.NewBinder(stack.Options{Scheme: "http"}, nil))

	require.Equal(t, "FTP", a.Protocol())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	served := make(chan error, 1)
	go func() { served <- a.Serve(ctx) }()

	conn := dialFTP(t, a.Port())
	defer func() { _ = conn.Quit() }()

	require.NoError(t, conn.Login(srv.Identity(), srv.Password))
	require.Equal(t, 1, reg.Count())

	// Directory listing over the wire.
	entries, err := conn.List("/")
	require.NoError(t, err)

	byName := map[string]*ftpclient.Entry{}
	for _, e := range entries {
		byName[e.Name] = e
	}
	require.Contains(t, byName, "docs")
	require.Contains(t, byName, "readme.md")
	require.Equal(t, ftpclient.EntryTypeFolder, byName["docs"].Type)
	require.Equal(t, ftpclient.EntryTypeFile, byName["readme.md"].Type)
	require.Equal(t, uint64(len("hello")), byName["readme.md"].Size)

	// Relative paths resolve against the working directory.
	require.NoError(t, conn.ChangeDir("docs"))
	cur, err := conn.CurrentDir()
	require.NoError(t, err)
	require.Equal(t, "/docs", cur)

	// Download.
	resp, err := conn.Retr("report.txt")
	require.NoError(t, err)
	body, err := io.ReadAll(resp)
	require.NoError(t, err)
	require.NoError(t, resp.Close())
	require.Equal(t, "quarterly numbers", string(body))

	// Upload lands at the resolved remote path.
	require.NoError(t, conn.Stor("upload.bin", strings.NewReader("fresh bytes")))
	uploaded, ok := srv.Uploaded("/docs/upload.bin")
	require.True(t, ok)
	require.Equal(t, "fresh bytes", string(uploaded))

	// Mutating commands are refused by the backend.
	require.Error(t, conn.Delete("report.txt"))
	require.Error(t, conn.MakeDir("newdir"))

	// A second connection with a bad password is turned away.
	bad := dialFTP(t, a.Port())
	require.Error(t, bad.Login(srv.Identity(), "wrong-password"))
	_ = bad.Quit()
	require.Equal(t, 1, reg.Count())

	cancel()
	select {
	case err := <-served:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("FTP server did not shut down")
	}
}

func TestFTPAdapterServeWithoutBinder(t *testing.T) {
	a := New(FTPConfig{Port: 2121}, nil, nil)

	err := a.Serve(context.Background())
	require.Error(t, err)
}

func TestFTPAdapterStopIsIdempotent(t *testing.T) {
	a := New(FTPConfig{Port: 2121}, nil, nil)

	require.NoError(t, a.Stop(context.Background()))
	require.NoError(t, a.Stop(context.Background()))
}
