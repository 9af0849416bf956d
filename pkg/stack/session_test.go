package stack_test

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/Kevinjil/stack-share-to-ftp/pkg/provider"
	"github.com/Kevinjil/stack-share-to-ftp/pkg/stack"
	stacktesting "github.com/Kevinjil/stack-share-to-ftp/pkg/stack/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T, srv *stacktesting.ShareServer) *stack.Session {
	t.Helper()

	client := newTestClient(t, srv)
	require.NoError(t, client.Authenticate(context.Background(), srv.Password))
	return stack.NewSession(client)
}

func TestSession_ListPaginates(t *testing.T) {
	srv := stacktesting.NewShareServer("abc123", "secret")
	defer srv.Close()
	for i := 0; i < 234; i++ {
		srv.AddFile(fmt.Sprintf("/f%03d.txt", i), []byte("x"), int64(i))
	}

	session := newTestSession(t, srv)

	entries, err := session.List(context.Background(), "/")
	require.NoError(t, err)
	require.Len(t, entries, 234)

	// Concatenated in fetch order.
	assert.Equal(t, "f000.txt", entries[0].Name)
	assert.Equal(t, "f100.txt", entries[100].Name)
	assert.Equal(t, "f233.txt", entries[233].Name)

	// Three pages: 100, 100, then the short page of 34 terminates.
	reqs := srv.ListRequests()
	require.Len(t, reqs, 3)
	assert.Equal(t, stacktesting.ListRequest{Dir: "/", Offset: 0, Limit: 100}, reqs[0])
	assert.Equal(t, stacktesting.ListRequest{Dir: "/", Offset: 100, Limit: 100}, reqs[1])
	assert.Equal(t, stacktesting.ListRequest{Dir: "/", Offset: 200, Limit: 100}, reqs[2])
}

func TestSession_ListExactMultipleFetchesTrailingEmptyPage(t *testing.T) {
	srv := stacktesting.NewShareServer("abc123", "secret")
	defer srv.Close()
	for i := 0; i < 200; i++ {
		srv.AddFile(fmt.Sprintf("/f%03d.txt", i), []byte("x"), int64(i))
	}

	session := newTestSession(t, srv)

	entries, err := session.List(context.Background(), "/")
	require.NoError(t, err)
	require.Len(t, entries, 200)

	// A listing that is an exact multiple of the page size cannot know it
	// is done until an empty page arrives: expect exactly one extra
	// request beyond the data pages.
	reqs := srv.ListRequests()
	require.Len(t, reqs, 3)
	assert.Equal(t, 200, reqs[2].Offset)
}

func TestSession_ListEmptyDirectory(t *testing.T) {
	srv := stacktesting.NewShareServer("abc123", "secret")
	defer srv.Close()

	session := newTestSession(t, srv)

	entries, err := session.List(context.Background(), "/")
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Len(t, srv.ListRequests(), 1)
}

func TestSession_ListFailingPageDiscardsEverything(t *testing.T) {
	srv := stacktesting.NewShareServer("abc123", "secret")
	defer srv.Close()
	for i := 0; i < 150; i++ {
		srv.AddFile(fmt.Sprintf("/f%03d.txt", i), []byte("x"), int64(i))
	}
	srv.SetFailListAtOffset(100)

	session := newTestSession(t, srv)

	entries, err := session.List(context.Background(), "/")
	require.Error(t, err)
	assert.True(t, provider.IsRemoteAPI(err))

	// No partial results alongside the error.
	assert.Nil(t, entries)
}

func TestSession_ListResolvesAgainstCwd(t *testing.T) {
	srv := stacktesting.NewShareServer("abc123", "secret")
	defer srv.Close()
	srv.AddDirectory("/docs", 1)
	srv.AddFile("/docs/a.txt", []byte("a"), 2)

	session := newTestSession(t, srv)

	_, err := session.ChangeDirectory("docs")
	require.NoError(t, err)

	entries, err := session.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.txt", entries[0].Name)

	reqs := srv.ListRequests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/docs", reqs[0].Dir)
}

func TestSession_ReadStreamsContent(t *testing.T) {
	srv := stacktesting.NewShareServer("abc123", "secret")
	defer srv.Close()
	srv.AddFile("/docs/report.pdf", []byte("pdf-bytes"), 1)

	session := newTestSession(t, srv)

	_, err := session.ChangeDirectory("/docs")
	require.NoError(t, err)

	rc, err := session.Read(context.Background(), "report.pdf")
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "pdf-bytes", string(body))
}

func TestSession_WriteStreamsToResolvedPath(t *testing.T) {
	srv := stacktesting.NewShareServer("abc123", "secret")
	defer srv.Close()

	session := newTestSession(t, srv)

	_, err := session.ChangeDirectory("/incoming")
	require.NoError(t, err)

	sink, err := session.Write(context.Background(), "upload.bin")
	require.NoError(t, err)
	_, err = sink.Write([]byte("payload"))
	require.NoError(t, err)
	require.NoError(t, sink.Close())

	got, ok := srv.Uploaded("/incoming/upload.bin")
	require.True(t, ok)
	assert.Equal(t, "payload", string(got))
}

func TestSession_UnsupportedOperations(t *testing.T) {
	srv := stacktesting.NewShareServer("abc123", "secret")
	defer srv.Close()

	session := newTestSession(t, srv)
	ctx := context.Background()

	ops := []struct {
		name string
		call func() error
	}{
		{"mkdir", func() error { return session.MakeDirectory(ctx, "newdir") }},
		{"delete", func() error { return session.DeleteEntry(ctx, "victim.txt") }},
		{"rename", func() error { return session.Rename(ctx, "a.txt", "b.txt") }},
		{"chmod", func() error { return session.ChangeMode(ctx, "a.txt", 0o600) }},
		{"unique-name", func() error { _, err := session.UniqueName(ctx); return err }},
	}

	for _, op := range ops {
		t.Run(op.name, func(t *testing.T) {
			err := op.call()
			require.Error(t, err)
			assert.True(t, provider.IsUnsupported(err), "want unsupported, got %v", err)
		})
	}

	// None of these may touch the remote.
	assert.Empty(t, srv.ListRequests())
}
