package e2e

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	ftpclient "github.com/jlaffaye/ftp"

	"github.com/Kevinjil/stack-share-to-ftp/internal/logger"
	"github.com/Kevinjil/stack-share-to-ftp/pkg/config"
	"github.com/Kevinjil/stack-share-to-ftp/pkg/registry"
	"github.com/Kevinjil/stack-share-to-ftp/pkg/server"
	stacktesting "github.com/Kevinjil/stack-share-to-ftp/pkg/stack/testing"
)

// TestContext provides a complete testing environment with:
// - A fake STACK share that tests seed with files and directories
// - A running bridge server wired the same way cmd/stack-share-to-ftp wires it
// - Cleanup mechanisms
type TestContext struct {
	T        *testing.T
	Share    *stacktesting.ShareServer
	Sessions *registry.Registry
	Server   *server.BridgeServer
	Port     int

	ctx    context.Context
	cancel context.CancelFunc
	served chan error

	shutdownOnce sync.Once
	serveErr     error
}

// NewTestContext boots the whole bridge from a generated configuration
// file. The path from YAML to a listening FTP port is the same one the
// main binary takes: Load, InitializeMetrics, CreateBinder,
// CreateAdapters, BridgeServer.
func NewTestContext(t *testing.T) *TestContext {
	t.Helper()

	// Always use ERROR level to keep test output clean.
	// These are functional tests, not debugging sessions.
	logger.SetLevel("ERROR")

	share := stacktesting.NewShareServer("demo", "hunter2")
	t.Cleanup(share.Close)

	port := findFreePort(t)

	cfg, err := config.Load(writeConfigFile(t, port))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	metricsResult := config.InitializeMetrics(cfg)

	binder, err := config.CreateBinder(cfg, metricsResult.StackMetrics)
	if err != nil {
		t.Fatalf("Failed to create binder: %v", err)
	}

	sessions := registry.NewRegistry()
	adapters, err := config.CreateAdapters(cfg, sessions, metricsResult.FTPMetrics)
	if err != nil {
		t.Fatalf("Failed to create adapters: %v", err)
	}

	srv := server.New(binder, cfg.Server.ShutdownTimeout)
	for _, a := range adapters {
		if err := srv.AddAdapter(a); err != nil {
			t.Fatalf("Failed to register adapter: %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	tc := &TestContext{
		T:        t,
		Share:    share,
		Sessions: sessions,
		Server:   srv,
		Port:     port,
		ctx:      ctx,
		cancel:   cancel,
		served:   make(chan error, 1),
	}
	t.Cleanup(tc.cleanup)

	go func() { tc.served <- srv.Serve(ctx) }()
	tc.waitForServer()

	return tc
}

// Shutdown cancels the bridge and waits for Serve to return. Safe to
// call more than once; later calls return the first result.
func (tc *TestContext) Shutdown() error {
	tc.shutdownOnce.Do(func() {
		tc.cancel()
		select {
		case tc.serveErr = <-tc.served:
		case <-time.After(10 * time.Second):
			tc.T.Error("Bridge did not shut down in time")
		}
	})
	return tc.serveErr
}

// cleanup stops the bridge if the test did not already do so. The fake
// share is closed by its own t.Cleanup, which runs after this one.
func (tc *TestContext) cleanup() {
	if err := tc.Shutdown(); err != nil && err != context.Canceled {
		tc.T.Errorf("Bridge returned unexpected error: %v", err)
	}
}

// Dial connects an FTP client to the bridge.
func (tc *TestContext) Dial() *ftpclient.ServerConn {
	tc.T.Helper()

	addr := fmt.Sprintf("127.0.0.1:%d", tc.Port)
	conn, err := ftpclient.Dial(addr, ftpclient.DialWithTimeout(5*time.Second))
	if err != nil {
		tc.T.Fatalf("Failed to dial bridge at %s: %v", addr, err)
	}
	tc.T.Cleanup(func() { _ = conn.Quit() })
	return conn
}

// DialAndLogin connects and authenticates with the share credentials.
func (tc *TestContext) DialAndLogin() *ftpclient.ServerConn {
	tc.T.Helper()

	conn := tc.Dial()
	if err := conn.Login(tc.Share.Identity(), tc.Share.Password); err != nil {
		tc.T.Fatalf("Failed to log in as %s: %v", tc.Share.Identity(), err)
	}
	return conn
}

// waitForServer blocks until the FTP listener accepts connections.
func (tc *TestContext) waitForServer() {
	tc.T.Helper()

	addr := fmt.Sprintf("127.0.0.1:%d", tc.Port)
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 500*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	tc.T.Fatalf("Bridge never came up on %s", addr)
}

// writeConfigFile renders a bridge configuration for a test run and
// returns its path. The backend speaks plain HTTP because the fake
// share has no TLS.
func writeConfigFile(t *testing.T, port int) string {
	t.Helper()

	content := fmt.Sprintf(`logging:
  level: "ERROR"
  format: "console"
  output: "stderr"

server:
  shutdown_timeout: "5s"
  metrics:
    enabled: false

backend:
  type: "stack"
  stack:
    scheme: "http"

adapters:
  ftp:
    enabled: true
    port: %d
    bind_address: "127.0.0.1"
    shutdown_timeout: "2s"
`, port)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

// findFreePort finds an available port
func findFreePort(t *testing.T) int {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to find free port: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	_ = listener.Close()
	return port
}
