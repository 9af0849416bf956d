package stack

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Kevinjil/stack-share-to-ftp/internal/logger"
	"github.com/Kevinjil/stack-share-to-ftp/pkg/provider"
)

// Options configures the share binder.
//
// Scheme exists so deployments behind TLS-terminating proxies (and tests
// against local HTTP servers) can reach shares over plain HTTP; everything
// else tunes the per-session HTTP transport.
type Options struct {
	// Scheme selects "https" (default) or "http" for share URLs.
	Scheme string `mapstructure:"scheme"`

	// UserAgent is sent on every share API request.
	UserAgent string `mapstructure:"user_agent"`

	// Transport timeouts, see ClientConfig.
	DialTimeout           time.Duration `mapstructure:"dial_timeout"`
	TLSHandshakeTimeout   time.Duration `mapstructure:"tls_handshake_timeout"`
	ResponseHeaderTimeout time.Duration `mapstructure:"response_header_timeout"`
	IdleConnTimeout       time.Duration `mapstructure:"idle_conn_timeout"`
}

// applyDefaults fills in zero values with sensible defaults.
func (o *Options) applyDefaults() {
	if o.Scheme == "" {
		o.Scheme = "https"
	}
	if o.UserAgent == "" {
		o.UserAgent = "stack-share-to-ftp"
	}
	if o.DialTimeout <= 0 {
		o.DialTimeout = 10 * time.Second
	}
	if o.TLSHandshakeTimeout <= 0 {
		o.TLSHandshakeTimeout = 10 * time.Second
	}
	if o.ResponseHeaderTimeout <= 0 {
		o.ResponseHeaderTimeout = 30 * time.Second
	}
	if o.IdleConnTimeout <= 0 {
		o.IdleConnTimeout = 90 * time.Second
	}
}

// Binder implements provider.Binder for STACK public shares.
//
// The identity a client presents is "share@domain": the share code and
// the STACK instance hosting it, joined by the first "@". Bind derives
// {scheme}://{domain}/public-share/{share}/, authenticates with the
// supplied password and hands back a session rooted at the share.
type Binder struct {
	opts    Options
	metrics Metrics
}

var _ provider.Binder = (*Binder)(nil)

// NewBinder builds a Binder with the given options. A nil metrics
// implementation disables collection.
func NewBinder(opts Options, m Metrics) *Binder {
	opts.applyDefaults()
	return &Binder{opts: opts, metrics: m}
}

// Bind authenticates identity/password against the share it names and
// returns a ready session. The password is never logged.
func (b *Binder) Bind(ctx context.Context, connID, identity, password string) (provider.FileSystem, error) {
	share, domain, err := splitIdentity(identity)
	if err != nil {
		logger.Warn("Session %s: rejecting malformed identity %q", connID, identity)
		return nil, provider.NewAuthenticationFailed(err.Error(), nil)
	}

	base := &url.URL{
		Scheme: b.opts.Scheme,
		Host:   domain,
		Path:   "/public-share/" + share + "/",
	}

	client, err := NewClient(ClientConfig{
		BaseURL:               base,
		UserAgent:             b.opts.UserAgent,
		DialTimeout:           b.opts.DialTimeout,
		TLSHandshakeTimeout:   b.opts.TLSHandshakeTimeout,
		ResponseHeaderTimeout: b.opts.ResponseHeaderTimeout,
		IdleConnTimeout:       b.opts.IdleConnTimeout,
		Metrics:               b.metrics,
	})
	if err != nil {
		return nil, provider.NewAuthenticationFailed("building share client failed", err)
	}

	logger.Debug("Session %s: authenticating share %q on %q", connID, share, domain)

	if err := client.Authenticate(ctx, password); err != nil {
		logger.Warn("Session %s: bind failed for share %q on %q: %v", connID, share, domain, err)
		return nil, err
	}

	logger.Info("Session %s: bound share %q on %q", connID, share, domain)
	return NewSession(client), nil
}

// splitIdentity splits "share@domain" on the first "@".
func splitIdentity(identity string) (share, domain string, err error) {
	i := strings.IndexByte(identity, '@')
	if i < 0 {
		return "", "", fmt.Errorf("identity %q must have the form share@domain", identity)
	}

	share, domain = identity[:i], identity[i+1:]
	if share == "" || domain == "" {
		return "", "", fmt.Errorf("identity %q must have the form share@domain", identity)
	}
	if strings.ContainsRune(share, '/') || strings.ContainsRune(domain, '/') {
		return "", "", fmt.Errorf("identity %q contains a path separator", identity)
	}

	return share, domain, nil
}
