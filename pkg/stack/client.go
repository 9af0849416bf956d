package stack

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Kevinjil/stack-share-to-ftp/pkg/provider"
)

// Wire constants for the share API.
const (
	// csrfTokenHeader carries the anti-forgery token: the API returns it
	// on the login response and expects it back on uploads.
	csrfTokenHeader = "X-CSRF-Token"

	// csrfTokenField carries the anti-forgery token in download form bodies.
	csrfTokenField = "csrf-token"

	// passwordField is the login form field holding the share password.
	passwordField = "password"
)

// ClientConfig configures a share API client.
type ClientConfig struct {
	// BaseURL is the share root, ending in a slash, e.g.
	// "https://example.stackstorage.com/public-share/abc123/".
	BaseURL *url.URL

	// UserAgent is sent on every request.
	UserAgent string

	// Transport timeouts. These bound connection setup and response
	// latency only; transfers in flight are never cut off, so large
	// files stream for as long as they need.
	DialTimeout           time.Duration
	TLSHandshakeTimeout   time.Duration
	ResponseHeaderTimeout time.Duration
	IdleConnTimeout       time.Duration

	// Metrics receives request observations. Nil disables collection.
	Metrics Metrics
}

// Client is a session-bound share API client.
//
// One Client backs one bound session. Authenticate must be called exactly
// once, before any other operation: it performs the password handshake,
// captures the session cookies in the client's jar and pins the
// anti-forgery token for the rest of the client's life. There is no
// re-authentication; when the remote session expires, operations fail and
// the owner is expected to discard the client.
type Client struct {
	base      *url.URL
	http      *http.Client
	userAgent string
	metrics   Metrics
	csrfToken string
}

// NewClient builds an unauthenticated client for the share at
// cfg.BaseURL.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == nil {
		return nil, fmt.Errorf("stack client: base URL is required")
	}
	if !strings.HasSuffix(cfg.BaseURL.Path, "/") {
		return nil, fmt.Errorf("stack client: base URL path must end with a slash: %q", cfg.BaseURL.Path)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("stack client: cookie jar: %w", err)
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: cfg.DialTimeout,
		}).DialContext,
		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
		ResponseHeaderTimeout: cfg.ResponseHeaderTimeout,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   4,
	}

	m := cfg.Metrics
	if m == nil {
		m = noopMetrics{}
	}

	return &Client{
		base: cfg.BaseURL,
		http: &http.Client{
			Jar:       jar,
			Transport: transport,
		},
		userAgent: cfg.UserAgent,
		metrics:   m,
	}, nil
}

// endpoint resolves a share-relative reference against the base URL.
func (c *Client) endpoint(ref string) *url.URL {
	return c.base.ResolveReference(&url.URL{Path: ref})
}

func (c *Client) newRequest(ctx context.Context, method string, u *url.URL, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return req, nil
}

// Authenticate performs the share's password handshake.
//
// A 200 response with a token header yields a ready session: cookies land
// in the jar, the token is pinned. Any other status is an authentication
// failure; a missing token on success is too, since the session would be
// unable to download or upload.
func (c *Client) Authenticate(ctx context.Context, password string) error {
	start := time.Now()
	err := c.authenticate(ctx, password)
	c.metrics.ObserveRequest("login", time.Since(start), err)
	return err
}

func (c *Client) authenticate(ctx context.Context, password string) error {
	form := url.Values{passwordField: {password}}

	req, err := c.newRequest(ctx, http.MethodPost, c.endpoint("info/"), strings.NewReader(form.Encode()))
	if err != nil {
		return provider.NewAuthenticationFailed("building login request failed", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return provider.NewRemoteAPIError("login", "", "share is unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return provider.NewAuthenticationFailed(
			fmt.Sprintf("share rejected the password (status %d)", resp.StatusCode), nil)
	}

	token := resp.Header.Get(csrfTokenHeader)
	if token == "" {
		return provider.NewAuthenticationFailed("login response carried no anti-forgery token", nil)
	}

	c.csrfToken = token
	return nil
}

// ListPage fetches one page of the node listing for dir.
//
// The returned slice holds at most limit records; a shorter slice means
// the listing is exhausted. The response's total-count field is ignored.
func (c *Client) ListPage(ctx context.Context, dir string, offset, limit int) ([]RemoteFileRecord, error) {
	start := time.Now()
	page, err := c.listPage(ctx, dir, offset, limit)
	c.metrics.ObserveRequest("list", time.Since(start), err)
	return page, err
}

func (c *Client) listPage(ctx context.Context, dir string, offset, limit int) ([]RemoteFileRecord, error) {
	u := c.endpoint("list")
	q := url.Values{
		"type":   {"folder"},
		"dir":    {dir},
		"offset": {strconv.Itoa(offset)},
		"limit":  {strconv.Itoa(limit)},
		"sortBy": {"default"},
		"order":  {"asc"},
	}
	u.RawQuery = q.Encode()

	req, err := c.newRequest(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, provider.NewRemoteAPIError("list", dir, "building request failed", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, provider.NewRemoteAPIError("list", dir, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, provider.NewRemoteAPIError("list", dir,
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	var body listResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, provider.NewRemoteAPIError("list", dir, "malformed listing response", err)
	}

	return body.Nodes, nil
}

// DownloadStream opens the file at filePath for reading.
//
// The returned reader streams the response body directly; the caller must
// close it to release the connection.
func (c *Client) DownloadStream(ctx context.Context, filePath string) (io.ReadCloser, error) {
	start := time.Now()
	rc, err := c.downloadStream(ctx, filePath)
	c.metrics.ObserveRequest("download", time.Since(start), err)
	return rc, err
}

func (c *Client) downloadStream(ctx context.Context, filePath string) (io.ReadCloser, error) {
	form := url.Values{
		"paths[]":      {filePath},
		csrfTokenField: {c.csrfToken},
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.endpoint("download"), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, provider.NewRemoteAPIError("download", filePath, "building request failed", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, provider.NewRemoteAPIError("download", filePath, "request failed", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, provider.NewRemoteAPIError("download", filePath,
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	return &countingReadCloser{
		ReadCloser: resp.Body,
		metrics:    c.metrics,
		direction:  "download",
	}, nil
}

// UploadStream opens the file at filePath for writing.
//
// Bytes written to the sink flow straight into the request body over a
// pipe; nothing is buffered beyond the transport's own chunking. Close
// finishes the request and returns the API's verdict, so a nil Close
// error is the only confirmation that the upload succeeded.
func (c *Client) UploadStream(ctx context.Context, filePath string) (io.WriteCloser, error) {
	u := c.endpoint("upload" + filePath)

	pr, pw := io.Pipe()

	req, err := c.newRequest(ctx, http.MethodPut, u, pr)
	if err != nil {
		pw.Close()
		pr.Close()
		return nil, provider.NewRemoteAPIError("upload", filePath, "building request failed", err)
	}
	req.Header.Set(csrfTokenHeader, c.csrfToken)
	req.Header.Set("Content-Type", "application/octet-stream")

	sink := &uploadSink{
		pw:      pw,
		done:    make(chan error, 1),
		metrics: c.metrics,
		started: time.Now(),
	}

	go func() {
		resp, err := c.http.Do(req)
		if err != nil {
			// Unblock any writer stuck on the pipe.
			pr.CloseWithError(err)
			sink.done <- provider.NewRemoteAPIError("upload", filePath, "request failed", err)
			return
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			sink.done <- provider.NewRemoteAPIError("upload", filePath,
				fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
			return
		}
		sink.done <- nil
	}()

	return sink, nil
}

// uploadSink is the io.WriteCloser handed to callers of UploadStream.
type uploadSink struct {
	pw      *io.PipeWriter
	done    chan error
	metrics Metrics
	started time.Time
	bytes   int64
}

func (s *uploadSink) Write(p []byte) (int, error) {
	n, err := s.pw.Write(p)
	if n > 0 {
		s.bytes += int64(n)
	}
	return n, err
}

// Close terminates the request body and waits for the API's verdict.
func (s *uploadSink) Close() error {
	s.pw.Close()
	err := <-s.done

	if s.bytes > 0 {
		s.metrics.RecordBytes("upload", s.bytes)
	}
	s.metrics.ObserveRequest("upload", time.Since(s.started), err)

	return err
}
