// Package testing provides a mock STACK share server for exercising the
// stack client, session and binder against real HTTP round trips.
//
// The mock implements the four share endpoints (login, list, download,
// upload) with the same wire shapes the production API uses: form-encoded
// login carrying the password, cookie-based sessions, the anti-forgery
// token in the login response header, offset/limit pagination on listings
// and raw byte streams for transfers.
package testing

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path"
	"strconv"
	"sync"

	"github.com/Kevinjil/stack-share-to-ftp/pkg/stack"
)

// DefaultToken is the anti-forgery token the mock hands out on login.
const DefaultToken = "test-anti-forgery-token"

const (
	sessionCookie = "stack_session"
	sessionValue  = "mock-session-1"
)

// ListRequest records one listing page request as the mock saw it.
type ListRequest struct {
	Dir    string
	Offset int
	Limit  int
}

// ShareServer is an in-process STACK share.
//
// Populate it with AddFile/AddDirectory, then point a binder at
// Identity() with Scheme "http". All exported mutators and accessors are
// safe for concurrent use.
type ShareServer struct {
	// Share is the share code in the URL path.
	Share string

	// Password accepted by the login endpoint.
	Password string

	mu               sync.Mutex
	token            string
	failListAtOffset int
	nextFileID       int64
	nodes            map[string][]stack.RemoteFileRecord
	content          map[string][]byte
	uploaded         map[string][]byte
	listReqs         []ListRequest
	logins           int

	srv *httptest.Server
}

// NewShareServer starts a mock share reachable at
// {URL}/public-share/{share}/.
func NewShareServer(share, password string) *ShareServer {
	s := &ShareServer{
		Share:            share,
		Password:         password,
		token:            DefaultToken,
		failListAtOffset: -1,
		nodes:            make(map[string][]stack.RemoteFileRecord),
		content:          make(map[string][]byte),
		uploaded:         make(map[string][]byte),
	}

	prefix := "/public-share/" + share + "/"
	mux := http.NewServeMux()
	mux.HandleFunc(prefix+"info/", s.handleLogin)
	mux.HandleFunc(prefix+"list", s.handleList)
	mux.HandleFunc(prefix+"download", s.handleDownload)
	mux.HandleFunc(prefix+"upload/", s.handleUpload)
	s.srv = httptest.NewServer(mux)

	return s
}

// Close shuts the mock down.
func (s *ShareServer) Close() {
	s.srv.Close()
}

// SetToken replaces the anti-forgery token the mock hands out on login
// and checks on transfers. An empty token makes login omit the header,
// which clients must treat as a failed handshake.
func (s *ShareServer) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// SetFailListAtOffset makes the listing endpoint return 500 for the page
// starting at the given offset. A negative offset disables the failure.
func (s *ShareServer) SetFailListAtOffset(offset int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failListAtOffset = offset
}

func (s *ShareServer) currentToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// URL returns the mock's base URL (scheme and host, no path).
func (s *ShareServer) URL() string {
	return s.srv.URL
}

// Host returns the host:port the mock listens on.
func (s *ShareServer) Host() string {
	u, _ := url.Parse(s.srv.URL)
	return u.Host
}

// Identity returns the "share@domain" identity that reaches this mock.
func (s *ShareServer) Identity() string {
	return s.Share + "@" + s.Host()
}

// AddFile registers a regular file node and its download content.
func (s *ShareServer) AddFile(p string, content []byte, mtime int64) {
	s.addNode(stack.RemoteFileRecord{
		Path:     p,
		MimeType: "application/octet-stream",
		FileSize: int64(len(content)),
		MTime:    mtime,
	})

	s.mu.Lock()
	s.content[p] = content
	s.mu.Unlock()
}

// AddDirectory registers a directory node.
func (s *ShareServer) AddDirectory(p string, mtime int64) {
	s.addNode(stack.RemoteFileRecord{
		Path:     p,
		MimeType: "httpd/unix-directory",
		MTime:    mtime,
	})
}

func (s *ShareServer) addNode(record stack.RemoteFileRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextFileID++
	record.FileID = s.nextFileID

	dir := path.Dir(record.Path)
	s.nodes[dir] = append(s.nodes[dir], record)
}

// Uploaded returns the bytes the mock received for p via upload.
func (s *ShareServer) Uploaded(p string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.uploaded[p]
	return b, ok
}

// Uploads returns a snapshot of everything received via upload so far,
// keyed by remote path.
func (s *ShareServer) Uploads() map[string][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string][]byte, len(s.uploaded))
	for p, b := range s.uploaded {
		out[p] = b
	}
	return out
}

// ListRequests returns every listing page request received so far.
func (s *ShareServer) ListRequests() []ListRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ListRequest(nil), s.listReqs...)
}

// Logins returns the number of login attempts received.
func (s *ShareServer) Logins() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logins
}

func (s *ShareServer) authorized(r *http.Request) bool {
	c, err := r.Cookie(sessionCookie)
	return err == nil && c.Value == sessionValue
}

func (s *ShareServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.logins++
	s.mu.Unlock()

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	if r.PostFormValue("password") != s.Password {
		http.Error(w, "wrong password", http.StatusUnauthorized)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:  sessionCookie,
		Value: sessionValue,
		Path:  "/",
	})
	if token := s.currentToken(); token != "" {
		w.Header().Set("X-CSRF-Token", token)
	}
	w.WriteHeader(http.StatusOK)
}

func (s *ShareServer) handleList(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		http.Error(w, "no session", http.StatusUnauthorized)
		return
	}

	q := r.URL.Query()
	if q.Get("type") != "folder" {
		http.Error(w, "missing type=folder", http.StatusBadRequest)
		return
	}

	dir := q.Get("dir")
	offset := atoi(q.Get("offset"))
	limit := atoi(q.Get("limit"))

	s.mu.Lock()
	s.listReqs = append(s.listReqs, ListRequest{Dir: dir, Offset: offset, Limit: limit})
	fail := s.failListAtOffset >= 0 && offset == s.failListAtOffset
	records := s.nodes[dir]
	s.mu.Unlock()

	if fail {
		http.Error(w, "injected failure", http.StatusInternalServerError)
		return
	}

	page := []stack.RemoteFileRecord{}
	if offset < len(records) {
		end := offset + limit
		if end > len(records) {
			end = len(records)
		}
		page = records[offset:end]
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"nodes":  page,
		"amount": len(records),
	})
}

func (s *ShareServer) handleDownload(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		http.Error(w, "no session", http.StatusUnauthorized)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	if r.PostFormValue("csrf-token") != s.currentToken() {
		http.Error(w, "bad token", http.StatusForbidden)
		return
	}

	p := r.PostFormValue("paths[]")

	s.mu.Lock()
	content, ok := s.content[p]
	s.mu.Unlock()

	if !ok {
		http.Error(w, "no such file", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(content)
}

func (s *ShareServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		http.Error(w, "no session", http.StatusUnauthorized)
		return
	}
	if r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if r.Header.Get("X-CSRF-Token") != s.currentToken() {
		http.Error(w, "bad token", http.StatusForbidden)
		return
	}

	p := r.URL.Path[len("/public-share/"+s.Share+"/upload"):]

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read failed", http.StatusInternalServerError)
		return
	}

	s.mu.Lock()
	s.uploaded[p] = body
	s.mu.Unlock()

	w.WriteHeader(http.StatusOK)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
