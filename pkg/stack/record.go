// Package stack implements the provider contracts on top of the STACK
// public-share HTTP API.
//
// A STACK share is reached at {scheme}://{domain}/public-share/{share}/.
// Binding performs the share's password handshake once, capturing the
// anti-forgery token and session cookies; every later call rides that
// session. Listings are paginated JSON, downloads and uploads are raw
// byte streams. The backend cannot mutate the share namespace, so all
// namespace-changing operations fail with the provider's unsupported
// error.
package stack

// directoryMimeType is the sentinel mimetype the API reports for
// directory nodes. Any other mimetype (including empty) means a regular
// file.
const directoryMimeType = "httpd/unix-directory"

// PageSize is the fixed node-listing page size. Listings terminate on the
// first page shorter than this; a listing whose size is an exact multiple
// of PageSize therefore issues one final request that returns an empty
// page.
const PageSize = 100

// RemoteFileRecord is one node as the share API describes it.
//
// Optional fields missing from a response decode to their zero values;
// decoding never fails on absent metadata.
type RemoteFileRecord struct {
	// FileID is the API's numeric identifier for the node.
	FileID int64 `json:"fileId"`

	// Path is the node's share-absolute path (e.g. "/docs/report.pdf").
	Path string `json:"path"`

	// MimeType is the node's reported content type. Directories carry
	// the directoryMimeType sentinel.
	MimeType string `json:"mimetype"`

	// FileSize is the node size in bytes as reported by the API.
	FileSize int64 `json:"fileSize"`

	// MTime is the node's modification time in Unix seconds.
	MTime int64 `json:"mtime"`
}

// listResponse is the envelope of one node-listing page.
//
// Amount reports the API's total node count for the directory, but
// pagination deliberately ignores it: termination is driven by short
// pages alone, so a miscounting server cannot truncate a listing.
type listResponse struct {
	Nodes  []RemoteFileRecord `json:"nodes"`
	Amount int                `json:"amount"`
}
