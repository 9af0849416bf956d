package provider

import "errors"

// Error represents a domain error from file-system provider operations.
//
// These are business failures (bad credentials, unsupported operation,
// remote API rejection) as opposed to plain infrastructure errors.
// Protocol adapters translate Error codes into protocol-specific replies
// (e.g. FTP 530 for failed logins, 550 for unsupported commands).
type Error struct {
	// Code is the error category
	Code ErrorCode

	// Op is the provider operation that failed (e.g. "list", "read")
	Op string

	// Path is the file-system path related to the error (if applicable)
	Path string

	// Message is a human-readable error description
	Message string

	// Err is the underlying cause, if any
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Path != "" {
		msg = msg + ": " + e.Path
	}
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the underlying cause to errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorCode represents the category of a provider error.
type ErrorCode int

const (
	// ErrAuthenticationFailed indicates the backend rejected the supplied
	// identity or credentials, or the handshake produced an unusable
	// session (e.g. a missing anti-forgery token)
	ErrAuthenticationFailed ErrorCode = iota

	// ErrRemoteAPI indicates the remote storage API failed an operation:
	// unexpected status code, malformed response body, or transport error
	ErrRemoteAPI

	// ErrUnsupported indicates the operation is permanently unavailable on
	// this backend; retrying can never succeed
	ErrUnsupported

	// ErrPathResolution indicates a target path could not be interpreted
	ErrPathResolution
)

func (c ErrorCode) String() string {
	switch c {
	case ErrAuthenticationFailed:
		return "authentication failed"
	case ErrRemoteAPI:
		return "remote api error"
	case ErrUnsupported:
		return "unsupported operation"
	case ErrPathResolution:
		return "path resolution error"
	default:
		return "unknown error"
	}
}

// NewAuthenticationFailed builds an ErrAuthenticationFailed error.
// The message must never contain the attempted password.
func NewAuthenticationFailed(message string, cause error) *Error {
	return &Error{Code: ErrAuthenticationFailed, Op: "bind", Message: message, Err: cause}
}

// NewRemoteAPIError builds an ErrRemoteAPI error for the given operation
// and path.
func NewRemoteAPIError(op, path, message string, cause error) *Error {
	return &Error{Code: ErrRemoteAPI, Op: op, Path: path, Message: message, Err: cause}
}

// NewUnsupported builds the terminal failure returned by namespace-mutating
// operations on read-mostly backends.
func NewUnsupported(op, path string) *Error {
	return &Error{Code: ErrUnsupported, Op: op, Path: path, Message: "operation not supported by backend"}
}

// NewPathResolutionError builds an ErrPathResolution error.
func NewPathResolutionError(path, message string) *Error {
	return &Error{Code: ErrPathResolution, Op: "resolve", Path: path, Message: message}
}

// CodeOf extracts the ErrorCode from err. The second return reports
// whether err (or anything it wraps) is a provider Error.
func CodeOf(err error) (ErrorCode, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code, true
	}
	return 0, false
}

// IsAuthenticationFailed reports whether err is an ErrAuthenticationFailed
// provider error.
func IsAuthenticationFailed(err error) bool {
	code, ok := CodeOf(err)
	return ok && code == ErrAuthenticationFailed
}

// IsRemoteAPI reports whether err is an ErrRemoteAPI provider error.
func IsRemoteAPI(err error) bool {
	code, ok := CodeOf(err)
	return ok && code == ErrRemoteAPI
}

// IsUnsupported reports whether err is an ErrUnsupported provider error.
func IsUnsupported(err error) bool {
	code, ok := CodeOf(err)
	return ok && code == ErrUnsupported
}

// IsPathResolution reports whether err is an ErrPathResolution provider
// error.
func IsPathResolution(err error) bool {
	code, ok := CodeOf(err)
	return ok && code == ErrPathResolution
}
