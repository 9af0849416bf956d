package provider

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Formatting(t *testing.T) {
	cause := errors.New("connection refused")

	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "message only",
			err:  &Error{Code: ErrAuthenticationFailed, Message: "login rejected"},
			want: "login rejected",
		},
		{
			name: "op and path",
			err:  &Error{Code: ErrUnsupported, Op: "rename", Path: "/a/b", Message: "operation not supported by backend"},
			want: "rename: operation not supported by backend: /a/b",
		},
		{
			name: "with cause",
			err:  &Error{Code: ErrRemoteAPI, Op: "list", Path: "/docs", Message: "request failed", Err: cause},
			want: "list: request failed: /docs: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewRemoteAPIError("download", "/f.txt", "request failed", cause)

	assert.ErrorIs(t, err, cause)
}

func TestCodeOf(t *testing.T) {
	err := NewUnsupported("mkdir", "/new")

	code, ok := CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, ErrUnsupported, code)

	// Codes survive fmt.Errorf wrapping.
	wrapped := fmt.Errorf("driver: %w", err)
	code, ok = CodeOf(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrUnsupported, code)

	_, ok = CodeOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestCodePredicates(t *testing.T) {
	tests := []struct {
		name string
		err  error
		pred func(error) bool
	}{
		{"authentication failed", NewAuthenticationFailed("bad password", nil), IsAuthenticationFailed},
		{"remote api", NewRemoteAPIError("list", "/", "status 500", nil), IsRemoteAPI},
		{"unsupported", NewUnsupported("delete", "/x"), IsUnsupported},
		{"path resolution", NewPathResolutionError("/bad\x00path", "embedded NUL"), IsPathResolution},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.pred(tt.err))
			assert.False(t, tt.pred(errors.New("unrelated")))
		})
	}
}

func TestErrorCode_String(t *testing.T) {
	assert.Equal(t, "authentication failed", ErrAuthenticationFailed.String())
	assert.Equal(t, "remote api error", ErrRemoteAPI.String())
	assert.Equal(t, "unsupported operation", ErrUnsupported.String())
	assert.Equal(t, "path resolution error", ErrPathResolution.String())
}
