package client

import (
	"errors"
	"fmt"
)

// Remote error codes used by the persistence service
const (
	CodeNotFound     = 404
	CodeUnauthorized = 401
	CodeInvalid      = 400
	CodeInternal     = 500
)

// RemoteError is an error reported by the persistence service in a
// well-formed response.
type RemoteError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Method  string `json:"-"`
}

func (e *RemoteError) Error() string {
	if e.Method != "" {
		return fmt.Sprintf("%s: remote error %d: %s", e.Method, e.Code, e.Message)
	}
	return fmt.Sprintf("remote error %d: %s", e.Code, e.Message)
}

// NotFound reports whether the requested object does not exist
func (e *RemoteError) NotFound() bool {
	return e.Code == CodeNotFound
}

// HTTPError is a transport level failure with a non-JSON-RPC body
type HTTPError struct {
	Method     string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s: HTTP %d: %s", e.Method, e.StatusCode, e.Body)
}

// IsNotFound reports whether err is a remote not-found error
func IsNotFound(err error) bool {
	var remote *RemoteError
	return errors.As(err, &remote) && remote.NotFound()
}
