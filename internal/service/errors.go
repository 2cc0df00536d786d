package service

import (
	"errors"
	"fmt"

	"hydraimport/internal/repository"
)

// Error codes reported to clients. They follow HTTP status semantics.
const (
	CodeInvalid      = 400
	CodeUnauthorized = 401
	CodeNotFound     = 404
	CodeConflict     = 409
	CodeInternal     = 500
)

// Error is a failure the client is allowed to see
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

func invalid(format string, args ...any) *Error {
	return &Error{Code: CodeInvalid, Message: fmt.Sprintf(format, args...)}
}

func notFound(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

var errUnauthorized = &Error{Code: CodeUnauthorized, Message: "invalid username or password"}

// AsError converts err into an *Error. Repository errors keep their
// message; anything else becomes an internal error with a fixed message
// and internal reports true so the caller can log the cause.
func AsError(err error) (result *Error, internal bool) {
	var svcErr *Error
	switch {
	case errors.As(err, &svcErr):
		return svcErr, false
	case errors.Is(err, repository.ErrNotFound):
		return &Error{Code: CodeNotFound, Message: err.Error()}, false
	case errors.Is(err, repository.ErrInvalidReference):
		return &Error{Code: CodeInvalid, Message: err.Error()}, false
	case errors.Is(err, repository.ErrConflict):
		return &Error{Code: CodeConflict, Message: err.Error()}, false
	default:
		return &Error{Code: CodeInternal, Message: "internal error"}, true
	}
}
