package importer

import (
	"errors"
	"fmt"
)

// Domain error kinds. They are matched with errors.Is against any error
// returned from this package.
var (
	ErrMissingTemplate   = errors.New("no template specified")
	ErrUnresolvedType    = errors.New("unresolved component type")
	ErrDanglingReference = errors.New("dangling reference")
	ErrProjectNotFound   = errors.New("project not found")
	ErrCyclicMembership  = errors.New("cyclic institution membership")
	ErrDuplicateName     = errors.New("duplicate entity name")

	// Model run errors
	ErrMissingNetwork  = errors.New("a network ID must be specified")
	ErrMissingScenario = errors.New("a scenario ID must be specified")
	ErrNetworkNotFound = errors.New("network not found")
	ErrInvalidOverride = errors.New("invalid input override")
)

// Error is an expected failure of an import or model run. Its message is
// safe to show to the operator as is.
type Error struct {
	Kind    error
	Message string
	Err     error
}

// NewError creates an Error of the given kind with a formatted detail message
func NewError(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError creates an Error of the given kind caused by err
func WrapError(kind error, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As
func (e *Error) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// IsExpected reports whether err is, or wraps, a domain Error
func IsExpected(err error) bool {
	var domainErr *Error
	return errors.As(err, &domainErr)
}

// notFounder is implemented by remote errors that can tell a missing
// object apart from other failures.
type notFounder interface {
	NotFound() bool
}

func isRemoteNotFound(err error) bool {
	var nf notFounder
	return errors.As(err, &nf) && nf.NotFound()
}
