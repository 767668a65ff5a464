package docstore

import (
	"errors"
	"fmt"
	"strings"
)

// Code classifies store failures independently of the backend.
type Code string

const (
	CodeNotFound           Code = "not_found"
	CodeFailedPrecondition Code = "failed_precondition"
	CodeInvalidArgument    Code = "invalid_argument"
	CodeUnavailable        Code = "unavailable"
	CodeInternal           Code = "internal"
)

type Error struct {
	Code    Code
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var sb strings.Builder
	if e.Op != "" {
		sb.WriteString(e.Op)
		sb.WriteString(": ")
	}
	if e.Message != "" {
		sb.WriteString(e.Message)
	} else {
		sb.WriteString(string(e.Code))
	}
	if e.Cause != nil && !strings.Contains(e.Message, e.Cause.Error()) {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches the bare sentinels below by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Op != "" || t.Message != "" || t.Cause != nil {
		return false
	}
	return e.Code == t.Code
}

var (
	ErrNotFound           = &Error{Code: CodeNotFound}
	ErrFailedPrecondition = &Error{Code: CodeFailedPrecondition}
	ErrInvalidArgument    = &Error{Code: CodeInvalidArgument}
	ErrUnavailable        = &Error{Code: CodeUnavailable}
	ErrInternal           = &Error{Code: CodeInternal}
)

func newError(code Code, op, msg string, cause error) *Error {
	return &Error{Code: code, Op: op, Message: msg, Cause: cause}
}

func notFound(op, collection, id string) *Error {
	return newError(CodeNotFound, op, fmt.Sprintf("document %s/%s not found", collection, id), nil)
}

func invalidArgument(op, format string, args ...any) *Error {
	return newError(CodeInvalidArgument, op, fmt.Sprintf(format, args...), nil)
}

// CodeOf returns the store code carried by err, or "" for foreign errors.
func CodeOf(err error) Code {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// IsMissingIndex reports a failed precondition caused by a missing composite
// index.
func IsMissingIndex(err error) bool {
	if err == nil || !errors.Is(err, ErrFailedPrecondition) {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "index")
}
