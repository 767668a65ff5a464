package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode classifies failures surfaced by repos, services and the player.
type ErrorCode string

const (
	CodeValidation        ErrorCode = "validation"
	CodeNotFound          ErrorCode = "not_found"
	CodePermissionDenied  ErrorCode = "permission_denied"
	CodeUnauthenticated   ErrorCode = "unauthenticated"
	CodeQueryPrecondition ErrorCode = "query_precondition"
	CodeStoreUnavailable  ErrorCode = "store_unavailable"
	CodeRetryable         ErrorCode = "retryable"
	CodeInternal          ErrorCode = "internal"
)

// Error is the canonical error wrapper.
type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	op := strings.TrimSpace(e.Op)
	msg := strings.TrimSpace(e.Message)
	switch {
	case op != "" && msg != "":
		return fmt.Sprintf("%s: %s (%s)", op, msg, e.Code)
	case op != "":
		return fmt.Sprintf("%s (%s)", op, e.Code)
	case msg != "":
		return fmt.Sprintf("%s (%s)", msg, e.Code)
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

func NewError(code ErrorCode, op, message string, cause error) error {
	return &Error{
		Code:    code,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
		Cause:   cause,
	}
}

// Wrap annotates err with a code and operation; nil stays nil.
func Wrap(code ErrorCode, op string, err error) error {
	if err == nil {
		return nil
	}
	return NewError(code, op, err.Error(), err)
}

func Validation(op, message string) error {
	return NewError(CodeValidation, op, message, nil)
}

func NotFound(op, message string) error {
	return NewError(CodeNotFound, op, message, nil)
}

func PermissionDenied(op, message string) error {
	return NewError(CodePermissionDenied, op, message, nil)
}

func Unauthenticated(op string) error {
	return NewError(CodeUnauthenticated, op, "login required", nil)
}

// IsCode reports whether the outermost coded error in err's chain has code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

func CodeOf(err error) ErrorCode {
	var derr *Error
	if !errors.As(err, &derr) {
		return ""
	}
	return derr.Code
}
