package mcp

import (
	"errors"
	"fmt"
	"time"
)

// JSON-RPC compatible error codes. The negative five are the standard
// JSON-RPC 2.0 codes; the -320xx block is reserved for this layer.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603

	CodeInitializationError = -32000
	CodeTransportError      = -32001
	CodeTimeoutError        = -32002
	CodeConnectionError     = -32003
)

var codeNames = map[int]string{
	CodeParseError:          "PARSE_ERROR",
	CodeInvalidRequest:      "INVALID_REQUEST",
	CodeMethodNotFound:      "METHOD_NOT_FOUND",
	CodeInvalidParams:       "INVALID_PARAMS",
	CodeInternalError:       "INTERNAL_ERROR",
	CodeInitializationError: "INITIALIZATION_ERROR",
	CodeTransportError:      "TRANSPORT_ERROR",
	CodeTimeoutError:        "TIMEOUT_ERROR",
	CodeConnectionError:     "CONNECTION_ERROR",
}

// CodeName returns the registry name for a taxonomy code, or "UNKNOWN".
func CodeName(code int) string {
	if name, ok := codeNames[code]; ok {
		return name
	}
	return "UNKNOWN"
}

// ProtocolError is the generic failure kind carried across the catalog,
// registry, and adapter layers. Code is always one of the taxonomy codes.
type ProtocolError struct {
	Code    int
	Message string
	Cause   error
}

// NewProtocolError creates a ProtocolError with a formatted message.
func NewProtocolError(code int, format string, args ...any) *ProtocolError {
	return &ProtocolError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

func (e *ProtocolError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("mcp: %s (%d): %s", CodeName(e.Code), e.Code, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *ProtocolError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// TimeoutError is raised when a bounded operation exceeds its deadline.
// It shares the taxonomy code space but is a distinct kind so callers can
// special-case retry or backoff.
type TimeoutError struct {
	Tool    string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("mcp: tool %q timed out after %s", e.Tool, e.Timeout)
}

// Code returns the taxonomy code for timeouts.
func (e *TimeoutError) Code() int {
	return CodeTimeoutError
}

// IsTaxonomy reports whether err already is one of the two taxonomy kinds.
func IsTaxonomy(err error) bool {
	var protoErr *ProtocolError
	var timeoutErr *TimeoutError
	return errors.As(err, &protoErr) || errors.As(err, &timeoutErr)
}

// WrapInternal normalizes an arbitrary failure into the taxonomy. Errors
// that already are ProtocolError or TimeoutError propagate unchanged;
// anything else becomes a ProtocolError with CodeInternalError, preserving
// the original message and cause.
func WrapInternal(err error) error {
	if err == nil {
		return nil
	}
	if IsTaxonomy(err) {
		return err
	}
	return &ProtocolError{
		Code:    CodeInternalError,
		Message: err.Error(),
		Cause:   err,
	}
}

// ErrorCode extracts the taxonomy code from an error, or CodeInternalError
// when the error is not a taxonomy kind.
func ErrorCode(err error) int {
	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) {
		return CodeTimeoutError
	}
	var protoErr *ProtocolError
	if errors.As(err, &protoErr) {
		return protoErr.Code
	}
	return CodeInternalError
}
