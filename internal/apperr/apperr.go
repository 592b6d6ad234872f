package apperr

import (
	"errors"
	"fmt"
)

// Code is a stable, machine-readable classification of an engine error.
type Code string

const (
	CodeConnectTimeout         Code = "connect_timeout"
	CodeConnectRejected        Code = "connect_rejected"
	CodeUnsupportedChain       Code = "unsupported_chain"
	CodeInvalidRequest         Code = "invalid_request"
	CodeNoRouterConfigured     Code = "no_router_configured"
	CodeQuoteFailed            Code = "quote_failed"
	CodeInsufficientGasBalance Code = "insufficient_gas_balance"
	CodeExecuteFailed          Code = "execute_failed"
	CodeDiscoveryPartial       Code = "discovery_partial"
	CodePriceUnavailable       Code = "price_unavailable"
)

// Error carries a stable code alongside a human-readable message and an
// optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is makes two *Error values match when their codes match, so callers can use
// errors.Is(err, apperr.New(apperr.CodeQuoteFailed, "")).
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Code == other.Code
	}
	return false
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// As extracts a typed engine error from an error chain.
func As(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// CodeOf returns the code of err, or empty string for untyped errors.
func CodeOf(err error) Code {
	if e, ok := As(err); ok {
		return e.Code
	}
	return ""
}

// IsCode reports whether err carries the given code anywhere in its chain.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}
