// Package apperrors defines the closed error taxonomy shared by the gateway
// and the fan-out client.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error into one of the failure categories the system
// reports. The set is closed: callers branch on Kind, never on error text.
type Kind string

const (
	KindAuth       Kind = "auth"
	KindValidation Kind = "validation"
	KindForbidden  Kind = "forbidden"
	KindUpstream   Kind = "upstream"
	KindTransport  Kind = "transport"
	KindContent    Kind = "content"
	KindConfig     Kind = "config"
	KindCancelled  Kind = "cancelled"
)

// Error carries a kind, a human readable message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	// Status is only set for KindUpstream, where the origin status code
	// must pass through to the caller unchanged.
	Status int
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New constructs an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a kind and message to an underlying cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Upstream builds an upstream error preserving the origin status code and
// response body.
func Upstream(status int, body string) *Error {
	return &Error{Kind: KindUpstream, Message: body, Status: status}
}

// KindOf extracts the Kind from err, or empty string when err is not an
// *Error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps an error to the status code the gateway replies with.
func HTTPStatus(err error) int {
	var appErr *Error
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError
	}
	switch appErr.Kind {
	case KindAuth:
		return http.StatusUnauthorized
	case KindValidation:
		return http.StatusBadRequest
	case KindForbidden:
		return http.StatusForbidden
	case KindUpstream:
		if appErr.Status > 0 {
			return appErr.Status
		}
		return http.StatusBadGateway
	case KindTransport:
		return http.StatusBadGateway
	case KindConfig:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
