// Package apperr defines the error taxonomy shared by the relay core.
//
// Kinds map to caller-visible HTTP statuses in one place (HTTPStatus) so
// handlers never invent codes ad hoc.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure for propagation policy decisions.
type Kind string

const (
	// ConfigMissing means a required credential or endpoint is absent. Never retried.
	ConfigMissing Kind = "config_missing"
	// UpstreamTimeout means an outbound call exceeded its deadline.
	UpstreamTimeout Kind = "upstream_timeout"
	// UpstreamUnreachable means the upstream could not be connected to at all.
	UpstreamUnreachable Kind = "upstream_unreachable"
	// UpstreamRejected means the upstream answered with a non-2xx status.
	// The upstream's own status and body are carried along verbatim.
	UpstreamRejected Kind = "upstream_rejected"
	// MalformedResponse means a payload violated the expected shape.
	// Callers generally degrade to a sentinel value instead of surfacing this.
	MalformedResponse Kind = "malformed_response"
	// QueueExhausted means the poll budget ran out before the job completed.
	// Recoverable: it triggers the legacy fallback, never a user-visible error.
	QueueExhausted Kind = "queue_exhausted"
)

// Error is a classified error. Status and Body are only meaningful for
// UpstreamRejected, where they carry the upstream's verbatim response.
type Error struct {
	Kind   Kind
	Status int
	Body   string
	msg    string
	cause  error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.msg, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.msg)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a classified error.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, msg: msg}
}

// Newf creates a classified error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies an underlying error.
func Wrap(err error, kind Kind, msg string) *Error {
	return &Error{Kind: kind, msg: msg, cause: err}
}

// Rejected creates an UpstreamRejected error carrying the upstream's
// status code and raw error body.
func Rejected(status int, body string) *Error {
	return &Error{
		Kind:   UpstreamRejected,
		Status: status,
		Body:   body,
		msg:    fmt.Sprintf("upstream returned %d", status),
	}
}

// KindOf extracts the Kind from err, or "" when err is not classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// AsError extracts the classified error from err, if any.
func AsError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// HTTPStatus maps a classified error to the status the relay surfaces.
func HTTPStatus(err error) int {
	e, ok := AsError(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case ConfigMissing:
		return http.StatusInternalServerError
	case UpstreamTimeout:
		return http.StatusGatewayTimeout
	case UpstreamUnreachable:
		return http.StatusBadGateway
	case UpstreamRejected:
		if e.Status > 0 {
			return e.Status
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
