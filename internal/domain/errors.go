package domain

import (
	"errors"
	"net/http"
)

// Kind classifies a gateway error; every handler maps a Kind to exactly one
// HTTP status at the normalization boundary.
type Kind int

const (
	// KindClientInput is a missing or invalid request field.
	KindClientInput Kind = iota

	// KindUnauthenticated means no access token is configured.
	KindUnauthenticated

	// KindUpstreamRejected means the brokerage returned a non-2xx business
	// error; the upstream status code is carried through.
	KindUpstreamRejected

	// KindUpstreamUnreachable is a network or timeout failure talking to the
	// brokerage.
	KindUpstreamUnreachable

	// KindFundsLookup means the available-margin lookup failed during a
	// funds check. Absence of information is never treated as approval.
	KindFundsLookup

	// KindInternal is any failure not covered by the kinds above.
	KindInternal
)

// Error is the typed error all handlers funnel through.
type Error struct {
	Kind    Kind
	Message string
	// Status is the upstream HTTP status for KindUpstreamRejected.
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus returns the local status code for this error.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindClientInput:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindUpstreamRejected:
		if e.Status != 0 {
			return e.Status
		}
		return http.StatusBadGateway
	case KindUpstreamUnreachable:
		return http.StatusBadGateway
	case KindFundsLookup:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// AsError extracts a *Error from err, wrapping unknown errors as an
// internal-server failure so nothing escapes the normalization boundary.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: KindInternal, Message: "Internal server error", Err: err}
}

// ErrTokenMissing is returned before any upstream call when no access token
// is configured.
var ErrTokenMissing = &Error{
	Kind:    KindUnauthenticated,
	Message: "API token is missing. Set UPSTOX_ACCESS_TOKEN environment variable.",
}
