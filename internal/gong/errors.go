package gong

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed upstream call.
type Kind int

const (
	// KindUpstream is any non-2xx status other than 401 and 403.
	KindUpstream Kind = iota
	// KindAuth means the credential was rejected (401).
	KindAuth
	// KindEntitlement means the credential lacks access to the endpoint (403).
	KindEntitlement
	// KindTransport covers network failures, timeouts and undecodable bodies.
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindEntitlement:
		return "entitlement"
	case KindTransport:
		return "transport"
	default:
		return "upstream"
	}
}

// Error is returned by every Client operation that fails.
type Error struct {
	Kind     Kind
	Status   int
	Endpoint string
	Body     string
	Err      error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindTransport:
		return fmt.Sprintf("gong %s: transport error: %v", e.Endpoint, e.Err)
	case e.Body != "":
		return fmt.Sprintf("gong %s: %s error (%d): %s", e.Endpoint, e.Kind, e.Status, e.Body)
	default:
		return fmt.Sprintf("gong %s: %s error (%d)", e.Endpoint, e.Kind, e.Status)
	}
}

func (e *Error) Unwrap() error { return e.Err }

func statusError(status int, endpoint string, body []byte) *Error {
	kind := KindUpstream
	switch status {
	case http.StatusUnauthorized:
		kind = KindAuth
	case http.StatusForbidden:
		kind = KindEntitlement
	}
	const maxBody = 512
	if len(body) > maxBody {
		body = body[:maxBody]
	}
	return &Error{Kind: kind, Status: status, Endpoint: endpoint, Body: string(body)}
}

func transportError(endpoint string, err error) *Error {
	return &Error{Kind: KindTransport, Endpoint: endpoint, Err: err}
}

func kindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// IsAuth reports whether err carries a 401 from upstream.
func IsAuth(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindAuth
}

// IsEntitlement reports whether err carries a 403 from upstream.
func IsEntitlement(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindEntitlement
}

// IsTransport reports whether err is a connectivity or decode failure.
func IsTransport(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindTransport
}

// StatusOf returns the upstream HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}
