package apiclient

import (
	"errors"
	"net/http"
)

// Kind classifies a failed request.
type Kind int

const (
	KindNone Kind = iota
	KindUnauthenticated
	KindBadRequest
	KindForbidden
	KindNotFound
	KindServerError
	KindUnknown
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "ok"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindBadRequest:
		return "bad_request"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindServerError:
		return "server_error"
	case KindNetwork:
		return "network_error"
	}
	return "unknown"
}

// kindForStatus maps a non-2xx status to its Kind.
func kindForStatus(status int) Kind {
	switch status {
	case http.StatusBadRequest:
		return KindBadRequest
	case http.StatusUnauthorized:
		return KindUnauthenticated
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusInternalServerError:
		return KindServerError
	}
	return KindUnknown
}

// Error is returned for every failed request. StatusCode is 0 when no
// response was received.
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	Err        error

	sentinel bool
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels below, so callers can write
// errors.Is(err, apiclient.ErrForbidden).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || !t.sentinel {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated, sentinel: true}
	ErrBadRequest      = &Error{Kind: KindBadRequest, sentinel: true}
	ErrForbidden       = &Error{Kind: KindForbidden, sentinel: true}
	ErrNotFound        = &Error{Kind: KindNotFound, sentinel: true}
	ErrServerError     = &Error{Kind: KindServerError, sentinel: true}
	ErrUnknown         = &Error{Kind: KindUnknown, sentinel: true}
	ErrNetwork         = &Error{Kind: KindNetwork, sentinel: true}
)

// KindOf returns the kind of err, KindNone for nil and KindUnknown for errors
// that did not come from this package.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// StatusOf returns the HTTP status that best represents err for a caller
// relaying it.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) && e.StatusCode != 0 {
		return e.StatusCode
	}
	switch KindOf(err) {
	case KindNone:
		return http.StatusOK
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindBadRequest:
		return http.StatusBadRequest
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindNetwork:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func newError(kind Kind, status int, msg string, err error) *Error {
	return &Error{Kind: kind, StatusCode: status, Message: msg, Err: err}
}
