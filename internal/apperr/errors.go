// Package apperr defines the error taxonomy shared by the service core and the
// HTTP boundary. Every failure that crosses an operation boundary is expressed
// as an *Error carrying a Kind; the boundary maps the Kind to a status code.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an error for handling and for the HTTP status it maps to.
type Kind string

const (
	KindStartup            Kind = "startup_error"
	KindTokenExpired       Kind = "token_expired"
	KindTokenInvalid       Kind = "token_invalid"
	KindForbiddenRole      Kind = "forbidden_role"
	KindRateLimited        Kind = "rate_limited"
	KindQuotaExceeded      Kind = "quota_exceeded"
	KindUnsupportedModel   Kind = "unsupported_model"
	KindEmptyAIResponse    Kind = "empty_ai_response"
	KindInvalidAIResponse  Kind = "invalid_ai_response"
	KindAnalysisFailed     Kind = "analysis_failed"
	KindUnknownProduct     Kind = "unknown_product"
	KindNotFound           Kind = "not_found"
	KindClientDisconnected Kind = "client_disconnected"
	KindStoreFailure       Kind = "store_failure"
	KindBadRequest         Kind = "bad_request"
	KindUnauthorized       Kind = "unauthorized"
	KindConflict           Kind = "conflict"
	KindUnavailable        Kind = "unavailable"
	KindInternal           Kind = "internal"
)

// StatusClientClosedRequest is the non-standard status used when the caller
// went away before the work completed.
const StatusClientClosedRequest = 499

var statusByKind = map[Kind]int{
	KindStartup:            http.StatusInternalServerError,
	KindTokenExpired:       http.StatusUnauthorized,
	KindTokenInvalid:       http.StatusUnauthorized,
	KindForbiddenRole:      http.StatusForbidden,
	KindRateLimited:        http.StatusTooManyRequests,
	KindQuotaExceeded:      http.StatusTooManyRequests,
	KindUnsupportedModel:   http.StatusBadRequest,
	KindEmptyAIResponse:    http.StatusBadRequest,
	KindInvalidAIResponse:  http.StatusBadRequest,
	KindAnalysisFailed:     http.StatusInternalServerError,
	KindUnknownProduct:     http.StatusBadRequest,
	KindNotFound:           http.StatusNotFound,
	KindClientDisconnected: StatusClientClosedRequest,
	KindStoreFailure:       http.StatusInternalServerError,
	KindBadRequest:         http.StatusBadRequest,
	KindUnauthorized:       http.StatusUnauthorized,
	KindConflict:           http.StatusBadRequest,
	KindUnavailable:        http.StatusServiceUnavailable,
	KindInternal:           http.StatusInternalServerError,
}

// Sentinels for errors.Is comparisons. Matching is by Kind only.
var (
	ErrStartup            = &Error{Kind: KindStartup}
	ErrTokenExpired       = &Error{Kind: KindTokenExpired}
	ErrTokenInvalid       = &Error{Kind: KindTokenInvalid}
	ErrForbiddenRole      = &Error{Kind: KindForbiddenRole}
	ErrRateLimited        = &Error{Kind: KindRateLimited}
	ErrQuotaExceeded      = &Error{Kind: KindQuotaExceeded}
	ErrUnsupportedModel   = &Error{Kind: KindUnsupportedModel}
	ErrEmptyAIResponse    = &Error{Kind: KindEmptyAIResponse}
	ErrInvalidAIResponse  = &Error{Kind: KindInvalidAIResponse}
	ErrAnalysisFailed     = &Error{Kind: KindAnalysisFailed}
	ErrUnknownProduct     = &Error{Kind: KindUnknownProduct}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrClientDisconnected = &Error{Kind: KindClientDisconnected}
	ErrStoreFailure       = &Error{Kind: KindStoreFailure}
	ErrBadRequest         = &Error{Kind: KindBadRequest}
	ErrUnauthorized       = &Error{Kind: KindUnauthorized}
	ErrConflict           = &Error{Kind: KindConflict}
	ErrUnavailable        = &Error{Kind: KindUnavailable}
)

// Error is a classified error.
type Error struct {
	Kind    Kind
	Message string
	// Raw holds diagnostic payload such as the unparseable model output. It
	// is never rendered to clients.
	Raw string
	Err error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Status returns the HTTP status code for the error's kind.
func (e *Error) Status() int { return Status(e.Kind) }

// New returns an *Error with the given kind and message.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap classifies err. The message is what clients see; err is kept for logs.
func Wrap(kind Kind, err error, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Status maps a kind to its HTTP status code.
func Status(kind Kind) int {
	if s, ok := statusByKind[kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Truncate shortens s to at most n runes, appending "..." when cut.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
