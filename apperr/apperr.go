// Package apperr defines the typed, status-aware errors surfaced by the
// NewMood HTTP handlers. Every error kind the API can return maps to one of
// the sentinel values below so JSON responses always carry a stable code.
package apperr

import (
	"errors"
	"net/http"
)

// Error carries an API error code alongside the HTTP status it should be
// served with. The wrapped cause, if any, stays out of the JSON payload.
type Error struct {
	Code    string `json:"error"`
	Message string `json:"message,omitempty"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Code
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches err as the cause of a copy of base. The copy keeps base's
// code and status, so handlers can classify once and still log the cause.
func Wrap(err error, base *Error, message string) *Error {
	if err == nil {
		return nil
	}
	if base == nil {
		base = ErrInternal
	}
	e := *base
	if message != "" {
		e.Message = message
	}
	e.Err = err
	return &e
}

// WithMessage returns a copy of base carrying a specific message, e.g. the
// name of the missing field.
func WithMessage(base *Error, message string) *Error {
	e := *base
	e.Message = message
	return &e
}

func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e, true
	}
	return nil, false
}

// Status returns the HTTP status for err, defaulting to 500 for anything
// that is not an *Error.
func Status(err error) int {
	if e, ok := As(err); ok && e.Status != 0 {
		return e.Status
	}
	return http.StatusInternalServerError
}

func Code(err error) string {
	if e, ok := As(err); ok && e.Code != "" {
		return e.Code
	}
	return "internal_error"
}

// Payload renders err as the API failure body: {"ok":false,"error":code}
// plus a message when one was set.
func Payload(err error) map[string]any {
	body := map[string]any{"ok": false, "error": Code(err)}
	if e, ok := As(err); ok {
		if e.Message != "" {
			body["message"] = e.Message
		}
	} else if err != nil {
		body["message"] = err.Error()
	}
	return body
}

var (
	ErrMissingField       = New("missing_field", http.StatusBadRequest, "")
	ErrValidation         = New("validation_error", http.StatusBadRequest, "")
	ErrInvalidCredential  = New("invalid_credential", http.StatusBadRequest, "")
	ErrUnsupportedSource  = New("unsupported_source", http.StatusBadRequest, "only youtube music, spotify and apple music links are supported")
	ErrIdentifierNotFound = New("identifier_not_found", http.StatusBadRequest, "")
	ErrUnauthenticated    = New("unauthenticated", http.StatusUnauthorized, "login required")
	ErrForbidden          = New("forbidden", http.StatusForbidden, "")
	ErrUpstream           = New("upstream_unavailable", http.StatusInternalServerError, "")
	ErrDatabase           = New("database_error", http.StatusInternalServerError, "")
	ErrInternal           = New("internal_error", http.StatusInternalServerError, "")
)
