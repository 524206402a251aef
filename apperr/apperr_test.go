package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusAndCode(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"missing field", ErrMissingField, http.StatusBadRequest, "missing_field"},
		{"unauthenticated", ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
		{"forbidden", ErrForbidden, http.StatusForbidden, "forbidden"},
		{"wrapped keeps code", Wrap(errors.New("boom"), ErrUpstream, ""), http.StatusInternalServerError, "upstream_unavailable"},
		{"wrapped deeper", fmt.Errorf("context: %w", Wrap(errors.New("boom"), ErrInvalidCredential, "")), http.StatusBadRequest, "invalid_credential"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Status(tt.err); got != tt.status {
				t.Errorf("Status() = %d, want %d", got, tt.status)
			}
			if got := Code(tt.err); got != tt.code {
				t.Errorf("Code() = %q, want %q", got, tt.code)
			}
		})
	}
}

func TestPayload(t *testing.T) {
	p := Payload(WithMessage(ErrMissingField, "link is required"))
	if p["ok"] != false || p["error"] != "missing_field" || p["message"] != "link is required" {
		t.Errorf("payload = %v", p)
	}

	p = Payload(ErrForbidden)
	if p["error"] != "forbidden" {
		t.Errorf("payload = %v", p)
	}
	if _, ok := p["message"]; ok {
		t.Errorf("empty message should be omitted: %v", p)
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	wrapped := Wrap(cause, ErrUpstream, "spotify metadata lookup failed")
	if !errors.Is(wrapped, cause) {
		t.Error("wrapped error lost its cause")
	}
	if wrapped.Error() != "spotify metadata lookup failed" {
		t.Errorf("Error() = %q", wrapped.Error())
	}
	if Wrap(nil, ErrUpstream, "x") != nil {
		t.Error("Wrap(nil) must be nil")
	}
}
