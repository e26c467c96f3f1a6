package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_Wrapping(t *testing.T) {
	inner := errors.New("connection reset")
	wrapped := NewAppError(CodeUnavailable, "backend unavailable", inner)

	if got := wrapped.Error(); got != "backend unavailable: connection reset" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(wrapped, inner) {
		t.Error("errors.Is did not reach the wrapped error")
	}
	if got := ErrNotFound.Error(); got != "not found" {
		t.Errorf("Error() without cause = %q", got)
	}
	if ErrNotFound.Unwrap() != nil {
		t.Error("Unwrap() without cause should be nil")
	}
}

func TestClassifiers(t *testing.T) {
	checks := map[string]func(error) bool{
		"IsNotFound":      IsNotFound,
		"IsAlreadyExists": IsAlreadyExists,
		"IsValidation":    IsValidation,
		"IsInternal":      IsInternal,
		"IsUnavailable":   IsUnavailable,
		"IsUpstream":      IsUpstream,
	}

	tests := []struct {
		name string
		err  error
		want []string
	}{
		{"sentinel not found", ErrNotFound, []string{"IsNotFound"}},
		{"fresh validation", NewAppError(CodeValidation, "name is required", nil), []string{"IsValidation"}},
		{"wrapped unavailable", fmt.Errorf("list brands: %w", ErrUnavailable), []string{"IsUnavailable"}},
		{"already exists", ErrAlreadyExists, []string{"IsAlreadyExists"}},
		{"internal", ErrInternal, []string{"IsInternal"}},
		{"upstream 404", NewUpstreamError(http.StatusNotFound, ""), []string{"IsNotFound", "IsUpstream"}},
		{"upstream 409", NewUpstreamError(http.StatusConflict, "slug taken"), []string{"IsUpstream"}},
		{"plain error", errors.New("boom"), nil},
		{"nil", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := make(map[string]bool, len(tt.want))
			for _, name := range tt.want {
				want[name] = true
			}
			for name, check := range checks {
				if got := check(tt.err); got != want[name] {
					t.Errorf("%s() = %v; want %v", name, got, want[name])
				}
			}
		})
	}
}

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", ErrNotFound, http.StatusNotFound},
		{"already exists", ErrAlreadyExists, http.StatusConflict},
		{"validation", ErrValidation, http.StatusBadRequest},
		{"internal", ErrInternal, http.StatusInternalServerError},
		{"unavailable", ErrUnavailable, http.StatusBadGateway},
		{"wrapped not found", fmt.Errorf("get brand: %w", NewAppError(CodeNotFound, "brand not found", nil)), http.StatusNotFound},
		{"upstream 422 kept", NewUpstreamError(http.StatusUnprocessableEntity, "sku taken"), http.StatusUnprocessableEntity},
		{"upstream 503 is bad gateway", NewUpstreamError(http.StatusServiceUnavailable, ""), http.StatusBadGateway},
		{"unknown code", NewAppError(999, "unknown", nil), http.StatusInternalServerError},
		{"plain error", errors.New("plain"), http.StatusInternalServerError},
		{"nil", nil, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatusCode(tt.err); got != tt.want {
				t.Errorf("HTTPStatusCode() = %d; want %d", got, tt.want)
			}
		})
	}
}

func TestNewUpstreamError_DefaultMessage(t *testing.T) {
	err := NewUpstreamError(http.StatusBadRequest, "")
	if err.Message != "Bad Request" || err.Status != http.StatusBadRequest {
		t.Errorf("NewUpstreamError() = %+v", err)
	}
}

func TestDisplayMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"upstream shown", NewUpstreamError(http.StatusBadRequest, "coupon code already used"), "coupon code already used"},
		{"validation shown", NewAppError(CodeValidation, "name is required", nil), "name is required"},
		{"wrapped not found shown", fmt.Errorf("x: %w", NewAppError(CodeNotFound, "brand not found", nil)), "brand not found"},
		{"empty message", NewAppError(CodeValidation, "", nil), "fallback"},
		{"internal hidden", NewAppError(CodeInternal, "sql: connection reset", nil), "fallback"},
		{"unavailable hidden", NewAppError(CodeUnavailable, "dial tcp 10.0.0.1:443", nil), "fallback"},
		{"unknown code hidden", NewAppError(42, "secret", nil), "fallback"},
		{"plain error hidden", errors.New("boom"), "fallback"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DisplayMessage(tt.err, "fallback"); got != tt.want {
				t.Errorf("DisplayMessage() = %q; want %q", got, tt.want)
			}
		})
	}
}
