package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestConstructors_CarryCodes(t *testing.T) {
	cases := []struct {
		name     string
		err      *AppError
		wantCode int
		sentinel error
	}{
		{"bad request", BadRequest("missing field"), 400, ErrBadRequest},
		{"unauthorized", Unauthorized("bad token"), 401, ErrUnauthorized},
		{"not found", NotFound("user"), 404, ErrNotFound},
		{"conflict", Conflict("duplicate username"), 409, ErrConflict},
		{"internal", Internal("upload failed"), 500, ErrInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Code != tc.wantCode {
				t.Errorf("Code = %d, want %d", tc.err.Code, tc.wantCode)
			}
			if !errors.Is(tc.err, tc.sentinel) {
				t.Errorf("errors.Is(%v, sentinel) = false, want true", tc.err)
			}
		})
	}
}

func TestErrorsIs_ThroughWrapping(t *testing.T) {
	// The service layer wraps AppErrors with context via %w. errors.Is must
	// still find the sentinel through the chain.
	wrapped := fmt.Errorf("logging in: %w", Unauthorized("invalid credentials"))

	if !errors.Is(wrapped, ErrUnauthorized) {
		t.Error("errors.Is() should find ErrUnauthorized through a wrapped chain")
	}
	if errors.Is(wrapped, ErrConflict) {
		t.Error("errors.Is() matched the wrong sentinel")
	}
}

func TestErrorsAs_ExtractsAppError(t *testing.T) {
	wrapped := fmt.Errorf("registering: %w", Conflict("username taken"))

	var appErr *AppError
	if !errors.As(wrapped, &appErr) {
		t.Fatal("errors.As() should extract the *AppError from the chain")
	}
	if appErr.Code != 409 {
		t.Errorf("extracted Code = %d, want 409", appErr.Code)
	}
	if appErr.Message != "username taken" {
		t.Errorf("extracted Message = %q, want %q", appErr.Message, "username taken")
	}
}

func TestError_ReturnsMessage(t *testing.T) {
	err := NotFound("user")
	if err.Error() != "user not found" {
		t.Errorf("Error() = %q, want %q", err.Error(), "user not found")
	}
}
