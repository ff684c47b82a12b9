package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("memory", "m1"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("content", "content is required"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Conflict wraps ErrConflict",
			err:       Conflict("user", "github_id 42"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "NotOwner wraps ErrNotOwner",
			err:       NotOwner("memory does not belong to the caller"),
			target:    ErrNotOwner,
			wantMatch: true,
		},
		{
			name:      "Unauthorized wraps ErrUnauthorized",
			err:       Unauthorized("token expired"),
			target:    ErrUnauthorized,
			wantMatch: true,
		},
		{
			name:      "Upstream wraps ErrUpstream",
			err:       Upstream("exchanging code"),
			target:    ErrUpstream,
			wantMatch: true,
		},
		{
			name:      "NotOwner does NOT match ErrNotFound",
			err:       NotOwner("nope"),
			target:    ErrNotFound,
			wantMatch: false,
		},
		{
			name:      "NotFound does NOT match ErrUnauthorized",
			err:       NotFound("memory", "m1"),
			target:    ErrUnauthorized,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

// Wrapping with %w must preserve the sentinel — this is how service
// errors travel through fmt.Errorf without losing their identity.
func TestErrorsIs_ThroughWrapping(t *testing.T) {
	inner := NotOwner("memory does not belong to the caller")
	wrapped := fmt.Errorf("deleting memory m1: %w", inner)

	if !errors.Is(wrapped, ErrNotOwner) {
		t.Error("wrapped error lost ErrNotOwner sentinel")
	}

	var appErr *AppError
	if !errors.As(wrapped, &appErr) {
		t.Fatal("errors.As failed to extract *AppError from wrapped error")
	}
	if appErr.Message != "memory does not belong to the caller" {
		t.Errorf("Message = %q, want original message", appErr.Message)
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{
			name:        "NotFound message includes resource and id",
			err:         NotFound("memory", "m1"),
			wantMessage: "memory not found with id m1",
		},
		{
			name:        "ValidationFailed uses custom message",
			err:         ValidationFailed("code", "authorization code is required"),
			wantMessage: "authorization code is required",
		},
		{
			name:        "Conflict message includes resource and key",
			err:         Conflict("user", "github_id 42"),
			wantMessage: "user already exists for github_id 42",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	err := Unauthorized("bad signature")
	if err.Unwrap() != ErrUnauthorized {
		t.Errorf("Unwrap() = %v, want %v", err.Unwrap(), ErrUnauthorized)
	}
}

func TestValidationFailedField(t *testing.T) {
	err := ValidationFailed("avatar_url", "must be an absolute URL")
	if err.Field != "avatar_url" {
		t.Errorf("Field = %q, want %q", err.Field, "avatar_url")
	}
}
