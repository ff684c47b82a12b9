// Package apperror defines the application's error taxonomy.
//
// Every layer returns errors built from the sentinels below (wrapped with
// %w as they travel up). The HTTP layer is the only place that maps them
// to status codes — see internal/handler/response.go. This keeps the
// service and repository layers protocol-agnostic: they say WHAT went
// wrong, never which status code that implies.
package apperror

import (
	"errors"
	"fmt"
)

// Sentinel errors. Check with errors.Is — they survive any amount of
// fmt.Errorf("%w") wrapping.
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrNotOwner     = errors.New("not owner")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUpstream     = errors.New("upstream failure")
)

// AppError carries a sentinel plus a human-readable message.
// It implements Unwrap so errors.Is/errors.As see through it.
type AppError struct {
	Err     error  // one of the sentinels above
	Message string // human-readable description
	Field   string // optional: field that caused a validation error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound reports that no record of the given resource exists for id.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// ValidationFailed reports malformed input, naming the offending field.
// Used both for client request bodies and for upstream payloads that
// don't match the expected schema.
func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Conflict reports a uniqueness violation. The auth flow treats a user
// conflict as "someone else created the row first" and recovers by
// re-reading — it never surfaces to a client.
func Conflict(resource, key string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s already exists for %s", resource, key),
	}
}

// NotOwner reports that the caller does not own the record they are
// trying to read (private) or mutate. Distinct from NotFound: the
// record's existence is not hidden, only its content.
func NotOwner(message string) *AppError {
	return &AppError{
		Err:     ErrNotOwner,
		Message: message,
	}
}

// Unauthorized reports a missing, malformed, expired, or badly signed
// bearer token.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// Upstream reports a failure talking to the identity provider. The
// message distinguishes the token exchange from the profile fetch.
func Upstream(message string) *AppError {
	return &AppError{
		Err:     ErrUpstream,
		Message: message,
	}
}
