// Package apperror defines the application's error vocabulary.
//
// ONE TAGGED ERROR TYPE:
// Every failure the service layer can produce falls into five kinds, each
// identified by an HTTP-style numeric code. Rather than a type per kind,
// there is a single AppError carrying the code and a human-readable message,
// plus a sentinel error per kind so callers can branch with errors.Is.
//
// The numeric code lives on the error deliberately: the handler layer
// translates an AppError into the transport envelope without a mapping
// table, and non-HTTP consumers (tests, CLI tools) can still branch on the
// sentinels without knowing anything about status codes.
package apperror

import (
	"errors"
	"fmt"
)

// Sentinel errors, one per error kind. Use errors.Is(err, ErrConflict) etc.
// to test which kind an error chain contains.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInternal     = errors.New("internal error")
)

// AppError is the application error type. It wraps one of the sentinel
// errors above (via Err) and carries the numeric code the handler layer
// writes into the response envelope.
type AppError struct {
	Code    int    // HTTP-style status code (400, 401, 404, 409, 500)
	Message string // Human-readable description, safe to show a client
	Err     error  // One of the sentinels above (enables errors.Is)
}

func (e *AppError) Error() string {
	return e.Message
}

// Unwrap exposes the sentinel so errors.Is can walk the chain.
func (e *AppError) Unwrap() error {
	return e.Err
}

// BadRequest reports a missing or malformed input (required field or file
// absent). Maps to 400.
func BadRequest(message string) *AppError {
	return &AppError{Code: 400, Message: message, Err: ErrBadRequest}
}

// Unauthorized reports a missing/invalid/expired credential or a password
// mismatch on login. Maps to 401.
func Unauthorized(message string) *AppError {
	return &AppError{Code: 401, Message: message, Err: ErrUnauthorized}
}

// NotFound reports that a referenced user does not exist. Maps to 404.
func NotFound(resource string) *AppError {
	return &AppError{
		Code:    404,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     ErrNotFound,
	}
}

// Conflict reports a uniqueness violation (duplicate username or email on
// registration). Maps to 409.
func Conflict(message string) *AppError {
	return &AppError{Code: 409, Message: message, Err: ErrConflict}
}

// Internal reports an unexpected failure (token generation, post-create
// re-fetch miss, upload with no resulting URI). Maps to 500.
func Internal(message string) *AppError {
	return &AppError{Code: 500, Message: message, Err: ErrInternal}
}
