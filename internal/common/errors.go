// Package common defines shared constants and sentinel errors used across
// the batikhub server and client. Callers should use errors.Is to match these
// values and errors.As to extract a *ValidationError.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")

	// ErrorStorage marks failures of the blob or record store that must be
	// reported to the caller as an opaque server error.
	ErrorStorage = errors.New("storage error")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")
)
