// Package common defines shared constants and sentinel errors used across
// client and server layers of idkeeper. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound          = errors.New("not found")
	ErrDuplicateIdentifier = errors.New("identifier already registered")
	ErrStoreUnavailable    = errors.New("store unavailable")

	// Service-level errors (generic/internal flow control).
	ErrorInternal         = errors.New("internal error")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("forbidden")

	// Validation errors.
	ErrMissingField  = errors.New("missing required field")
	ErrSecretTooLong = errors.New("secret exceeds 72 bytes")
	ErrInvalidID     = errors.New("invalid id")

	// Token errors. The gate collapses all of them into one response.
	ErrMissingToken          = errors.New("missing token")
	ErrTokenMalformed        = errors.New("token malformed")
	ErrTokenInvalidSignature = errors.New("token signature invalid")
	ErrTokenExpired          = errors.New("token expired")

	// Startup errors.
	ErrSigningKeyUnavailable = errors.New("signing key unavailable")
)
