// Package common defines shared constants and sentinel errors used across
// client and server layers of StudyHall. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Service-level errors.
	ErrInternal      = errors.New("internal error")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation error")

	// Auth/session errors.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountPending     = errors.New("account pending approval")
	ErrRateLimited        = errors.New("rate limited")

	// Transport-level errors (client side).
	ErrServerError = errors.New("server error")
	ErrUnavailable = errors.New("server unavailable")
)
