// Package errs contains sentinel errors and typed errors shared across layers.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized indicates failed authentication/authorization.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates an authenticated caller acting on someone else's data.
	ErrForbidden = errors.New("forbidden")
	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")
	// ErrAlreadyExists indicates a unique constraint violation (e.g., email taken).
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidInput indicates a request rejected by server-side validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoSession indicates there is no stored session on this device.
	ErrNoSession = errors.New("no session")
)
