// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across provider/store/repository layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., email taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidCredentials indicates the identity platform rejected the credentials.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNoSession indicates no session is currently held.
	ErrNoSession = errors.New("no session")

	// ErrNotConfigured indicates the platform URL or API key is missing.
	ErrNotConfigured = errors.New("identity platform not configured")

	// ErrProviderUnavailable indicates a transport-level failure talking to the platform.
	ErrProviderUnavailable = errors.New("identity platform unavailable")
)
