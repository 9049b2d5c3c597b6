// Package common holds the error kinds shared by the authentication core.
// Callers match them with errors.Is; infrastructure failures are wrapped
// around them, never returned in their place.
package common

import "errors"

var (
	// store-level errors
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when an email (or another unique key) is already taken.
	ErrConflict = errors.New("conflict")

	// ErrInvalidCredentials covers unknown email, wrong password and password
	// login against a provider-only account. The three cases are indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// token lifecycle errors
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")

	// ErrProviderUnavailable is returned on provider login when no OAuth provider is configured.
	ErrProviderUnavailable = errors.New("oauth provider unavailable")

	// ErrInvalidInput marks input the core cannot accept even though it passed request validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConfiguration marks startup misconfiguration (missing secrets, bad cost).
	ErrConfiguration = errors.New("configuration error")
)
