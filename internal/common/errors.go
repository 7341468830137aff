// Package common defines shared constants and sentinel errors used across
// client and server layers of taskkeeper. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Input validation errors.
	ErrInvalidEmail   = errors.New("invalid email")
	ErrPasswordLength = errors.New("password must be between 8 and 72 characters")

	// Conflict errors.
	ErrEmailAlreadyExists = errors.New("email already exists")

	// Credential errors. The same value is returned for an unknown email and a
	// wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Access token errors. Every decode failure wraps ErrInvalidToken;
	// ErrTokenExpired is additionally wrapped for expired tokens.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Refresh token lifecycle errors.
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenExpired  = errors.New("refresh token expired")
	ErrMissingRefreshToken  = errors.New("missing refresh token")
	ErrInvalidRefreshToken  = errors.New("invalid refresh token")
	ErrExpiredRefreshToken  = errors.New("expired refresh token")

	// Request gate errors.
	ErrMissingAuthHeader   = errors.New("authorization header missing")
	ErrMalformedAuthHeader = errors.New("invalid authorization format")

	// Throttling.
	ErrTooManyRequests = errors.New("too many requests")
)
