// Package common contains shared constants, sentinel errors and small helpers
// used across taskkeeper components.
package common

// AuthorizationHeaderName is the HTTP header (and gRPC metadata key, lower
// cased) carrying "Bearer <access token>".
const AuthorizationHeaderName = "Authorization"

// RefreshTokenHeaderName is an alternative carrier for the refresh token on
// the refresh endpoint when the request body does not contain one.
const RefreshTokenHeaderName = "X-Refresh-Token"

// BearerScheme is the only accepted authorization scheme.
const BearerScheme = "Bearer"

// RefreshTokenBytes is the amount of entropy in an opaque refresh token.
const RefreshTokenBytes = 32
