// Package common contains shared constants and sentinel errors used across
// idkeeper components.
package common

// AuthorizationHeaderName is the HTTP header and gRPC metadata key that
// carries the bearer token.
const AuthorizationHeaderName = "Authorization"

// BearerScheme is the only accepted authorization scheme.
const BearerScheme = "Bearer"

// RequestIDHeaderName correlates a request across log lines.
const RequestIDHeaderName = "X-Request-ID"
