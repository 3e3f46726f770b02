// Package auth resolves an optional bearer credential into a user identity.
// Tokens are validated against JWKS endpoints; any validation failure
// downgrades the request to anonymous rather than erroring it.
package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims represents the JWT claims structure issued by the auth provider.
// It embeds RegisteredClaims for standard JWT fields (sub, iss, exp, etc.).
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// Identity is a resolved, authenticated user reference. It scopes every
// per-user read and write the assistant performs.
type Identity struct {
	UserID uuid.UUID
	Email  string
}
