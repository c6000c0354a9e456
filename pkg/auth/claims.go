package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenClaims is the JWT payload minted by the platform's auth service.
type AccessTokenClaims struct {
	UserID uuid.UUID `json:"uid"`
	Role   string    `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// AccessTokenPayload captures the values a freshly minted token carries.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Role   string
	JTI    string
}
