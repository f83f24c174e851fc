package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Token types carried in the "type" claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeSession = "session"
)

// MinSecretLength is the shortest accepted signing key.
const MinSecretLength = 32

// JWTService defines operations for managing JWT authentication tokens.
//
// Access tokens are presented as "Authorization: Bearer" headers. Session
// tokens are carried in the session cookie. Both are signed with the same
// symmetric key but are not interchangeable.
type JWTService interface {
	// GenerateToken creates a signed access token for subject.
	GenerateToken(ctx context.Context, subject Subject) (string, error)

	// ValidateToken verifies signature and lifetime of an access token and
	// returns its claims. Issuer and audience are not checked.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)

	// GenerateSessionToken creates a signed session token for the cookie scheme.
	GenerateSessionToken(ctx context.Context, subject Subject) (string, error)

	// ValidateSessionToken verifies a session token and returns its claims.
	ValidateSessionToken(ctx context.Context, tokenString string) (*Claims, error)

	// TokenLifetime is how long an access token stays valid.
	TokenLifetime() time.Duration

	// SessionLifetime is how long a session cookie stays valid.
	SessionLifetime() time.Duration
}

// Subject is the identity a token is issued for.
type Subject struct {
	UserID   uuid.UUID
	UserName string
	Email    string
	Roles    []string
}

// Claims represents the custom claims structure for the JWT tokens.
// Roles are informational only: authentication rebuilds them from the store.
type Claims struct {
	UserID    uuid.UUID `json:"uid,omitempty"`
	UserName  string    `json:"name,omitempty"`
	Email     string    `json:"email,omitempty"`
	Roles     []string  `json:"role,omitempty"`
	TokenType string    `json:"type,omitempty"`

	// Standard registered JWT claims
	Subject   string    `json:"sub,omitempty"`
	Issuer    string    `json:"iss,omitempty"`
	Audience  []string  `json:"aud,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
