package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MockJWTService is a function-field implementation of JWTService for tests.
type MockJWTService struct {
	GenerateTokenFunc        func(ctx context.Context, subject Subject) (string, error)
	ValidateTokenFunc        func(ctx context.Context, tokenString string) (*Claims, error)
	GenerateSessionTokenFunc func(ctx context.Context, subject Subject) (string, error)
	ValidateSessionTokenFunc func(ctx context.Context, tokenString string) (*Claims, error)

	// Fixed fields for simple cases
	Token           string
	SessionToken    string
	TokenError      error
	ValidationError error
	Claims          *Claims
	Lifetime        time.Duration
}

var _ JWTService = (*MockJWTService)(nil)

// NewMockJWTService creates a mock whose validators return claims for a random user.
func NewMockJWTService() *MockJWTService {
	now := time.Now()
	userID := uuid.New()

	return &MockJWTService{
		Token:        "mock-jwt-token",
		SessionToken: "mock-session-token",
		Lifetime:     time.Hour,
		Claims: &Claims{
			UserID:    userID,
			UserName:  "mock-user",
			TokenType: TokenTypeAccess,
			Subject:   userID.String(),
			IssuedAt:  now,
			ExpiresAt: now.Add(time.Hour),
			ID:        uuid.New().String(),
		},
	}
}

// GenerateToken implements JWTService.GenerateToken.
func (m *MockJWTService) GenerateToken(ctx context.Context, subject Subject) (string, error) {
	if m.GenerateTokenFunc != nil {
		return m.GenerateTokenFunc(ctx, subject)
	}
	return m.Token, m.TokenError
}

// ValidateToken implements JWTService.ValidateToken.
func (m *MockJWTService) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	if m.ValidateTokenFunc != nil {
		return m.ValidateTokenFunc(ctx, tokenString)
	}
	if m.ValidationError != nil {
		return nil, m.ValidationError
	}
	return m.Claims, nil
}

// GenerateSessionToken implements JWTService.GenerateSessionToken.
func (m *MockJWTService) GenerateSessionToken(ctx context.Context, subject Subject) (string, error) {
	if m.GenerateSessionTokenFunc != nil {
		return m.GenerateSessionTokenFunc(ctx, subject)
	}
	return m.SessionToken, m.TokenError
}

// ValidateSessionToken implements JWTService.ValidateSessionToken.
func (m *MockJWTService) ValidateSessionToken(ctx context.Context, tokenString string) (*Claims, error) {
	if m.ValidateSessionTokenFunc != nil {
		return m.ValidateSessionTokenFunc(ctx, tokenString)
	}
	if m.ValidationError != nil {
		return nil, m.ValidationError
	}
	if m.Claims != nil {
		session := *m.Claims
		session.TokenType = TokenTypeSession
		return &session, nil
	}
	return nil, ErrInvalidToken
}

// TokenLifetime implements JWTService.TokenLifetime.
func (m *MockJWTService) TokenLifetime() time.Duration { return m.Lifetime }

// SessionLifetime implements JWTService.SessionLifetime.
func (m *MockJWTService) SessionLifetime() time.Duration { return m.Lifetime }

// WithClaims sets the claims returned by the validators and returns the mock.
func (m *MockJWTService) WithClaims(claims *Claims) *MockJWTService {
	m.Claims = claims
	return m
}

// WithValidationError sets the error returned by the validators and returns the mock.
func (m *MockJWTService) WithValidationError(err error) *MockJWTService {
	m.ValidationError = err
	return m
}

// WithTokenError sets the error returned by the generators and returns the mock.
func (m *MockJWTService) WithTokenError(err error) *MockJWTService {
	m.TokenError = err
	return m
}
