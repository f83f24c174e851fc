package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/keystone-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret  = "test-secret-that-is-long-enough-for-testing"
	wrongSecret = "wrong-secret-that-is-long-enough-for-testing"
)

var fixedTime = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		TokenLifetimeMinutes:   60,
		SessionLifetimeMinutes: 20160,
		LoginPath:              "/auth/login",
		CookieName:             "keystone_session",
	}
}

func newTestService(t *testing.T, secret string, now time.Time) *hmacJWTService {
	t.Helper()
	svc, err := newHMACJWTService(secret, testAuthConfig(), func() time.Time { return now })
	require.NoError(t, err)
	return svc
}

func testSubject() Subject {
	return Subject{
		UserID:   uuid.New(),
		UserName: "alice",
		Email:    "alice@example.com",
		Roles:    []string{"user"},
	}
}

func TestNewJWTService_RejectsShortSecret(t *testing.T) {
	t.Parallel()

	_, err := NewJWTService("too-short", testAuthConfig())
	assert.ErrorIs(t, err, ErrWeakSecret)

	svc, err := NewJWTService(testSecret, testAuthConfig())
	require.NoError(t, err)
	assert.Equal(t, time.Hour, svc.TokenLifetime())
	assert.Equal(t, 14*24*time.Hour, svc.SessionLifetime())
}

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, testSecret, fixedTime)
	subject := testSubject()

	token, err := svc.GenerateToken(context.Background(), subject)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)

	assert.Equal(t, subject.UserID, claims.UserID)
	assert.Equal(t, subject.UserID.String(), claims.Subject)
	assert.Equal(t, "alice", claims.UserName)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, []string{"user"}, claims.Roles)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
	assert.Equal(t, fixedTime.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, fixedTime.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
	assert.NotEmpty(t, claims.ID)
}

func TestValidateToken(t *testing.T) {
	t.Parallel()

	subject := testSubject()
	issue := func(secret string, at time.Time) string {
		svc := newTestService(t, secret, at)
		token, err := svc.GenerateToken(context.Background(), subject)
		require.NoError(t, err)
		return token
	}

	tests := []struct {
		name    string
		token   string
		at      time.Time
		wantErr error
	}{
		{"valid token", issue(testSecret, fixedTime), fixedTime, nil},
		{"within clock skew", issue(testSecret, fixedTime), fixedTime.Add(time.Hour + time.Minute), nil},
		{"expired token", issue(testSecret, fixedTime), fixedTime.Add(2 * time.Hour), ErrExpiredToken},
		{"future iat without nbf", issue(testSecret, fixedTime.Add(time.Hour)), fixedTime, nil},
		{"wrong signing key", issue(wrongSecret, fixedTime), fixedTime, ErrInvalidToken},
		{"malformed token", "this.is.not.a.valid.jwt.token", fixedTime, ErrInvalidToken},
		{"empty token", "", fixedTime, ErrMissingToken},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestService(t, testSecret, tc.at)
			claims, err := svc.ValidateToken(context.Background(), tc.token)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, subject.UserID, claims.UserID)
		})
	}
}

func TestValidateToken_IgnoresIssuerAndAudience(t *testing.T) {
	t.Parallel()

	claims := jwtCustomClaims{
		UserID:    uuid.New(),
		UserName:  "alice",
		TokenType: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "https://somebody-else.example",
			Audience:  jwt.ClaimStrings{"unrelated-api"},
			IssuedAt:  jwt.NewNumericDate(fixedTime),
			ExpiresAt: jwt.NewNumericDate(fixedTime.Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	got, err := newTestService(t, testSecret, fixedTime).ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "https://somebody-else.example", got.Issuer)
	assert.Equal(t, []string{"unrelated-api"}, got.Audience)
}

func TestValidateToken_SigningAlgorithms(t *testing.T) {
	t.Parallel()

	claims := jwtCustomClaims{
		UserName:  "alice",
		TokenType: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(fixedTime.Add(time.Hour)),
		},
	}

	tests := []struct {
		name    string
		method  jwt.SigningMethod
		key     any
		wantErr error
	}{
		{"HS256", jwt.SigningMethodHS256, []byte(testSecret), nil},
		{"HS384", jwt.SigningMethodHS384, []byte(testSecret), nil},
		{"HS512", jwt.SigningMethodHS512, []byte(testSecret), nil},
		{"none", jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, ErrInvalidToken},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			token, err := jwt.NewWithClaims(tc.method, claims).SignedString(tc.key)
			require.NoError(t, err)

			got, err := newTestService(t, testSecret, fixedTime).ValidateToken(context.Background(), token)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "alice", got.UserName)
		})
	}
}

func TestValidateToken_RequiresExpiration(t *testing.T) {
	t.Parallel()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"name": "alice",
		"type": TokenTypeAccess,
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = newTestService(t, testSecret, fixedTime).ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_AcceptsTokenMintedWithSharedKey(t *testing.T) {
	t.Parallel()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"name": "alice",
		"iss":  "someone",
		"aud":  "anyone",
		"exp":  fixedTime.Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	svc := newTestService(t, testSecret, fixedTime)

	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.UserName)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
	assert.Equal(t, "someone", claims.Issuer)
	assert.Equal(t, []string{"anyone"}, claims.Audience)

	_, err = svc.ValidateSessionToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestSessionTokensAreNotBearerTokens(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, testSecret, fixedTime)
	subject := testSubject()

	session, err := svc.GenerateSessionToken(context.Background(), subject)
	require.NoError(t, err)
	access, err := svc.GenerateToken(context.Background(), subject)
	require.NoError(t, err)

	claims, err := svc.ValidateSessionToken(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeSession, claims.TokenType)
	assert.Equal(t, fixedTime.Add(14*24*time.Hour).Unix(), claims.ExpiresAt.Unix())

	_, err = svc.ValidateToken(context.Background(), session)
	assert.ErrorIs(t, err, ErrWrongTokenType)
	_, err = svc.ValidateSessionToken(context.Background(), access)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}
