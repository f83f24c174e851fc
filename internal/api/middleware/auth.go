package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/phrazzld/keystone-api/internal/api/shared"
	"github.com/phrazzld/keystone-api/internal/config"
	"github.com/phrazzld/keystone-api/internal/identity"
	"github.com/phrazzld/keystone-api/internal/platform/logger"
	"github.com/phrazzld/keystone-api/internal/redact"
	"github.com/phrazzld/keystone-api/internal/service/auth"
)

// Authentication scheme names, reported as Principal.AuthenticationType.
const (
	SchemeBearer = "Bearer"
	SchemeCookie = "Cookies"
)

// ErrMissingNameClaim is recorded when a validated token has no name claim.
var ErrMissingNameClaim = errors.New("token has no name claim")

// PrincipalSource rebuilds a principal from persisted identity state.
type PrincipalSource interface {
	PrincipalForUserName(ctx context.Context, userName, authType string) (*identity.Principal, error)
}

// authFailure records why a presented credential was not accepted so the
// challenge can answer in the presenting scheme's terms.
type authFailure struct {
	scheme string
	err    error
}

type failureKey struct{}

// AuthMiddleware resolves the request principal from a bearer token or the
// session cookie. Either way the principal is regenerated from the store, so
// roles in the token are never trusted.
type AuthMiddleware struct {
	jwtService auth.JWTService
	principals PrincipalSource
	cookieName string
	loginPath  string
	logger     *slog.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware with the given dependencies.
func NewAuthMiddleware(
	jwtService auth.JWTService,
	principals PrincipalSource,
	cfg config.AuthConfig,
	logger *slog.Logger,
) *AuthMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthMiddleware{
		jwtService: jwtService,
		principals: principals,
		cookieName: cfg.CookieName,
		loginPath:  cfg.LoginPath,
		logger:     logger.With("component", "auth_middleware"),
	}
}

// Authenticate attaches a principal to the request when a credential is
// presented and accepted. It never answers 401 by itself: protected
// routes decide through RequireAuthenticated and RequireRole.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if token, ok := bearerToken(r); ok {
			principal, err := m.authenticateBearer(ctx, token)
			if err != nil && !isCredentialFailure(err) {
				shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Authentication error", err)
				return
			}
			if err != nil {
				ctx = context.WithValue(ctx, failureKey{}, authFailure{scheme: SchemeBearer, err: err})
			} else {
				ctx = shared.WithPrincipal(ctx, principal)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		if cookie, err := r.Cookie(m.cookieName); err == nil && cookie.Value != "" {
			principal, err := m.authenticateCookie(ctx, cookie.Value)
			if err != nil && !isCredentialFailure(err) {
				shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Authentication error", err)
				return
			}
			if err != nil {
				m.ClearSessionCookie(w, r)
				ctx = context.WithValue(ctx, failureKey{}, authFailure{scheme: SchemeCookie, err: err})
			} else {
				ctx = shared.WithPrincipal(ctx, principal)
			}
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) authenticateBearer(ctx context.Context, token string) (*identity.Principal, error) {
	claims, err := m.jwtService.ValidateToken(ctx, token)
	if err != nil {
		logger.FromContextOrDefault(ctx, m.logger).Debug("bearer token rejected", "error", redact.Error(err))
		return nil, err
	}
	return m.onTokenValidated(ctx, claims, SchemeBearer)
}

func (m *AuthMiddleware) authenticateCookie(ctx context.Context, token string) (*identity.Principal, error) {
	claims, err := m.jwtService.ValidateSessionToken(ctx, token)
	if err != nil {
		logger.FromContextOrDefault(ctx, m.logger).Debug("session cookie rejected", "error", redact.Error(err))
		return nil, err
	}
	return m.onTokenValidated(ctx, claims, SchemeCookie)
}

// onTokenValidated discards the token's identity claims and rebuilds the
// principal from the store by user name. A missing name claim or an unknown
// user fails closed.
func (m *AuthMiddleware) onTokenValidated(ctx context.Context, claims *auth.Claims, scheme string) (*identity.Principal, error) {
	log := logger.FromContextOrDefault(ctx, m.logger)

	if claims.UserName == "" {
		log.Warn("validated token carries no name claim", "scheme", scheme, "token_id", claims.ID)
		return nil, ErrMissingNameClaim
	}

	principal, err := m.principals.PrincipalForUserName(ctx, claims.UserName, scheme)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			log.Warn("validated token names an unknown user", "scheme", scheme, "token_id", claims.ID)
		}
		return nil, err
	}
	return principal, nil
}

func isCredentialFailure(err error) bool {
	return errors.Is(err, auth.ErrInvalidToken) ||
		errors.Is(err, auth.ErrExpiredToken) ||
		errors.Is(err, auth.ErrTokenNotYetValid) ||
		errors.Is(err, auth.ErrMissingToken) ||
		errors.Is(err, auth.ErrWrongTokenType) ||
		errors.Is(err, ErrMissingNameClaim) ||
		errors.Is(err, identity.ErrUserNotFound)
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}

// RequireAuthenticated lets authenticated requests through and challenges the rest.
func (m *AuthMiddleware) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := shared.GetPrincipal(r.Context()); !ok {
			m.challenge(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole admits authenticated principals holding any of roles and
// answers 403 for the rest.
func (m *AuthMiddleware) RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := shared.GetPrincipal(r.Context())
			if !ok {
				m.challenge(w, r)
				return
			}
			for _, role := range roles {
				if principal.IsInRole(role) {
					next.ServeHTTP(w, r)
					return
				}
			}
			shared.RespondWithError(w, r, http.StatusForbidden, "Forbidden")
		})
	}
}

// challenge answers an unauthenticated request. A failed bearer token gets a
// 401 with a WWW-Authenticate header. Script requests get a bare 401. Browser
// requests are redirected to the login path with the original URL.
func (m *AuthMiddleware) challenge(w http.ResponseWriter, r *http.Request) {
	failure, _ := r.Context().Value(failureKey{}).(authFailure)

	if failure.scheme == SchemeBearer {
		value := `Bearer error="invalid_token"`
		if errors.Is(failure.err, auth.ErrExpiredToken) {
			value += `, error_description="The token expired"`
		}
		w.Header().Set("WWW-Authenticate", value)
		shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized, "Invalid token", failure.err)
		return
	}

	if strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest") {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	target := m.loginPath + "?" + url.Values{"ReturnUrl": {r.URL.RequestURI()}}.Encode()
	http.Redirect(w, r, target, http.StatusFound)
}

// IssueSessionCookie stores a signed session token in the session cookie.
func (m *AuthMiddleware) IssueSessionCookie(w http.ResponseWriter, r *http.Request, token string, lifetime time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(lifetime / time.Second),
		Expires:  time.Now().Add(lifetime),
		HttpOnly: true,
		Secure:   IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie.
func (m *AuthMiddleware) ClearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	})
}

// GetPrincipal extracts the authenticated principal from the request context.
func GetPrincipal(r *http.Request) (*identity.Principal, bool) {
	return shared.GetPrincipal(r.Context())
}
