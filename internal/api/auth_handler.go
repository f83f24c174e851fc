package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/phrazzld/keystone-api/internal/api/shared"
	"github.com/phrazzld/keystone-api/internal/domain"
	"github.com/phrazzld/keystone-api/internal/identity"
	"github.com/phrazzld/keystone-api/internal/platform/logger"
	"github.com/phrazzld/keystone-api/internal/service/auth"
)

// DefaultRole is assigned to every self-registered user.
const DefaultRole = "user"

// SessionCookies writes and clears the session cookie.
type SessionCookies interface {
	IssueSessionCookie(w http.ResponseWriter, r *http.Request, token string, lifetime time.Duration)
	ClearSessionCookie(w http.ResponseWriter, r *http.Request)
}

// AuthHandler handles authentication-related API requests.
type AuthHandler struct {
	users      *identity.UserManager
	jwtService auth.JWTService
	cookies    SessionCookies
	loginPath  string
	timeFunc   func() time.Time
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(
	users *identity.UserManager,
	jwtService auth.JWTService,
	cookies SessionCookies,
	loginPath string,
) *AuthHandler {
	return &AuthHandler{
		users:      users,
		jwtService: jwtService,
		cookies:    cookies,
		loginPath:  loginPath,
		timeFunc:   time.Now,
	}
}

// LoginPage describes how to sign in. It is where unauthenticated browser
// requests are redirected.
//
// @Summary  Login descriptor
// @Tags     auth
// @Produce  json
// @Param    ReturnUrl  query  string  false  "Local path to return to"
// @Success  200  {object}  LoginDescriptor
// @Router   /auth/login [get]
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, LoginDescriptor{
		LoginPath: h.loginPath,
		Method:    http.MethodPost,
		ReturnURL: localReturnURL(r.URL.Query().Get("ReturnUrl")),
	})
}

// Register handles the /auth/register endpoint.
//
// @Summary  Register a user
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    body  body  RegisterRequest  true  "New account"
// @Success  201  {object}  AuthResponse
// @Failure  400  {object}  shared.ErrorResponse
// @Failure  409  {object}  shared.ErrorResponse
// @Router   /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var req RegisterRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	user, err := domain.NewUser(req.UserName, req.Email)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := h.users.Create(ctx, user, req.Password, DefaultRole); err != nil {
		if _, ok := identity.AsResult(err); !ok {
			log.Error("failed to register user", "error", err, "role", DefaultRole)
		}
		HandleAPIError(w, r, err, "Registration failed")
		return
	}

	h.respondWithTokens(w, r, http.StatusCreated, user, "")
}

// Login handles the /auth/login endpoint. It sets the session cookie and
// returns a bearer token, so browsers and API clients share one endpoint.
//
// @Summary  Sign in
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    body  body  LoginRequest  true  "Credentials"
// @Success  200  {object}  AuthResponse
// @Failure  401  {object}  shared.ErrorResponse
// @Router   /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.UserName, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			HandleAPIError(w, r, err, "Invalid credentials")
			return
		}
		HandleAPIError(w, r, err, "Failed to authenticate user")
		return
	}

	returnURL := req.ReturnURL
	if returnURL == "" {
		returnURL = r.URL.Query().Get("ReturnUrl")
	}

	h.respondWithTokens(w, r, http.StatusOK, user, localReturnURL(returnURL))
}

// Logout clears the session cookie. Bearer tokens stay valid until they expire.
//
// @Summary  Sign out
// @Tags     auth
// @Success  204
// @Router   /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.cookies.ClearSessionCookie(w, r)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) respondWithTokens(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	user *domain.User,
	returnURL string,
) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	roles, err := h.users.GetRoles(ctx, user)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to generate authentication token")
		return
	}
	subject := auth.Subject{UserID: user.ID, UserName: user.UserName, Email: user.Email, Roles: roles}

	token, err := h.jwtService.GenerateToken(ctx, subject)
	if err != nil {
		log.Error("failed to generate access token", "error", err, "user_id", user.ID)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to generate authentication token")
		return
	}
	session, err := h.jwtService.GenerateSessionToken(ctx, subject)
	if err != nil {
		log.Error("failed to generate session token", "error", err, "user_id", user.ID)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to generate authentication token")
		return
	}

	h.cookies.IssueSessionCookie(w, r, session, h.jwtService.SessionLifetime())

	expiresAt := h.timeFunc().Add(h.jwtService.TokenLifetime()).UTC().Format(time.RFC3339)
	shared.RespondWithJSON(w, r, status, AuthResponse{
		UserID:      user.ID,
		UserName:    user.UserName,
		AccessToken: token,
		ExpiresAt:   expiresAt,
		ReturnURL:   returnURL,
	})
}
