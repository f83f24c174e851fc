package identity

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/keystone-api/internal/domain"
)

// Claim types placed on every principal.
const (
	ClaimNameIdentifier = "nameidentifier"
	ClaimName           = "name"
	ClaimEmail          = "email"
	ClaimRole           = "role"
	ClaimSecurityStamp  = "security_stamp"
)

// Claim is a single type/value assertion about the principal.
type Claim struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Principal is the authenticated identity attached to a request. It is
// always built from the security context, never from token contents.
type Principal struct {
	UserID             uuid.UUID `json:"id"`
	UserName           string    `json:"user_name"`
	Email              string    `json:"email"`
	Roles              []string  `json:"roles"`
	Claims             []Claim   `json:"claims"`
	AuthenticationType string    `json:"authentication_type"`
}

// IsAuthenticated reports whether the principal carries an identity.
func (p *Principal) IsAuthenticated() bool {
	return p != nil && p.UserID != uuid.Nil && p.AuthenticationType != ""
}

// IsInRole reports whether role is among the principal's role claims.
func (p *Principal) IsInRole(role string) bool {
	if p == nil {
		return false
	}
	key := domain.NormalizeKey(role)
	for _, r := range p.Roles {
		if domain.NormalizeKey(r) == key {
			return true
		}
	}
	return false
}

// FindFirst returns the value of the first claim of claimType, or "".
func (p *Principal) FindFirst(claimType string) string {
	if p == nil {
		return ""
	}
	for _, c := range p.Claims {
		if c.Type == claimType {
			return c.Value
		}
	}
	return ""
}

// ClaimsFactory builds principals from persisted user state.
type ClaimsFactory struct {
	users *UserManager
}

// NewClaimsFactory creates a ClaimsFactory reading through users.
func NewClaimsFactory(users *UserManager) *ClaimsFactory {
	return &ClaimsFactory{users: users}
}

// CreateUserPrincipal returns a principal holding the user's identifier,
// name, email, security stamp, one role claim per role, and every stored
// user claim. authType names the scheme that authenticated the request.
func (f *ClaimsFactory) CreateUserPrincipal(ctx context.Context, user *domain.User, authType string) (*Principal, error) {
	roles, err := f.users.GetRoles(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to load roles: %w", err)
	}
	stored, err := f.users.GetClaims(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to load claims: %w", err)
	}

	claims := make([]Claim, 0, 4+len(roles)+len(stored))
	claims = append(claims,
		Claim{Type: ClaimNameIdentifier, Value: user.ID.String()},
		Claim{Type: ClaimName, Value: user.UserName},
		Claim{Type: ClaimEmail, Value: user.Email},
		Claim{Type: ClaimSecurityStamp, Value: user.SecurityStamp},
	)
	for _, r := range roles {
		claims = append(claims, Claim{Type: ClaimRole, Value: r})
	}
	for _, c := range stored {
		claims = append(claims, Claim{Type: c.Type, Value: c.Value})
	}

	return &Principal{
		UserID:             user.ID,
		UserName:           user.UserName,
		Email:              user.Email,
		Roles:              roles,
		Claims:             claims,
		AuthenticationType: authType,
	}, nil
}

// PrincipalForUserName re-reads the user named userName and builds a fresh
// principal. It returns ErrUserNotFound when the name is empty or unknown.
func (f *ClaimsFactory) PrincipalForUserName(ctx context.Context, userName, authType string) (*Principal, error) {
	user, err := f.users.FindByName(ctx, userName)
	if err != nil {
		return nil, err
	}
	return f.CreateUserPrincipal(ctx, user, authType)
}
