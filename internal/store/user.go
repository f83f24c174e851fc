package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/keystone-api/internal/domain"
)

// UserStore defines persistence of identity users, their role memberships,
// and their claims. Implementations live on the security context only.
type UserStore interface {
	// Create saves a new user together with its memberships of roleIDs, all
	// or nothing. Returns ErrUserNameExists when the user name is taken.
	Create(ctx context.Context, user *domain.User, roleIDs ...uuid.UUID) error

	// Update overwrites an existing user's details.
	// Returns ErrUserNotFound if the user does not exist.
	Update(ctx context.Context, user *domain.User) error

	// Delete removes a user together with its role memberships and claims.
	// Returns ErrUserNotFound if the user does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// GetByID retrieves a user by their unique ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByNormalizedUserName retrieves a user by upper-cased user name.
	// Returns ErrUserNotFound if the user does not exist.
	GetByNormalizedUserName(ctx context.Context, normalizedUserName string) (*domain.User, error)

	// GetByNormalizedEmail retrieves the first user with the upper-cased email.
	// Returns ErrUserNotFound if no user has that email.
	GetByNormalizedEmail(ctx context.Context, normalizedEmail string) (*domain.User, error)

	// Count returns the number of stored users.
	Count(ctx context.Context) (int64, error)

	// AddToRole records the user's membership of a role. Adding an existing
	// membership is a no-op.
	AddToRole(ctx context.Context, userID, roleID uuid.UUID) error

	// RemoveFromRole deletes the user's membership of a role, if present.
	RemoveFromRole(ctx context.Context, userID, roleID uuid.UUID) error

	// GetRoleNames returns the names of every role the user belongs to, sorted.
	GetRoleNames(ctx context.Context, userID uuid.UUID) ([]string, error)

	// AddClaim attaches a claim to the user.
	AddClaim(ctx context.Context, userID uuid.UUID, claim domain.UserClaim) error

	// RemoveClaim deletes every stored claim with the same type and value.
	RemoveClaim(ctx context.Context, userID uuid.UUID, claim domain.UserClaim) error

	// GetClaims returns the user's stored claims in insertion order.
	GetClaims(ctx context.Context, userID uuid.UUID) ([]domain.UserClaim, error)
}

// RoleStore defines persistence of roles.
type RoleStore interface {
	// Create saves a new role. Returns ErrRoleExists when the name is taken.
	Create(ctx context.Context, role *domain.Role) error

	// GetByNormalizedName retrieves a role by upper-cased name.
	// Returns ErrRoleNotFound if the role does not exist.
	GetByNormalizedName(ctx context.Context, normalizedName string) (*domain.Role, error)

	// List returns all roles ordered by name.
	List(ctx context.Context) ([]domain.Role, error)
}
