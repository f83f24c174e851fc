package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/phrazzld/keystone-api/internal/domain"
	"github.com/phrazzld/keystone-api/internal/store"
)

// UserManager is the entry point for user lifecycle operations. It applies
// Options on every write and keeps the security stamp current.
type UserManager struct {
	users     store.UserStore
	roles     store.RoleStore
	hasher    PasswordHasher
	passwords *PasswordValidator
	opts      Options
	validate  *validator.Validate
	logger    *slog.Logger
}

// NewUserManager creates a UserManager over the security context stores.
func NewUserManager(
	users store.UserStore,
	roles store.RoleStore,
	hasher PasswordHasher,
	opts Options,
	logger *slog.Logger,
) *UserManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserManager{
		users:     users,
		roles:     roles,
		hasher:    hasher,
		passwords: NewPasswordValidator(opts.Password),
		opts:      opts,
		validate:  validator.New(),
		logger:    logger.With("component", "user_manager"),
	}
}

// Options returns the policy this manager enforces.
func (m *UserManager) Options() Options {
	return m.opts
}

// Create validates user and password against the policy, hashes the
// password, assigns a fresh security stamp, and persists the user with its
// memberships of roleNames in one write. Policy failures are returned
// together as a *Result.
func (m *UserManager) Create(ctx context.Context, user *domain.User, password string, roleNames ...string) error {
	user.Normalize()

	failures := m.validateUser(ctx, user, uuid.Nil)
	failures = append(failures, m.passwords.failures(password)...)
	if err := failed(failures...); err != nil {
		m.logger.DebugContext(ctx, "user rejected by policy",
			"user_name", user.UserName,
			"codes", err.(*Result).Codes())
		return err
	}

	roleIDs := make([]uuid.UUID, 0, len(roleNames))
	for _, name := range roleNames {
		role, err := m.roles.GetByNormalizedName(ctx, domain.NormalizeKey(name))
		if err != nil {
			return fmt.Errorf("failed to resolve role %q: %w", name, err)
		}
		roleIDs = append(roleIDs, role.ID)
	}

	hash, err := m.hasher.Hash(password)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.SecurityStamp = NewSecurityStamp()

	if err := m.users.Create(ctx, user, roleIDs...); err != nil {
		if errors.Is(err, store.ErrUserNameExists) {
			return failed(duplicateUserName(user.UserName))
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	m.logger.InfoContext(ctx, "user created", "user_id", user.ID, "user_name", user.UserName, "roles", roleNames)
	return nil
}

func (m *UserManager) validateUser(ctx context.Context, user *domain.User, self uuid.UUID) []Failure {
	var out []Failure

	if !m.userNameAllowed(user.UserName) {
		out = append(out, Failure{
			Code:        CodeInvalidUserName,
			Description: fmt.Sprintf("Username '%s' is invalid, can only contain letters or digits.", user.UserName),
		})
	} else if existing, err := m.users.GetByNormalizedUserName(ctx, user.NormalizedUserName); err == nil && existing.ID != self {
		out = append(out, duplicateUserName(user.UserName))
	}

	if err := m.validate.Var(user.Email, "required,email"); err != nil {
		out = append(out, Failure{
			Code:        CodeInvalidEmail,
			Description: fmt.Sprintf("Email '%s' is invalid.", user.Email),
		})
	} else if m.opts.User.RequireUniqueEmail {
		if existing, err := m.users.GetByNormalizedEmail(ctx, user.NormalizedEmail); err == nil && existing.ID != self {
			out = append(out, duplicateEmail(user.Email))
		}
	}

	return out
}

func (m *UserManager) userNameAllowed(name string) bool {
	if name == "" {
		return false
	}
	allowed := m.opts.User.AllowedUserNameCharacters
	if allowed == "" {
		return true
	}
	for _, r := range name {
		if !strings.ContainsRune(allowed, r) {
			return false
		}
	}
	return true
}

func duplicateUserName(name string) Failure {
	return Failure{Code: CodeDuplicateUserName, Description: fmt.Sprintf("Username '%s' is already taken.", name)}
}

func duplicateEmail(email string) Failure {
	return Failure{Code: CodeDuplicateEmail, Description: fmt.Sprintf("Email '%s' is already taken.", email)}
}

// FindByID returns the user with id or ErrUserNotFound.
func (m *UserManager) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return m.users.GetByID(ctx, id)
}

// FindByName looks a user up case-insensitively by user name.
func (m *UserManager) FindByName(ctx context.Context, userName string) (*domain.User, error) {
	key := domain.NormalizeKey(userName)
	if key == "" {
		return nil, ErrUserNotFound
	}
	return m.users.GetByNormalizedUserName(ctx, key)
}

// FindByEmail looks a user up case-insensitively by email.
func (m *UserManager) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	key := domain.NormalizeKey(email)
	if key == "" {
		return nil, ErrUserNotFound
	}
	return m.users.GetByNormalizedEmail(ctx, key)
}

// CheckPassword reports whether password matches the user's stored hash.
func (m *UserManager) CheckPassword(user *domain.User, password string) bool {
	if user == nil || user.PasswordHash == "" {
		return false
	}
	return m.hasher.Verify(user.PasswordHash, password) == nil
}

// Authenticate resolves a user by name or email and verifies password.
// Any mismatch returns ErrInvalidCredentials.
func (m *UserManager) Authenticate(ctx context.Context, login, password string) (*domain.User, error) {
	user, err := m.FindByName(ctx, login)
	if errors.Is(err, ErrUserNotFound) && strings.Contains(login, "@") {
		user, err = m.FindByEmail(ctx, login)
	}
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !m.CheckPassword(user, password) {
		m.logger.DebugContext(ctx, "password verification failed", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// ChangePassword replaces the password after verifying the current one.
func (m *UserManager) ChangePassword(ctx context.Context, user *domain.User, current, next string) error {
	if !m.CheckPassword(user, current) {
		return failed(Failure{Code: CodePasswordMismatch, Description: "Incorrect password."})
	}
	if err := m.passwords.Validate(next); err != nil {
		return err
	}

	hash, err := m.hasher.Hash(next)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	return m.UpdateSecurityStamp(ctx, user)
}

// Update persists changed user name or email after re-applying user options.
func (m *UserManager) Update(ctx context.Context, user *domain.User) error {
	user.Normalize()
	if err := failed(m.validateUser(ctx, user, user.ID)...); err != nil {
		return err
	}
	return m.UpdateSecurityStamp(ctx, user)
}

// UpdateSecurityStamp rotates the stamp and saves the user.
func (m *UserManager) UpdateSecurityStamp(ctx context.Context, user *domain.User) error {
	user.SecurityStamp = NewSecurityStamp()
	user.UpdatedAt = time.Now().UTC()
	if err := m.users.Update(ctx, user); err != nil {
		if errors.Is(err, store.ErrUserNameExists) {
			return failed(duplicateUserName(user.UserName))
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// Delete removes the user with its memberships and claims.
func (m *UserManager) Delete(ctx context.Context, user *domain.User) error {
	if err := m.users.Delete(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	m.logger.InfoContext(ctx, "user deleted", "user_id", user.ID)
	return nil
}

// GetRoles returns the user's role names, sorted.
func (m *UserManager) GetRoles(ctx context.Context, user *domain.User) ([]string, error) {
	return m.users.GetRoleNames(ctx, user.ID)
}

// IsInRole reports whether the user belongs to roleName, compared case-insensitively.
func (m *UserManager) IsInRole(ctx context.Context, user *domain.User, roleName string) (bool, error) {
	names, err := m.GetRoles(ctx, user)
	if err != nil {
		return false, err
	}
	key := domain.NormalizeKey(roleName)
	for _, n := range names {
		if domain.NormalizeKey(n) == key {
			return true, nil
		}
	}
	return false, nil
}

// AddToRole adds the user to an existing role.
func (m *UserManager) AddToRole(ctx context.Context, user *domain.User, roleName string) error {
	role, err := m.roles.GetByNormalizedName(ctx, domain.NormalizeKey(roleName))
	if err != nil {
		return err
	}

	in, err := m.IsInRole(ctx, user, role.Name)
	if err != nil {
		return err
	}
	if in {
		return failed(Failure{
			Code:        CodeUserAlreadyInRole,
			Description: fmt.Sprintf("User already in role '%s'.", role.Name),
		})
	}

	if err := m.users.AddToRole(ctx, user.ID, role.ID); err != nil {
		return fmt.Errorf("failed to add user to role: %w", err)
	}
	m.logger.InfoContext(ctx, "user added to role", "user_id", user.ID, "role", role.Name)
	return m.UpdateSecurityStamp(ctx, user)
}

// RemoveFromRole removes the user from a role it belongs to.
func (m *UserManager) RemoveFromRole(ctx context.Context, user *domain.User, roleName string) error {
	role, err := m.roles.GetByNormalizedName(ctx, domain.NormalizeKey(roleName))
	if err != nil {
		return err
	}

	in, err := m.IsInRole(ctx, user, role.Name)
	if err != nil {
		return err
	}
	if !in {
		return failed(Failure{
			Code:        CodeUserNotInRole,
			Description: fmt.Sprintf("User is not in role '%s'.", role.Name),
		})
	}

	if err := m.users.RemoveFromRole(ctx, user.ID, role.ID); err != nil {
		return fmt.Errorf("failed to remove user from role: %w", err)
	}
	m.logger.InfoContext(ctx, "user removed from role", "user_id", user.ID, "role", role.Name)
	return m.UpdateSecurityStamp(ctx, user)
}

// GetClaims returns the user's stored claims.
func (m *UserManager) GetClaims(ctx context.Context, user *domain.User) ([]domain.UserClaim, error) {
	return m.users.GetClaims(ctx, user.ID)
}

// AddClaim attaches a claim to the user.
func (m *UserManager) AddClaim(ctx context.Context, user *domain.User, claim domain.UserClaim) error {
	if err := m.users.AddClaim(ctx, user.ID, claim); err != nil {
		return fmt.Errorf("failed to add claim: %w", err)
	}
	return m.UpdateSecurityStamp(ctx, user)
}

// RemoveClaim detaches a claim from the user.
func (m *UserManager) RemoveClaim(ctx context.Context, user *domain.User, claim domain.UserClaim) error {
	if err := m.users.RemoveClaim(ctx, user.ID, claim); err != nil {
		return fmt.Errorf("failed to remove claim: %w", err)
	}
	return m.UpdateSecurityStamp(ctx, user)
}

// NewSecurityStamp returns a random opaque stamp.
func NewSecurityStamp() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}
