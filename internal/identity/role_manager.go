package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/keystone-api/internal/domain"
	"github.com/phrazzld/keystone-api/internal/store"
)

// RoleManager creates and resolves roles.
type RoleManager struct {
	roles  store.RoleStore
	logger *slog.Logger
}

// NewRoleManager creates a RoleManager.
func NewRoleManager(roles store.RoleStore, logger *slog.Logger) *RoleManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &RoleManager{roles: roles, logger: logger.With("component", "role_manager")}
}

// Create adds a role named name.
func (m *RoleManager) Create(ctx context.Context, name string) (*domain.Role, error) {
	role, err := domain.NewRole(name)
	if err != nil {
		return nil, failed(Failure{
			Code:        CodeInvalidRoleName,
			Description: fmt.Sprintf("Role name '%s' is invalid.", name),
		})
	}

	if err := m.roles.Create(ctx, role); err != nil {
		if errors.Is(err, store.ErrRoleExists) {
			return nil, failed(Failure{
				Code:        CodeDuplicateRoleName,
				Description: fmt.Sprintf("Role name '%s' is already taken.", role.Name),
			})
		}
		return nil, fmt.Errorf("failed to create role: %w", err)
	}

	m.logger.InfoContext(ctx, "role created", "role", role.Name)
	return role, nil
}

// FindByName looks a role up case-insensitively.
func (m *RoleManager) FindByName(ctx context.Context, name string) (*domain.Role, error) {
	return m.roles.GetByNormalizedName(ctx, domain.NormalizeKey(name))
}

// Exists reports whether a role named name exists.
func (m *RoleManager) Exists(ctx context.Context, name string) (bool, error) {
	_, err := m.FindByName(ctx, name)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrRoleNotFound):
		return false, nil
	default:
		return false, err
	}
}
