package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/keystone-api/internal/config"
	"github.com/phrazzld/keystone-api/internal/domain"
	"github.com/phrazzld/keystone-api/internal/identity"
	"github.com/phrazzld/keystone-api/internal/store"
)

// Built-in role names.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// SampleItem is one row inserted into an empty items table.
type SampleItem struct {
	Name        string
	Description string
}

// SampleItems is the data Initialize inserts.
var SampleItems = []SampleItem{
	{Name: "Getting started", Description: "Sign in at /auth/login to receive a session cookie and a bearer token."},
	{Name: "Bearer tokens", Description: "Send Authorization: Bearer <token>; roles are re-read from the store on every request."},
	{Name: "Administration", Description: "Members of the admin role may create items."},
}

// Initialize inserts SampleItems when the items table is empty. It reports
// whether anything was inserted.
func Initialize(ctx context.Context, items store.ItemStore, logger *slog.Logger) (bool, error) {
	if logger == nil {
		logger = slog.Default()
	}

	count, err := items.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to count items: %w", err)
	}
	if count > 0 {
		logger.Debug("items already present, skipping sample data", "count", count)
		return false, nil
	}

	for _, s := range SampleItems {
		item, err := domain.NewItem(s.Name, s.Description)
		if err != nil {
			return false, fmt.Errorf("invalid sample item %q: %w", s.Name, err)
		}
		if err := items.Create(ctx, item); err != nil && !errors.Is(err, store.ErrItemExists) {
			return false, fmt.Errorf("failed to insert sample item %q: %w", s.Name, err)
		}
	}

	logger.Info("sample data inserted", "items", len(SampleItems))
	return true, nil
}

// EnsureRoles creates the built-in roles that do not exist yet.
func EnsureRoles(ctx context.Context, roles *identity.RoleManager, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	for _, name := range []string{RoleAdmin, RoleUser} {
		exists, err := roles.Exists(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to check role %q: %w", name, err)
		}
		if exists {
			continue
		}
		if _, err := roles.Create(ctx, name); err != nil && !identity.HasFailure(err, identity.CodeDuplicateRoleName) {
			return fmt.Errorf("failed to create role %q: %w", name, err)
		}
		logger.Info("role created", "role", name)
	}
	return nil
}

// BootstrapAdmin creates the configured administrator when it does not exist
// and makes sure it holds the admin role. It does nothing when cfg is not enabled.
func BootstrapAdmin(
	ctx context.Context,
	users *identity.UserManager,
	cfg config.BootstrapAdminConfig,
	logger *slog.Logger,
) error {
	if !cfg.Enabled() {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	user, err := users.FindByName(ctx, cfg.UserName)
	switch {
	case errors.Is(err, identity.ErrUserNotFound):
		user, err = domain.NewUser(cfg.UserName, cfg.Email)
		if err != nil {
			return fmt.Errorf("invalid bootstrap admin: %w", err)
		}
		if err := users.Create(ctx, user, cfg.Password, RoleAdmin); err != nil {
			return fmt.Errorf("failed to create bootstrap admin: %w", err)
		}
		logger.Info("bootstrap admin created", "user_name", user.UserName)
		return nil
	case err != nil:
		return fmt.Errorf("failed to look up bootstrap admin: %w", err)
	}

	inRole, err := users.IsInRole(ctx, user, RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to check bootstrap admin roles: %w", err)
	}
	if inRole {
		return nil
	}
	if err := users.AddToRole(ctx, user, RoleAdmin); err != nil {
		return fmt.Errorf("failed to grant admin role: %w", err)
	}
	return nil
}
