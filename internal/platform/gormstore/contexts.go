package gormstore

import (
	"context"
	"log/slog"

	"github.com/phrazzld/keystone-api/internal/platform/database"
	"github.com/phrazzld/keystone-api/internal/store"
)

// Context names used in logs and errors.
const (
	ServerContextName   = "server"
	SecurityContextName = "security"
)

// ServerContext is the persistence context for application data.
type ServerContext struct {
	*database.Context
	logger *slog.Logger
}

// OpenServerContext connects the application data context.
func OpenServerContext(connStr string, logger *slog.Logger) (*ServerContext, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c, err := database.Open(ServerContextName, connStr, logger)
	if err != nil {
		return nil, err
	}
	return &ServerContext{Context: c, logger: logger}, nil
}

// EnsureCreated creates the application tables if they are missing.
func (c *ServerContext) EnsureCreated(ctx context.Context) (bool, error) {
	return c.Context.EnsureCreated(ctx, ServerModels()...)
}

// Items returns the item store bound to this context.
func (c *ServerContext) Items() store.ItemStore {
	return NewItemStore(c.DB, c.logger)
}

// SecurityContext is the persistence context for identity data.
type SecurityContext struct {
	*database.Context
	logger *slog.Logger
}

// OpenSecurityContext connects the identity data context.
func OpenSecurityContext(connStr string, logger *slog.Logger) (*SecurityContext, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c, err := database.Open(SecurityContextName, connStr, logger)
	if err != nil {
		return nil, err
	}
	return &SecurityContext{Context: c, logger: logger}, nil
}

// EnsureCreated creates the identity tables if they are missing.
func (c *SecurityContext) EnsureCreated(ctx context.Context) (bool, error) {
	return c.Context.EnsureCreated(ctx, SecurityModels()...)
}

// Users returns the user store bound to this context.
func (c *SecurityContext) Users() store.UserStore {
	return NewUserStore(c.DB, c.logger)
}

// Roles returns the role store bound to this context.
func (c *SecurityContext) Roles() store.RoleStore {
	return NewRoleStore(c.DB, c.logger)
}
