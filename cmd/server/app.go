package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/keystone-api/internal/api/middleware"
	"github.com/phrazzld/keystone-api/internal/config"
	"github.com/phrazzld/keystone-api/internal/identity"
	"github.com/phrazzld/keystone-api/internal/platform/gormstore"
	"github.com/phrazzld/keystone-api/internal/seed"
	"github.com/phrazzld/keystone-api/internal/service/auth"
	"github.com/phrazzld/keystone-api/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	// Persistence contexts
	serverCtx   *gormstore.ServerContext
	securityCtx *gormstore.SecurityContext

	// Stores
	itemStore store.ItemStore

	// Identity
	userManager   *identity.UserManager
	roleManager   *identity.RoleManager
	claimsFactory *identity.ClaimsFactory

	// Authentication
	jwtService     auth.JWTService
	authMiddleware *middleware.AuthMiddleware
}

// newApplication creates a new application instance with all dependencies
// initialized. Both persistence contexts are opened, their schemas ensured and
// the seed data applied before it returns.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.JWTSecret, cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes,
		"session_lifetime_minutes", cfg.Auth.SessionLifetimeMinutes)

	app.serverCtx, err = gormstore.OpenServerContext(cfg.ConnectionStrings.ServerContext, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open server context: %w", err)
	}

	app.securityCtx, err = gormstore.OpenSecurityContext(cfg.ConnectionStrings.SecurityContext, logger)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to open security context: %w", err)
	}

	if err := app.ensureSchemas(ctx); err != nil {
		app.cleanup()
		return nil, err
	}

	app.itemStore = app.serverCtx.Items()
	app.roleManager = identity.NewRoleManager(app.securityCtx.Roles(), logger)
	app.userManager = identity.NewUserManager(
		app.securityCtx.Users(),
		app.securityCtx.Roles(),
		identity.NewBcryptHasher(bcrypt.DefaultCost),
		identity.OptionsFromConfig(cfg.Identity),
		logger,
	)
	app.claimsFactory = identity.NewClaimsFactory(app.userManager)
	app.authMiddleware = middleware.NewAuthMiddleware(app.jwtService, app.claimsFactory, cfg.Auth, logger)

	if err := app.seed(ctx); err != nil {
		app.cleanup()
		return nil, err
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// ensureSchemas creates missing tables in both contexts.
func (app *application) ensureSchemas(ctx context.Context) error {
	created, err := app.serverCtx.EnsureCreated(ctx)
	if err != nil {
		return fmt.Errorf("failed to ensure server schema: %w", err)
	}
	app.logger.Info("Schema ensured", "context", gormstore.ServerContextName, "created", created)

	created, err = app.securityCtx.EnsureCreated(ctx)
	if err != nil {
		return fmt.Errorf("failed to ensure security schema: %w", err)
	}
	app.logger.Info("Schema ensured", "context", gormstore.SecurityContextName, "created", created)
	return nil
}

// seed applies the sample data, the built-in roles and the optional
// bootstrap administrator.
func (app *application) seed(ctx context.Context) error {
	if _, err := seed.Initialize(ctx, app.itemStore, app.logger); err != nil {
		return fmt.Errorf("failed to seed items: %w", err)
	}
	if err := seed.EnsureRoles(ctx, app.roleManager, app.logger); err != nil {
		return fmt.Errorf("failed to seed roles: %w", err)
	}
	if err := seed.BootstrapAdmin(ctx, app.userManager, app.config.BootstrapAdmin, app.logger); err != nil {
		return fmt.Errorf("failed to bootstrap admin: %w", err)
	}
	return nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.serverCtx != nil {
		if err := app.serverCtx.Close(); err != nil {
			app.logger.Error("Error closing database connection",
				"context", gormstore.ServerContextName, "error", err)
		}
	}
	if app.securityCtx != nil {
		if err := app.securityCtx.Close(); err != nil {
			app.logger.Error("Error closing database connection",
				"context", gormstore.SecurityContextName, "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
