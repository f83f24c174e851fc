package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/keystone-api/internal/api"
	apiMiddleware "github.com/phrazzld/keystone-api/internal/api/middleware"
	_ "github.com/phrazzld/keystone-api/internal/api/docs" // registers the Swagger document
	"github.com/phrazzld/keystone-api/internal/platform/gormstore"
	"github.com/phrazzld/keystone-api/internal/seed"
	httpSwagger "github.com/swaggo/http-swagger"
)

// setupRouter creates and configures the application router with all routes
// and middleware. Middleware order: diagnostics, HTTPS redirection,
// authentication, then per-route authorization.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()
	dev := app.config.Server.IsDevelopment()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.TraceMiddleware(app.logger))
	r.Use(middleware.Logger)
	if dev {
		r.Use(apiMiddleware.DeveloperExceptionPage)
	} else {
		r.Use(middleware.Recoverer)
	}

	if port := app.config.Server.HTTPSPort; port > 0 {
		r.Use(apiMiddleware.HTTPSRedirect(port))
	} else {
		app.logger.Warn("Failed to determine the https port for redirect; HTTPS redirection is disabled")
	}

	r.Use(app.authMiddleware.Authenticate)

	authHandler := api.NewAuthHandler(app.userManager, app.jwtService, app.authMiddleware, app.config.Auth.LoginPath)
	itemHandler := api.NewItemHandler(app.itemStore)

	r.Route("/auth", func(r chi.Router) {
		r.Get("/login", authHandler.LoginPage)
		r.Post("/login", authHandler.Login)
		r.Post("/register", authHandler.Register)
		r.Post("/logout", authHandler.Logout)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(app.authMiddleware.RequireAuthenticated)

		r.Get("/me", api.Me)
		r.Get("/items", itemHandler.List)
		r.Get("/items/{id}", itemHandler.Get)
		r.With(app.authMiddleware.RequireRole(seed.RoleAdmin)).Post("/items", itemHandler.Create)
	})

	if dev {
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

		schema := api.NewSchemaHandler(map[string]api.SchemaEnsurer{
			gormstore.ServerContextName:   app.serverCtx,
			gormstore.SecurityContextName: app.securityCtx,
		})
		r.Post("/_dev/schema", schema.Ensure)
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
