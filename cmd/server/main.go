// Package main implements the entry point for the Keystone API server, a
// small web API host with separate application and identity stores.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/phrazzld/keystone-api/internal/config"
	"github.com/phrazzld/keystone-api/internal/platform/logger"
	"github.com/phrazzld/keystone-api/internal/redact"
)

// main is the entry point for the keystone-api server.
// Any failure before the server starts accepting requests is logged and ends
// the process with exit code 1.
func main() {
	if err := run(context.Background()); err != nil {
		slog.Error("Host terminated unexpectedly", "error", redact.Error(err))
		os.Exit(1)
	}
}

// run loads configuration, sets up logging, builds the application and serves
// until a shutdown signal arrives.
func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	log.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"https_port", cfg.Server.HTTPSPort,
		"environment", cfg.Server.Environment,
		"log_level", cfg.Server.LogLevel)

	app, err := newApplication(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.Run(ctx)
}
