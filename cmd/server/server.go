package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const shutdownTimeout = 10 * time.Second

// startHTTPServer starts the HTTP listener, and the TLS listener when a
// certificate pair is configured, with graceful shutdown support.
// It blocks until a shutdown signal arrives, ctx is canceled or a listener fails.
func (app *application) startHTTPServer(ctx context.Context, router http.Handler) error {
	servers := []*http.Server{{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}}

	tlsEnabled := app.config.Server.TLSEnabled() && app.config.Server.HTTPSPort > 0
	if tlsEnabled {
		servers = append(servers, &http.Server{
			Addr:              fmt.Sprintf(":%d", app.config.Server.HTTPSPort),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		})
	}

	serverCtx, cancelServer := context.WithCancel(ctx)
	defer cancelServer()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(shutdownCh)

	errCh := make(chan error, len(servers))

	go func() {
		app.logger.Info("Starting server", "port", app.config.Server.Port)
		if err := servers[0].ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Error("Server failed", "error", err)
			errCh <- err
			cancelServer()
		}
	}()

	if tlsEnabled {
		go func() {
			app.logger.Info("Starting TLS server", "port", app.config.Server.HTTPSPort)
			err := servers[1].ListenAndServeTLS(app.config.Server.TLSCertFile, app.config.Server.TLSKeyFile)
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				app.logger.Error("TLS server failed", "error", err)
				errCh <- err
				cancelServer()
			}
		}()
	}

	select {
	case <-shutdownCh:
		app.logger.Info("Shutting down server...")
	case <-serverCtx.Done():
		app.logger.Info("Server context canceled, shutting down...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	var shutdownErr error
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error("Server shutdown failed", "addr", srv.Addr, "error", err)
			shutdownErr = errors.Join(shutdownErr, fmt.Errorf("server shutdown failed: %w", err))
		}
	}

	app.cleanup()

	select {
	case err := <-errCh:
		return errors.Join(err, shutdownErr)
	default:
	}

	app.logger.Info("Server shutdown completed")
	return shutdownErr
}
