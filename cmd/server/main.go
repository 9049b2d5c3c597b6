package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/gatekeep/server/internal/auth"
	"codeberg.org/gatekeep/server/internal/config"
	"codeberg.org/gatekeep/server/internal/logger"
)

// @title Gatekeep API
// @version 1.0
// @description Authentication service: password and Google sign-in, JWT access tokens and rotating refresh tokens
// @description
// @description Features:
// @description - Email and password registration with bcrypt hashing
// @description - Google OAuth with account linking by email
// @description - Short-lived access tokens and single-use refresh tokens

// @contact.name API Support
// @contact.url https://codeberg.org/gatekeep/server

// @license.name GPL-3.0
// @license.url https://www.gnu.org/licenses/gpl-3.0.html

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authenticated requests. Format: Bearer {token}

func main() {
	flags, err := config.ParseServerFlags(os.Args[1:])
	if err != nil {
		logger.Fatal("failed to parse flags", "error", err)
	}

	// load configuration from environment
	cfg, err := config.LoadEnvironmentVariables(flags.EnvFiles()...)
	if err != nil {
		logger.Fatal("failed to load configuration", "error", err)
	}

	logger.Configure(cfg.Environment, os.Getenv("LOG_LEVEL"))
	slog.SetDefault(logger.Default())
	logger.Info("starting gatekeep server", "environment", cfg.Environment, "store", cfg.StoreDriver)

	if flags.MigrateOnly {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		if err := runMigrations(ctx, cfg); err != nil {
			logger.FatalErr(err, "failed to apply migrations")
		}

		logger.Info("migrations applied")
		return
	}

	// initialize OAuth providers
	googleEnabled, err := auth.InitializeProviders(auth.ProviderConfig{
		BaseURL:            cfg.BaseURL,
		SessionSecret:      cfg.SessionSecret,
		GoogleClientID:     cfg.GoogleClientID,
		GoogleClientSecret: cfg.GoogleClientSecret,
	})
	if err != nil {
		logger.Fatal("failed to initialize OAuth providers", "error", err)
	}

	if !googleEnabled {
		logger.Warn("google oauth not configured, provider login disabled")
	}

	// create server with all dependencies
	srv, err := NewServer(context.Background(), cfg, googleEnabled)
	if err != nil {
		logger.Fatal("failed to create server", "error", err)
	}

	httpServer := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      srv.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// start server in goroutine
	go func() {
		logger.Info("server listening", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed to start", "error", err)
		}
	}()

	// start refresh token cleanup with cancellable context
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	go srv.cleanupService.Start(cleanupCtx)

	// wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cleanupCancel()

	logger.Info("shutting down server")

	// graceful shutdown with 10 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	// close database connection
	if srv.db != nil {
		srv.db.Close()
	}

	logger.Info("server stopped")
}
