package main

import (
	"context"
	"fmt"

	"codeberg.org/gatekeep/server/gatekeep/identity"
	"codeberg.org/gatekeep/server/gatekeep/refreshtokens"
	"codeberg.org/gatekeep/server/gatekeep/sessions"
	"codeberg.org/gatekeep/server/gatekeep/store"
	"codeberg.org/gatekeep/server/gatekeep/tokens"
	"codeberg.org/gatekeep/server/internal/auth"
	"codeberg.org/gatekeep/server/internal/config"
	"codeberg.org/gatekeep/server/internal/hasher"
	"codeberg.org/gatekeep/server/internal/logger"
	"codeberg.org/gatekeep/server/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// creates and configures a new server instance with all dependencies
func NewServer(ctx context.Context, cfg *config.Config, googleEnabled bool) (*Server, error) {
	st, db, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	server, err := newServer(ctx, cfg, st, db, googleEnabled)
	if err != nil {
		if db != nil {
			db.Close()
		}

		return nil, err
	}

	return server, nil
}

// builds the auth core and router on top of an already opened store
func newServer(ctx context.Context, cfg *config.Config, st store.Store, db *pgxpool.Pool, googleEnabled bool) (*Server, error) {
	h, err := hasher.New(cfg.BcryptCost, cfg.HashWorkers)
	if err != nil {
		return nil, fmt.Errorf("failed to create password hasher: %w", err)
	}

	logger.Info("password hasher ready", "bcrypt_cost", h.Cost(), "workers", cfg.HashWorkers)

	signer, err := auth.NewSigner(auth.SignerConfig{
		AccessSecret:  cfg.JWTSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create token signer: %w", err)
	}

	issuer := tokens.NewIssuer(signer, st)

	svc, err := sessions.NewService(ctx, sessions.Dependencies{
		Users:           st.Users(),
		Hasher:          h,
		Resolver:        identity.NewResolver(st.Users()),
		Issuer:          issuer,
		Rotator:         tokens.NewRotator(signer, st, issuer),
		ProviderEnabled: googleEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session service: %w", err)
	}

	// expired refresh records are pruned in the background
	cleanupService := refreshtokens.NewCleanupService(
		st.RefreshTokens(),
		cfg.TokenCleanupInterval,
		cfg.TokenCleanupRetention,
	)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	server := &Server{
		db:             db,
		config:         cfg,
		store:          st,
		signer:         signer,
		sessions:       svc,
		cleanupService: cleanupService,
		router:         router,
	}

	RegisterRoutes(router, server)

	return server, nil
}

// opens the configured storage backend. The pool is nil for the memory driver.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, *pgxpool.Pool, error) {
	if cfg.StoreDriver == config.DriverMemory {
		logger.Warn("using in-memory store, data is lost on restart")
		return store.NewMemory(), nil, nil
	}

	db, err := storage.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}

	if cfg.MigrateOnStart {
		if err := storage.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}

		logger.Info("database migrations applied")
	}

	return store.NewPostgres(db), db, nil
}

// applies migrations and returns, used by the -migrate flag
func runMigrations(ctx context.Context, cfg *config.Config) error {
	if cfg.StoreDriver != config.DriverPostgres {
		return fmt.Errorf("migrations require STORE_DRIVER=%s", config.DriverPostgres)
	}

	db, err := storage.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	return storage.Migrate(ctx, db)
}
