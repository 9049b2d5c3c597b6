package config

import (
	"errors"
	"fmt"
	"io/fs"

	"codeberg.org/gatekeep/server/internal/common"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// loads configuration from environment variables, reading envFiles first
// (".env" when none are given). A missing default .env is fine; a named
// file that cannot be read is a configuration error.
func LoadEnvironmentVariables(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		// production environments may not have a .env file
		if len(envFiles) > 0 || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: failed to load env file: %w", common.ErrConfiguration, err)
		}
	}

	return load(nil)
}

// parses environ, or the process environment when environ is nil
func load(environ map[string]string) (*Config, error) {
	var cfg Config

	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrConfiguration, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// checks cross-field rules env tags cannot express
func (c *Config) Validate() error {
	var errs []error

	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET environment variable is required"))
	}

	if c.JWTRefreshSecret == "" {
		errs = append(errs, errors.New("JWT_REFRESH_SECRET environment variable is required"))
	}

	if c.JWTSecret != "" && c.JWTSecret == c.JWTRefreshSecret {
		errs = append(errs, errors.New("JWT_REFRESH_SECRET must differ from JWT_SECRET"))
	}

	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("token lifetimes must be positive"))
	}

	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}

	if c.HashWorkers < 0 {
		errs = append(errs, errors.New("HASH_WORKERS must not be negative"))
	}

	switch c.StoreDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL environment variable is required"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}

	if (c.GoogleClientID == "") != (c.GoogleClientSecret == "") {
		errs = append(errs, errors.New("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set together"))
	}

	if c.GoogleEnabled() && c.SessionSecret == "" {
		errs = append(errs, errors.New("SESSION_SECRET environment variable is required for Google OAuth"))
	}

	if c.TokenCleanupInterval <= 0 {
		errs = append(errs, errors.New("TOKEN_CLEANUP_INTERVAL must be positive"))
	}

	if c.TokenCleanupRetention < 0 {
		errs = append(errs, errors.New("TOKEN_CLEANUP_RETENTION must not be negative"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", common.ErrConfiguration, errors.Join(errs...))
	}

	return nil
}

// reports whether Google OAuth credentials are configured
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// reports whether the process runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// returns the listen address for the HTTP server
func (c *Config) Addr() string {
	return ":" + c.Port
}

