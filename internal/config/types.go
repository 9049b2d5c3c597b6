package config

import "time"

// storage backends selectable with STORE_DRIVER
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// process configuration, loaded once at startup and never mutated
type Config struct {
	JWTSecret        string        `env:"JWT_SECRET"`
	JWTRefreshSecret string        `env:"JWT_REFRESH_SECRET"`
	AccessTokenTTL   time.Duration `env:"ACCESS_TOKEN_TTL"  envDefault:"15m"`
	RefreshTokenTTL  time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`

	BcryptCost  int `env:"BCRYPT_COST"  envDefault:"12"`
	HashWorkers int `env:"HASH_WORKERS" envDefault:"0"`

	StoreDriver    string `env:"STORE_DRIVER"     envDefault:"postgres"`
	DatabaseURL    string `env:"DATABASE_URL"`
	MigrateOnStart bool   `env:"MIGRATE_ON_START" envDefault:"true"`

	Port        string `env:"PORT"         envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	BaseURL     string `env:"BASE_URL"     envDefault:"http://localhost:8080"`
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:5173"`

	SessionSecret      string `env:"SESSION_SECRET"`
	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`

	TokenCleanupInterval  time.Duration `env:"TOKEN_CLEANUP_INTERVAL"  envDefault:"1h"`
	TokenCleanupRetention time.Duration `env:"TOKEN_CLEANUP_RETENTION" envDefault:"24h"`
}

// command line flags for the server binary
type Flags struct {
	EnvFile     string
	MigrateOnly bool
}
