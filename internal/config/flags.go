package config

import (
	"flag"
	"io"
)

// parses CLI flags for the server binary
func ParseServerFlags(args []string) (Flags, error) {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	envFile := fs.String("env-file", "", "path to a .env file (defaults to ./.env)")
	migrateOnly := fs.Bool("migrate", false, "apply database migrations and exit")

	if err := fs.Parse(args); err != nil {
		return Flags{}, err
	}

	return Flags{EnvFile: *envFile, MigrateOnly: *migrateOnly}, nil
}

// returns the env files to load for these flags
func (f Flags) EnvFiles() []string {
	if f.EnvFile == "" {
		return nil
	}

	return []string{f.EnvFile}
}
