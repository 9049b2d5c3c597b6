package auth

import (
	"fmt"
	"net/http"
	"strings"

	"codeberg.org/gatekeep/server/internal/common"
	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
)

// ProviderGoogle is the goth provider name used in routes
const ProviderGoogle = "google"

// settings needed to run the OAuth handshake
type ProviderConfig struct {
	BaseURL            string
	SessionSecret      string
	GoogleClientID     string
	GoogleClientSecret string
}

// reports whether Google credentials are present
func (c ProviderConfig) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// sets up OAuth providers using goth. Returns false when no provider is
// configured; provider login then fails per request, not at startup.
func InitializeProviders(cfg ProviderConfig) (bool, error) {
	if !cfg.GoogleEnabled() {
		return false, nil
	}

	if cfg.SessionSecret == "" {
		return false, fmt.Errorf("%w: SESSION_SECRET must be set when Google OAuth is configured", common.ErrConfiguration)
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	// gothic keeps OAuth state in a short-lived cookie
	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
		Secure:   strings.HasPrefix(baseURL, "https://"),
		SameSite: http.SameSiteLaxMode,
	}

	gothic.Store = store

	goth.UseProviders(
		google.New(
			cfg.GoogleClientID,
			cfg.GoogleClientSecret,
			baseURL+"/api/v1/auth/google/callback",
			"email", "profile",
		),
	)

	return true, nil
}
