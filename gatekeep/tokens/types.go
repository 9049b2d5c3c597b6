package tokens

import (
	"time"

	"codeberg.org/gatekeep/server/gatekeep/store"
	"codeberg.org/gatekeep/server/gatekeep/users"
	"codeberg.org/gatekeep/server/internal/auth"
)

// credentials returned after any successful login or refresh
type TokenPair struct {
	AccessToken  string            `json:"access_token"`
	RefreshToken string            `json:"refresh_token"`
	ExpiresAt    time.Time         `json:"expires_at"`
	User         *users.Projection `json:"user"`
}

// mints token pairs and persists the refresh record
type Issuer struct {
	signer *auth.Signer
	store  store.Store
}

// consumes and revokes refresh tokens
type Rotator struct {
	signer *auth.Signer
	store  store.Store
	issuer *Issuer
	now    func() time.Time
}
