package identity

import (
	"time"

	"codeberg.org/gatekeep/server/gatekeep/users"
)

// a profile already verified by the upstream OAuth handshake
type Profile struct {
	Provider          users.Provider
	ProviderSubjectID string
	Email             string
	DisplayName       string
	AvatarURL         string
}

// maps verified provider profiles to local accounts
type Resolver struct {
	users users.Store
	now   func() time.Time
}
