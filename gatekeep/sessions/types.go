package sessions

import (
	"context"

	"codeberg.org/gatekeep/server/gatekeep/identity"
	"codeberg.org/gatekeep/server/gatekeep/tokens"
	"codeberg.org/gatekeep/server/gatekeep/users"
)

// one-way password hashing
type Hasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Verify(ctx context.Context, password, hash string) bool
}

// maps verified provider profiles to accounts
type IdentityResolver interface {
	Resolve(ctx context.Context, profile identity.Profile) (*users.User, error)
}

// mints token pairs
type TokenIssuer interface {
	Issue(ctx context.Context, user *users.User) (*tokens.TokenPair, error)
}

// consumes and revokes refresh tokens
type TokenRotator interface {
	Rotate(ctx context.Context, token string) (*tokens.TokenPair, error)
	Revoke(ctx context.Context, userID, token string) error
}

// collaborators of the session service
type Dependencies struct {
	Users    users.Store
	Hasher   Hasher
	Resolver IdentityResolver
	Issuer   TokenIssuer
	Rotator  TokenRotator

	// false when no OAuth provider is configured
	ProviderEnabled bool
}

// orchestrates registration, logins, refresh and logout
type Service struct {
	users           users.Store
	hasher          Hasher
	resolver        IdentityResolver
	issuer          TokenIssuer
	rotator         TokenRotator
	providerEnabled bool
	dummyHash       string
}

// input for Register
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// mutable profile fields; nil leaves the field unchanged
type ProfileUpdate struct {
	Name   *string
	Avatar *string
}
