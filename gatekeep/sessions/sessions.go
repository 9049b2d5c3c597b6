// Package sessions implements the account session lifecycle: register,
// password and provider login, refresh, and logout.
package sessions

import (
	"context"
	"errors"
	"fmt"

	"codeberg.org/gatekeep/server/gatekeep/identity"
	"codeberg.org/gatekeep/server/gatekeep/tokens"
	"codeberg.org/gatekeep/server/gatekeep/users"
	"codeberg.org/gatekeep/server/internal/common"
)

// compared against when the account is missing or has no password, so every
// failed login costs one hash verification
const dummyPassword = "gatekeep-timing-equalizer"

// creates a new session service. It computes one hash up front for the
// timing equalizer.
func NewService(ctx context.Context, deps Dependencies) (*Service, error) {
	if deps.Users == nil || deps.Hasher == nil || deps.Resolver == nil || deps.Issuer == nil || deps.Rotator == nil {
		return nil, fmt.Errorf("session service is missing a dependency: %w", common.ErrConfiguration)
	}

	dummy, err := deps.Hasher.Hash(ctx, dummyPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash: %w", err)
	}

	return &Service{
		users:           deps.Users,
		hasher:          deps.Hasher,
		resolver:        deps.Resolver,
		issuer:          deps.Issuer,
		rotator:         deps.Rotator,
		providerEnabled: deps.ProviderEnabled,
		dummyHash:       dummy,
	}, nil
}

// reports whether provider login is available
func (s *Service) ProviderEnabled() bool {
	return s.providerEnabled
}

// creates a local account and logs it in
func (s *Service) Register(ctx context.Context, in RegisterInput) (*tokens.TokenPair, error) {
	email := users.NormalizeEmail(in.Email)

	_, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return nil, common.ErrConflict
	}

	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Insert(ctx, &users.User{
		Name:         in.Name,
		Email:        email,
		PasswordHash: &hash,
		AuthProvider: users.ProviderLocal,
	})

	if err != nil {
		return nil, err
	}

	return s.issuer.Issue(ctx, user)
}

// logs in with email and password. Unknown email, an account without a
// password, and a wrong password all return common.ErrInvalidCredentials.
func (s *Service) LoginWithPassword(ctx context.Context, email, password string) (*tokens.TokenPair, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	if user == nil || !user.HasPassword() {
		s.hasher.Verify(ctx, password, s.dummyHash)
		return nil, common.ErrInvalidCredentials
	}

	if !s.hasher.Verify(ctx, password, *user.PasswordHash) {
		return nil, common.ErrInvalidCredentials
	}

	return s.issuer.Issue(ctx, user)
}

// logs in with a profile verified by the OAuth handshake
func (s *Service) LoginWithProvider(ctx context.Context, profile identity.Profile) (*tokens.TokenPair, error) {
	if !s.providerEnabled {
		return nil, common.ErrProviderUnavailable
	}

	user, err := s.resolver.Resolve(ctx, profile)
	if err != nil {
		return nil, err
	}

	return s.issuer.Issue(ctx, user)
}

// exchanges a refresh token for a new pair
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*tokens.TokenPair, error) {
	if refreshToken == "" {
		return nil, common.ErrInvalidToken
	}

	return s.rotator.Rotate(ctx, refreshToken)
}

// revokes one refresh token of userID, or all of them when refreshToken is empty
func (s *Service) Logout(ctx context.Context, userID, refreshToken string) error {
	return s.rotator.Revoke(ctx, userID, refreshToken)
}

// revokes every refresh token of userID
func (s *Service) LogoutAll(ctx context.Context, userID string) error {
	return s.rotator.Revoke(ctx, userID, "")
}

// returns the projection of userID. A subject that no longer exists is
// reported as common.ErrInvalidToken.
func (s *Service) Profile(ctx context.Context, userID string) (*users.Projection, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidToken
		}

		return nil, err
	}

	return user.Projection(), nil
}

// applies a display-metadata update to userID
func (s *Service) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*users.Projection, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidToken
		}

		return nil, err
	}

	if update.Name != nil {
		user.Name = *update.Name
	}

	if update.Avatar != nil {
		if *update.Avatar == "" {
			user.Avatar = nil
		} else {
			avatar := *update.Avatar
			user.Avatar = &avatar
		}
	}

	updated, err := s.users.Update(ctx, user)
	if err != nil {
		return nil, err
	}

	return updated.Projection(), nil
}
