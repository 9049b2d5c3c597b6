// Package identity reconciles external provider identities with local
// accounts. Provider and subject id identify a returning login; email is the
// only key used to link a provider identity to an existing account.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"codeberg.org/gatekeep/server/gatekeep/users"
	"codeberg.org/gatekeep/server/internal/common"
	"codeberg.org/gatekeep/server/internal/logger"
)

// creates a resolver over the given user store
func NewResolver(store users.Store) *Resolver {
	return &Resolver{
		users: store,
		now:   time.Now,
	}
}

// returns the account for the profile, linking or creating it as needed
func (r *Resolver) Resolve(ctx context.Context, p Profile) (*users.User, error) {
	if p.Provider == "" {
		p.Provider = users.ProviderGoogle
	}

	// local is not an external identity
	if !p.Provider.Valid() || p.Provider == users.ProviderLocal {
		return nil, fmt.Errorf("unsupported provider %q: %w", p.Provider, common.ErrInvalidCredentials)
	}

	if p.ProviderSubjectID == "" || users.NormalizeEmail(p.Email) == "" {
		return nil, fmt.Errorf("incomplete provider profile: %w", common.ErrInvalidCredentials)
	}

	user, err := r.users.FindByProviderIdentity(ctx, p.Provider, p.ProviderSubjectID)
	if err == nil {
		logger.FromContext(ctx).Debug("resolved returning provider identity",
			"user_id", user.ID,
			"provider", p.Provider,
		)

		return user, nil
	}

	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	existing, err := r.users.FindByEmail(ctx, p.Email)
	if err == nil {
		return r.link(ctx, existing, p)
	}

	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	return r.create(ctx, p)
}

// attaches the provider identity to an account found by email. The password
// hash is kept so the account can still log in both ways.
func (r *Resolver) link(ctx context.Context, user *users.User, p Profile) (*users.User, error) {
	now := r.now()
	subject := p.ProviderSubjectID

	user.AuthProvider = p.Provider
	user.ProviderID = &subject
	user.EmailVerifiedAt = &now

	if user.Avatar == nil && p.AvatarURL != "" {
		avatar := p.AvatarURL
		user.Avatar = &avatar
	}

	updated, err := r.users.Update(ctx, user)
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("linked provider identity to existing account",
		"user_id", updated.ID,
		"provider", p.Provider,
		"had_password", updated.HasPassword(),
	)

	return updated, nil
}

func (r *Resolver) create(ctx context.Context, p Profile) (*users.User, error) {
	now := r.now()
	subject := p.ProviderSubjectID

	user := &users.User{
		Name:            displayName(p),
		Email:           p.Email,
		AuthProvider:    p.Provider,
		ProviderID:      &subject,
		EmailVerifiedAt: &now,
	}

	if p.AvatarURL != "" {
		avatar := p.AvatarURL
		user.Avatar = &avatar
	}

	created, err := r.users.Insert(ctx, user)
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("created account from provider identity",
		"user_id", created.ID,
		"provider", p.Provider,
	)

	return created, nil
}

// falls back to the local part of the email when the provider sends no name
func displayName(p Profile) string {
	if name := strings.TrimSpace(p.DisplayName); name != "" {
		return name
	}

	local, _, _ := strings.Cut(users.NormalizeEmail(p.Email), "@")

	return local
}
