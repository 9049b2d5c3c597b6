// Package tokens issues access/refresh pairs and enforces single use of
// refresh tokens.
package tokens

import (
	"context"

	"codeberg.org/gatekeep/server/gatekeep/refreshtokens"
	"codeberg.org/gatekeep/server/gatekeep/store"
	"codeberg.org/gatekeep/server/gatekeep/users"
	"codeberg.org/gatekeep/server/internal/auth"
)

// creates a new token issuer
func NewIssuer(signer *auth.Signer, st store.Store) *Issuer {
	return &Issuer{
		signer: signer,
		store:  st,
	}
}

// mints a new pair for user and persists its refresh record
func (i *Issuer) Issue(ctx context.Context, user *users.User) (*TokenPair, error) {
	return i.issue(ctx, i.store.RefreshTokens(), user)
}

// same as Issue but persists through rts, letting rotation insert the
// replacement inside its own transaction
func (i *Issuer) issue(ctx context.Context, rts refreshtokens.Store, user *users.User) (*TokenPair, error) {
	id := auth.Identity{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	}

	access, accessExp, err := i.signer.Sign(auth.AccessToken, id)
	if err != nil {
		return nil, err
	}

	refresh, refreshExp, err := i.signer.Sign(auth.RefreshToken, id)
	if err != nil {
		return nil, err
	}

	if _, err := rts.Insert(ctx, &refreshtokens.RefreshToken{
		UserID:    user.ID,
		Token:     refresh,
		ExpiresAt: refreshExp,
	}); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    accessExp,
		User:         user.Projection(),
	}, nil
}
