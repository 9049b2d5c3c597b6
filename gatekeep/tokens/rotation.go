package tokens

import (
	"context"
	"errors"
	"time"

	"codeberg.org/gatekeep/server/gatekeep/store"
	"codeberg.org/gatekeep/server/internal/auth"
	"codeberg.org/gatekeep/server/internal/common"
)

// creates a new rotator. issuer mints the replacement pair.
func NewRotator(signer *auth.Signer, st store.Store, issuer *Issuer) *Rotator {
	return &Rotator{
		signer: signer,
		store:  st,
		issuer: issuer,
		now:    time.Now,
	}
}

// exchanges a refresh token for a new pair. The presented token is consumed:
// presenting it again fails with common.ErrInvalidToken.
func (r *Rotator) Rotate(ctx context.Context, token string) (*TokenPair, error) {
	claims, err := r.signer.Parse(auth.RefreshToken, token)
	if err != nil {
		return nil, err
	}

	record, err := r.store.RefreshTokens().FindByTokenAndUser(ctx, token, claims.UserID())
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidToken
		}

		return nil, err
	}

	if record.Expired(r.now()) {
		if _, err := r.store.RefreshTokens().DeleteByID(ctx, record.ID); err != nil {
			return nil, err
		}

		return nil, common.ErrExpiredToken
	}

	var pair *TokenPair

	err = r.store.WithTx(ctx, func(ctx context.Context, tx store.Store) error {
		// only the caller whose delete removed the row may issue a replacement
		n, err := tx.RefreshTokens().DeleteByID(ctx, record.ID)
		if err != nil {
			return err
		}

		if n == 0 {
			return common.ErrInvalidToken
		}

		user, err := tx.Users().FindByID(ctx, record.UserID)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return common.ErrInvalidToken
			}

			return err
		}

		pair, err = r.issuer.issue(ctx, tx.RefreshTokens(), user)

		return err
	})

	if err != nil {
		return nil, err
	}

	return pair, nil
}

// deletes the (userID, token) record, or every record of userID when token
// is empty. Deleting nothing is not an error.
func (r *Rotator) Revoke(ctx context.Context, userID, token string) error {
	if token == "" {
		_, err := r.store.RefreshTokens().DeleteAllByUser(ctx, userID)
		return err
	}

	_, err := r.store.RefreshTokens().DeleteByUserAndToken(ctx, userID, token)

	return err
}
