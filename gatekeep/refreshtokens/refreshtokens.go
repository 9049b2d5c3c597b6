package refreshtokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"codeberg.org/gatekeep/server/internal/common"
	"codeberg.org/gatekeep/server/internal/dbx"
	"github.com/jackc/pgx/v5"
)

// creates a new refresh token repository bound to a pool or a transaction
func NewRepository(db dbx.DBTX) *Repository {
	return &Repository{db: db}
}

// finds the record holding token for userID
func (r *Repository) FindByTokenAndUser(ctx context.Context, token, userID string) (*RefreshToken, error) {
	var rt RefreshToken

	err := r.db.QueryRow(ctx, queryFindByTokenAndUser, token, userID).Scan(
		&rt.ID,
		&rt.UserID,
		&rt.Token,
		&rt.ExpiresAt,
		&rt.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}

		return nil, fmt.Errorf("failed to find refresh token: %w", err)
	}

	return &rt, nil
}

// persists a refresh record
func (r *Repository) Insert(ctx context.Context, token *RefreshToken) (*RefreshToken, error) {
	var rt RefreshToken

	err := r.db.QueryRow(ctx, queryInsert, token.UserID, token.Token, token.ExpiresAt).Scan(
		&rt.ID,
		&rt.UserID,
		&rt.Token,
		&rt.ExpiresAt,
		&rt.CreatedAt,
	)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, fmt.Errorf("failed to insert refresh token: %w", common.ErrConflict)
		}

		return nil, fmt.Errorf("failed to insert refresh token: %w", err)
	}

	return &rt, nil
}

// deletes one record by id
func (r *Repository) DeleteByID(ctx context.Context, id string) (int64, error) {
	return r.exec(ctx, "failed to delete refresh token", queryDeleteByID, id)
}

// deletes the record matching (userID, token)
func (r *Repository) DeleteByUserAndToken(ctx context.Context, userID, token string) (int64, error) {
	return r.exec(ctx, "failed to delete refresh token", queryDeleteByUserAndToken, userID, token)
}

// deletes every record owned by userID
func (r *Repository) DeleteAllByUser(ctx context.Context, userID string) (int64, error) {
	return r.exec(ctx, "failed to delete user refresh tokens", queryDeleteAllByUser, userID)
}

// deletes records that expired strictly before the given instant
func (r *Repository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	return r.exec(ctx, "failed to delete expired refresh tokens", queryDeleteExpired, before)
}

func (r *Repository) exec(ctx context.Context, msg, query string, args ...any) (int64, error) {
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", msg, err)
	}

	return tag.RowsAffected(), nil
}

var _ Store = (*Repository)(nil)
