package refreshtokens

import (
	"context"
	"time"

	"codeberg.org/gatekeep/server/internal/dbx"
)

// handles refresh token database operations
type Repository struct {
	db dbx.DBTX
}

// a persisted, single-use refresh credential
type RefreshToken struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// reports whether the record is past its expiry at now
func (t *RefreshToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// refresh-record operations the auth core depends on.
// Delete methods return the number of rows removed so callers can enforce
// single use: a zero count on DeleteByID means another caller consumed it.
type Store interface {
	FindByTokenAndUser(ctx context.Context, token, userID string) (*RefreshToken, error)
	Insert(ctx context.Context, token *RefreshToken) (*RefreshToken, error)
	DeleteByID(ctx context.Context, id string) (int64, error)
	DeleteByUserAndToken(ctx context.Context, userID, token string) (int64, error)
	DeleteAllByUser(ctx context.Context, userID string) (int64, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
