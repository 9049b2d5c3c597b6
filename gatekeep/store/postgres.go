package store

import (
	"context"

	"codeberg.org/gatekeep/server/gatekeep/refreshtokens"
	"codeberg.org/gatekeep/server/gatekeep/users"
	"codeberg.org/gatekeep/server/internal/dbx"
	"github.com/jackc/pgx/v5"
)

// store backed by a pgx pool or transaction
type Postgres struct {
	conn   dbx.Conn
	users  *users.Repository
	tokens *refreshtokens.Repository
}

// creates a postgres store. conn is usually a *pgxpool.Pool; inside WithTx it
// is the pgx.Tx, so nested calls become savepoints.
func NewPostgres(conn dbx.Conn) *Postgres {
	return &Postgres{
		conn:   conn,
		users:  users.NewRepository(conn),
		tokens: refreshtokens.NewRepository(conn),
	}
}

func (p *Postgres) Users() users.Store {
	return p.users
}

func (p *Postgres) RefreshTokens() refreshtokens.Store {
	return p.tokens
}

func (p *Postgres) WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return dbx.WithTx(ctx, p.conn, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, NewPostgres(tx))
	})
}

var _ Store = (*Postgres)(nil)
