// Package store groups the user and refresh-token repositories behind one
// transactional unit so multi-step writes commit or roll back together.
package store

import (
	"context"

	"codeberg.org/gatekeep/server/gatekeep/refreshtokens"
	"codeberg.org/gatekeep/server/gatekeep/users"
)

// repositories sharing a connection or transaction
type Store interface {
	Users() users.Store
	RefreshTokens() refreshtokens.Store

	// runs fn inside a transaction. The tx Store passed to fn must be used
	// for every operation that belongs to the unit; a non-nil error or a
	// panic rolls everything back.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}
