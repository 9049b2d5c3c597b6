package users

import (
	"context"
	"errors"
	"fmt"

	"codeberg.org/gatekeep/server/internal/common"
	"codeberg.org/gatekeep/server/internal/dbx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// creates a new user repository bound to a pool or a transaction
func NewRepository(db dbx.DBTX) *Repository {
	return &Repository{db: db}
}

// finds a user by email, case-insensitively
func (r *Repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, queryFindByEmail, NormalizeEmail(email))
}

// finds a user by provider and provider subject id
func (r *Repository) FindByProviderIdentity(ctx context.Context, provider Provider, providerID string) (*User, error) {
	return r.findOne(ctx, queryFindByProviderIdentity, string(provider), providerID)
}

// finds a user by their ID
func (r *Repository) FindByID(ctx context.Context, id string) (*User, error) {
	return r.findOne(ctx, queryFindByID, id)
}

// inserts a user and returns the stored row
func (r *Repository) Insert(ctx context.Context, user *User) (*User, error) {
	stored, err := scanUser(r.db.QueryRow(
		ctx,
		queryInsert,
		user.Name,
		NormalizeEmail(user.Email),
		user.PasswordHash,
		user.Avatar,
		string(user.AuthProvider),
		user.ProviderID,
		user.EmailVerifiedAt,
	))

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, fmt.Errorf("failed to insert user: %w", common.ErrConflict)
		}

		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	return stored, nil
}

// writes every mutable column of user and bumps updated_at
func (r *Repository) Update(ctx context.Context, user *User) (*User, error) {
	stored, err := scanUser(r.db.QueryRow(
		ctx,
		queryUpdate,
		user.ID,
		user.Name,
		NormalizeEmail(user.Email),
		user.PasswordHash,
		user.Avatar,
		string(user.AuthProvider),
		user.ProviderID,
		user.EmailVerifiedAt,
	))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}

		if dbx.IsUniqueViolation(err) {
			return nil, fmt.Errorf("failed to update user: %w", common.ErrConflict)
		}

		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return stored, nil
}

func (r *Repository) findOne(ctx context.Context, query string, args ...any) (*User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}

		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

func scanUser(row pgx.Row) (*User, error) {
	var (
		user            User
		provider        string
		passwordHash    pgtype.Text
		avatar          pgtype.Text
		providerID      pgtype.Text
		emailVerifiedAt pgtype.Timestamptz
	)

	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&passwordHash,
		&avatar,
		&provider,
		&providerID,
		&emailVerifiedAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		return nil, err
	}

	user.AuthProvider = Provider(provider)
	user.PasswordHash = textPtr(passwordHash)
	user.Avatar = textPtr(avatar)
	user.ProviderID = textPtr(providerID)

	if emailVerifiedAt.Valid {
		t := emailVerifiedAt.Time
		user.EmailVerifiedAt = &t
	}

	return &user, nil
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}

	s := t.String

	return &s
}

var _ Store = (*Repository)(nil)
