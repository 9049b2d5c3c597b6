package users

import (
	"context"
	"strings"
	"time"

	"codeberg.org/gatekeep/server/internal/dbx"
)

// identifies which provider last established the identity (mirrors the users table check constraint)
type Provider string

const (
	ProviderLocal  Provider = "local"
	ProviderGoogle Provider = "google"
)

// reports whether p is a provider the users table accepts
func (p Provider) Valid() bool {
	return p == ProviderLocal || p == ProviderGoogle
}

// handles user database operations
type Repository struct {
	db dbx.DBTX
}

// represents an identity record
type User struct {
	ID              string
	Name            string
	Email           string
	PasswordHash    *string
	Avatar          *string
	AuthProvider    Provider
	ProviderID      *string
	EmailVerifiedAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// is the user as returned to callers, never carrying the password hash
type Projection struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Avatar          *string    `json:"avatar"`
	AuthProvider    Provider   `json:"auth_provider"`
	EmailVerifiedAt *time.Time `json:"email_verified_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// user-record operations the auth core depends on.
// Lookups return common.ErrNotFound on a miss, writes hitting a unique
// constraint return common.ErrConflict.
type Store interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByProviderIdentity(ctx context.Context, provider Provider, providerID string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	Insert(ctx context.Context, user *User) (*User, error)
	Update(ctx context.Context, user *User) (*User, error)
}

// reports whether the account can log in with a password
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// returns a deep copy so stored records never alias caller values
func (u *User) Clone() *User {
	cp := *u
	cp.PasswordHash = cloneString(u.PasswordHash)
	cp.Avatar = cloneString(u.Avatar)
	cp.ProviderID = cloneString(u.ProviderID)

	if u.EmailVerifiedAt != nil {
		t := *u.EmailVerifiedAt
		cp.EmailVerifiedAt = &t
	}

	return &cp
}

// strips the password hash and provider subject id
func (u *User) Projection() *Projection {
	c := u.Clone()

	return &Projection{
		ID:              c.ID,
		Name:            c.Name,
		Email:           c.Email,
		Avatar:          c.Avatar,
		AuthProvider:    c.AuthProvider,
		EmailVerifiedAt: c.EmailVerifiedAt,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

// canonical form used for every lookup and insert
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}

	v := *s

	return &v
}
