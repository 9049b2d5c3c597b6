package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// distinguishes the two token families, each signed with its own secret
type TokenKind int

const (
	AccessToken TokenKind = iota
	RefreshToken
)

func (k TokenKind) String() string {
	if k == RefreshToken {
		return "refresh"
	}

	return "access"
}

// represents JWT claims; the subject is the user id
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// returns the user id carried in the subject claim
func (c *Claims) UserID() string {
	return c.Subject
}

// is the payload signed into both token kinds
type Identity struct {
	UserID string
	Email  string
	Name   string
}

// holds the signing secrets and lifetimes. Immutable after construction.
type SignerConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}
