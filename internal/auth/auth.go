package auth

import (
	"fmt"
	"time"

	"codeberg.org/gatekeep/server/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// signs and validates access and refresh tokens
type Signer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// creates a signer; missing or shared secrets are configuration errors
func NewSigner(cfg SignerConfig) (*Signer, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, fmt.Errorf("%w: access and refresh secrets must be set", common.ErrConfiguration)
	}

	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, fmt.Errorf("%w: access and refresh secrets must differ", common.ErrConfiguration)
	}

	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}

	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}

	return &Signer{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		now:           time.Now,
	}, nil
}

// overrides the clock, for tests
func (s *Signer) WithClock(now func() time.Time) *Signer {
	cp := *s
	cp.now = now

	return &cp
}

// returns the lifetime of the given token kind
func (s *Signer) TTL(kind TokenKind) time.Duration {
	if kind == RefreshToken {
		return s.refreshTTL
	}

	return s.accessTTL
}

// Sign mints a token of the given kind and returns it with its expiry.
// Every token gets a random jti so two tokens minted in the same second differ.
func (s *Signer) Sign(kind TokenKind, id Identity) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.TTL(kind))

	claims := Claims{
		Email: id.Email,
		Name:  id.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(s.secret(kind))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: failed to sign %s token: %v", common.ErrConfiguration, kind, err)
	}

	return signed, expiresAt, nil
}

// Parse validates signature, algorithm and expiry and returns the claims.
// Any failure is reported as common.ErrInvalidToken.
func (s *Signer) Parse(kind TokenKind, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		return s.secret(kind), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)

	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}

func (s *Signer) secret(kind TokenKind) []byte {
	if kind == RefreshToken {
		return s.refreshSecret
	}

	return s.accessSecret
}
