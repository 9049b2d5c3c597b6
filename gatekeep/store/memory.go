package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"codeberg.org/gatekeep/server/gatekeep/refreshtokens"
	"codeberg.org/gatekeep/server/gatekeep/users"
	"codeberg.org/gatekeep/server/internal/common"
	"github.com/google/uuid"
)

// in-process store used by tests and the memory driver. It enforces the same
// uniqueness rules as the postgres schema. Transactions run serially against a
// copy of the data that replaces the original on success.
type Memory struct {
	mu   *sync.Mutex
	data *memoryData
	now  func() time.Time

	// set on the view handed to a WithTx callback, whose caller already holds mu
	inTx bool
}

type memoryData struct {
	users  map[string]*users.User
	tokens map[string]*refreshtokens.RefreshToken
}

// creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		mu: &sync.Mutex{},
		data: &memoryData{
			users:  make(map[string]*users.User),
			tokens: make(map[string]*refreshtokens.RefreshToken),
		},
		now: time.Now,
	}
}

// overrides the clock used for created_at/updated_at
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

func (m *Memory) Users() users.Store {
	return &memoryUsers{m: m}
}

func (m *Memory) RefreshTokens() refreshtokens.Store {
	return &memoryTokens{m: m}
}

func (m *Memory) WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	unlock := m.lock()
	defer unlock()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	work := m.data.clone()
	tx := &Memory{mu: m.mu, data: work, now: m.now, inTx: true}

	if err := fn(ctx, tx); err != nil {
		return err
	}

	*m.data = *work

	return nil
}

func (m *Memory) lock() func() {
	if m.inTx {
		return func() {}
	}

	m.mu.Lock()

	return m.mu.Unlock
}

func (d *memoryData) clone() *memoryData {
	cp := &memoryData{
		users:  make(map[string]*users.User, len(d.users)),
		tokens: make(map[string]*refreshtokens.RefreshToken, len(d.tokens)),
	}

	for id, u := range d.users {
		cp.users[id] = u.Clone()
	}

	for id, t := range d.tokens {
		rt := *t
		cp.tokens[id] = &rt
	}

	return cp
}

type memoryUsers struct {
	m *Memory
}

func (s *memoryUsers) FindByEmail(_ context.Context, email string) (*users.User, error) {
	defer s.m.lock()()

	email = users.NormalizeEmail(email)

	for _, u := range s.m.data.users {
		if u.Email == email {
			return u.Clone(), nil
		}
	}

	return nil, common.ErrNotFound
}

func (s *memoryUsers) FindByProviderIdentity(_ context.Context, provider users.Provider, providerID string) (*users.User, error) {
	defer s.m.lock()()

	for _, u := range s.m.data.users {
		if u.AuthProvider == provider && u.ProviderID != nil && *u.ProviderID == providerID {
			return u.Clone(), nil
		}
	}

	return nil, common.ErrNotFound
}

func (s *memoryUsers) FindByID(_ context.Context, id string) (*users.User, error) {
	defer s.m.lock()()

	u, ok := s.m.data.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}

	return u.Clone(), nil
}

func (s *memoryUsers) Insert(_ context.Context, user *users.User) (*users.User, error) {
	defer s.m.lock()()

	stored := user.Clone()
	stored.ID = uuid.NewString()
	stored.Email = users.NormalizeEmail(stored.Email)

	if err := s.checkUnique(stored); err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	now := s.m.now()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.m.data.users[stored.ID] = stored

	return stored.Clone(), nil
}

func (s *memoryUsers) Update(_ context.Context, user *users.User) (*users.User, error) {
	defer s.m.lock()()

	existing, ok := s.m.data.users[user.ID]
	if !ok {
		return nil, common.ErrNotFound
	}

	stored := user.Clone()
	stored.Email = users.NormalizeEmail(stored.Email)
	stored.CreatedAt = existing.CreatedAt

	if err := s.checkUnique(stored); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	stored.UpdatedAt = s.m.now()
	s.m.data.users[stored.ID] = stored

	return stored.Clone(), nil
}

// mirrors the unique index on lower(email) and the partial unique index on
// (auth_provider, provider_id)
func (s *memoryUsers) checkUnique(candidate *users.User) error {
	for id, u := range s.m.data.users {
		if id == candidate.ID {
			continue
		}

		if u.Email == candidate.Email {
			return common.ErrConflict
		}

		if candidate.ProviderID != nil && u.ProviderID != nil &&
			u.AuthProvider == candidate.AuthProvider && *u.ProviderID == *candidate.ProviderID {
			return common.ErrConflict
		}
	}

	return nil
}

type memoryTokens struct {
	m *Memory
}

func (s *memoryTokens) FindByTokenAndUser(_ context.Context, token, userID string) (*refreshtokens.RefreshToken, error) {
	defer s.m.lock()()

	for _, t := range s.m.data.tokens {
		if t.Token == token && t.UserID == userID {
			rt := *t
			return &rt, nil
		}
	}

	return nil, common.ErrNotFound
}

func (s *memoryTokens) Insert(_ context.Context, token *refreshtokens.RefreshToken) (*refreshtokens.RefreshToken, error) {
	defer s.m.lock()()

	if _, ok := s.m.data.users[token.UserID]; !ok {
		return nil, fmt.Errorf("failed to insert refresh token: unknown user %q", token.UserID)
	}

	for _, t := range s.m.data.tokens {
		if t.Token == token.Token {
			return nil, fmt.Errorf("failed to insert refresh token: %w", common.ErrConflict)
		}
	}

	rt := *token
	rt.ID = uuid.NewString()
	rt.CreatedAt = s.m.now()
	s.m.data.tokens[rt.ID] = &rt

	out := rt

	return &out, nil
}

func (s *memoryTokens) DeleteByID(_ context.Context, id string) (int64, error) {
	defer s.m.lock()()

	if _, ok := s.m.data.tokens[id]; !ok {
		return 0, nil
	}

	delete(s.m.data.tokens, id)

	return 1, nil
}

func (s *memoryTokens) DeleteByUserAndToken(_ context.Context, userID, token string) (int64, error) {
	return s.deleteWhere(func(t *refreshtokens.RefreshToken) bool {
		return t.UserID == userID && t.Token == token
	}), nil
}

func (s *memoryTokens) DeleteAllByUser(_ context.Context, userID string) (int64, error) {
	return s.deleteWhere(func(t *refreshtokens.RefreshToken) bool {
		return t.UserID == userID
	}), nil
}

func (s *memoryTokens) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	return s.deleteWhere(func(t *refreshtokens.RefreshToken) bool {
		return t.ExpiresAt.Before(before)
	}), nil
}

func (s *memoryTokens) deleteWhere(match func(*refreshtokens.RefreshToken) bool) int64 {
	defer s.m.lock()()

	var n int64

	for id, t := range s.m.data.tokens {
		if match(t) {
			delete(s.m.data.tokens, id)
			n++
		}
	}

	return n
}

var _ Store = (*Memory)(nil)
