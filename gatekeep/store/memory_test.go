package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"codeberg.org/gatekeep/server/gatekeep/refreshtokens"
	"codeberg.org/gatekeep/server/gatekeep/users"
	"codeberg.org/gatekeep/server/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string {
	return &s
}

func seedUser(t *testing.T, s Store, email string) *users.User {
	t.Helper()

	u, err := s.Users().Insert(context.Background(), &users.User{
		Name:         "Test",
		Email:        email,
		PasswordHash: strPtr("hash"),
		AuthProvider: users.ProviderLocal,
	})
	require.NoError(t, err)

	return u
}

func TestMemoryUsers_InsertAndFind(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemory().WithClock(func() time.Time { return now })
	ctx := context.Background()

	u := seedUser(t, s, "  Ada@Example.com ")

	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.Equal(t, now, u.CreatedAt)

	byEmail, err := s.Users().FindByEmail(ctx, "ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	byID, err := s.Users().FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, byID.Email)

	_, err = s.Users().FindByID(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestMemoryUsers_EmailUniqueCaseInsensitive(t *testing.T) {
	s := NewMemory()
	seedUser(t, s, "ada@example.com")

	_, err := s.Users().Insert(context.Background(), &users.User{
		Name:         "Other",
		Email:        "ADA@EXAMPLE.COM",
		AuthProvider: users.ProviderLocal,
	})

	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestMemoryUsers_ProviderIdentityUnique(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	_, err := s.Users().Insert(ctx, &users.User{
		Email: "a@example.com", AuthProvider: users.ProviderGoogle, ProviderID: strPtr("g-1"),
	})
	require.NoError(t, err)

	_, err = s.Users().Insert(ctx, &users.User{
		Email: "b@example.com", AuthProvider: users.ProviderGoogle, ProviderID: strPtr("g-1"),
	})
	assert.ErrorIs(t, err, common.ErrConflict)

	found, err := s.Users().FindByProviderIdentity(ctx, users.ProviderGoogle, "g-1")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", found.Email)

	_, err = s.Users().FindByProviderIdentity(ctx, users.ProviderGoogle, "g-2")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestMemoryUsers_UpdateKeepsCreatedAt(t *testing.T) {
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemory().WithClock(func() time.Time { return clock })
	ctx := context.Background()

	u := seedUser(t, s, "ada@example.com")
	created := u.CreatedAt

	clock = clock.Add(time.Hour)
	u.Name = "Ada L."
	u.CreatedAt = time.Time{}

	updated, err := s.Users().Update(ctx, u)
	require.NoError(t, err)

	assert.Equal(t, "Ada L.", updated.Name)
	assert.Equal(t, created, updated.CreatedAt)
	assert.Equal(t, clock, updated.UpdatedAt)

	_, err = s.Users().Update(ctx, &users.User{ID: "missing"})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestMemoryUsers_ReturnsCopies(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	u := seedUser(t, s, "ada@example.com")

	*u.PasswordHash = "tampered"

	again, err := s.Users().FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "hash", *again.PasswordHash)
}

func TestMemoryTokens_Lifecycle(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	u := seedUser(t, s, "ada@example.com")
	exp := time.Now().Add(time.Hour)

	rt, err := s.RefreshTokens().Insert(ctx, &refreshtokens.RefreshToken{UserID: u.ID, Token: "tok-1", ExpiresAt: exp})
	require.NoError(t, err)
	assert.NotEmpty(t, rt.ID)

	_, err = s.RefreshTokens().Insert(ctx, &refreshtokens.RefreshToken{UserID: u.ID, Token: "tok-1", ExpiresAt: exp})
	assert.ErrorIs(t, err, common.ErrConflict)

	found, err := s.RefreshTokens().FindByTokenAndUser(ctx, "tok-1", u.ID)
	require.NoError(t, err)
	assert.Equal(t, rt.ID, found.ID)

	_, err = s.RefreshTokens().FindByTokenAndUser(ctx, "tok-1", "someone-else")
	assert.ErrorIs(t, err, common.ErrNotFound)

	n, err := s.RefreshTokens().DeleteByID(ctx, rt.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.RefreshTokens().DeleteByID(ctx, rt.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestMemoryTokens_InsertRequiresUser(t *testing.T) {
	s := NewMemory()

	_, err := s.RefreshTokens().Insert(context.Background(), &refreshtokens.RefreshToken{
		UserID: "ghost", Token: "tok", ExpiresAt: time.Now().Add(time.Hour),
	})

	assert.Error(t, err)
}

func TestMemoryTokens_BulkDeletes(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	ada := seedUser(t, s, "ada@example.com")
	bob := seedUser(t, s, "bob@example.com")
	now := time.Now()

	insert := func(userID, token string, exp time.Time) {
		_, err := s.RefreshTokens().Insert(ctx, &refreshtokens.RefreshToken{UserID: userID, Token: token, ExpiresAt: exp})
		require.NoError(t, err)
	}

	insert(ada.ID, "a1", now.Add(time.Hour))
	insert(ada.ID, "a2", now.Add(-48*time.Hour))
	insert(bob.ID, "b1", now.Add(time.Hour))
	insert(bob.ID, "b2", now.Add(-time.Hour))

	n, err := s.RefreshTokens().DeleteExpired(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "only records expired beyond the cutoff are removed")

	n, err = s.RefreshTokens().DeleteByUserAndToken(ctx, bob.ID, "a1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n, "a token is only deletable by its owner")

	n, err = s.RefreshTokens().DeleteAllByUser(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = s.RefreshTokens().FindByTokenAndUser(ctx, "b1", bob.ID)
	assert.NoError(t, err)
}

func TestMemoryWithTx_CommitAndRollback(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(ctx context.Context, tx Store) error {
		seedUser(t, tx, "ada@example.com")
		return nil
	})
	require.NoError(t, err)

	_, err = s.Users().FindByEmail(ctx, "ada@example.com")
	require.NoError(t, err)

	err = s.WithTx(ctx, func(ctx context.Context, tx Store) error {
		seedUser(t, tx, "bob@example.com")
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.Users().FindByEmail(ctx, "bob@example.com")
	assert.ErrorIs(t, err, common.ErrNotFound, "rolled back insert must not be visible")
}

func TestMemoryWithTx_RollbackOnPanic(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	assert.Panics(t, func() {
		_ = s.WithTx(ctx, func(ctx context.Context, tx Store) error {
			seedUser(t, tx, "ada@example.com")
			panic("kaboom")
		})
	})

	_, err := s.Users().FindByEmail(ctx, "ada@example.com")
	assert.ErrorIs(t, err, common.ErrNotFound)

	// the lock must have been released
	seedUser(t, s, "bob@example.com")
}

func TestMemoryWithTx_Nested(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	err := s.WithTx(ctx, func(ctx context.Context, tx Store) error {
		seedUser(t, tx, "outer@example.com")

		inner := tx.WithTx(ctx, func(ctx context.Context, tx Store) error {
			seedUser(t, tx, "inner@example.com")
			return errors.New("inner failed")
		})
		assert.Error(t, inner)

		return nil
	})
	require.NoError(t, err)

	_, err = s.Users().FindByEmail(ctx, "outer@example.com")
	assert.NoError(t, err)

	_, err = s.Users().FindByEmail(ctx, "inner@example.com")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestMemoryWithTx_SerializesConditionalDelete(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	u := seedUser(t, s, "ada@example.com")

	rt, err := s.RefreshTokens().Insert(ctx, &refreshtokens.RefreshToken{
		UserID: u.ID, Token: "tok", ExpiresAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	const workers = 16

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)

	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_ = s.WithTx(ctx, func(ctx context.Context, tx Store) error {
				n, err := tx.RefreshTokens().DeleteByID(ctx, rt.ID)
				if err != nil || n == 0 {
					return common.ErrInvalidToken
				}

				mu.Lock()
				winners++
				mu.Unlock()

				return nil
			})
		}()
	}

	wg.Wait()

	assert.Equal(t, 1, winners)
}

func TestMemoryWithTx_CancelledContext(t *testing.T) {
	s := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.WithTx(ctx, func(ctx context.Context, tx Store) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
