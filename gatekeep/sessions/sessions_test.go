package sessions

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"

	"codeberg.org/gatekeep/server/gatekeep/identity"
	"codeberg.org/gatekeep/server/gatekeep/store"
	"codeberg.org/gatekeep/server/gatekeep/tokens"
	"codeberg.org/gatekeep/server/gatekeep/users"
	"codeberg.org/gatekeep/server/internal/auth"
	"codeberg.org/gatekeep/server/internal/common"
	"codeberg.org/gatekeep/server/internal/hasher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// counts verifications so failed logins can be shown to pay the hash cost
type countingHasher struct {
	*hasher.Hasher
	verifies atomic.Int32
}

func (h *countingHasher) Verify(ctx context.Context, password, hash string) bool {
	h.verifies.Add(1)
	return h.Hasher.Verify(ctx, password, hash)
}

// counts issued pairs, each of which persists one refresh record
type countingIssuer struct {
	*tokens.Issuer
	issued atomic.Int32
}

func (i *countingIssuer) Issue(ctx context.Context, user *users.User) (*tokens.TokenPair, error) {
	i.issued.Add(1)
	return i.Issuer.Issue(ctx, user)
}

type harness struct {
	svc    *Service
	store  *store.Memory
	signer *auth.Signer
	hasher *countingHasher
	issuer *countingIssuer
}

func newHarness(t *testing.T, providerEnabled bool) *harness {
	t.Helper()

	h, err := hasher.New(bcrypt.MinCost, 2)
	require.NoError(t, err)

	signer, err := auth.NewSigner(auth.SignerConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
	})
	require.NoError(t, err)

	mem := store.NewMemory()
	issuer := tokens.NewIssuer(signer, mem)
	ch := &countingHasher{Hasher: h}
	ci := &countingIssuer{Issuer: issuer}

	svc, err := NewService(context.Background(), Dependencies{
		Users:           mem.Users(),
		Hasher:          ch,
		Resolver:        identity.NewResolver(mem.Users()),
		Issuer:          ci,
		Rotator:         tokens.NewRotator(signer, mem, issuer),
		ProviderEnabled: providerEnabled,
	})
	require.NoError(t, err)

	return &harness{svc: svc, store: mem, signer: signer, hasher: ch, issuer: ci}
}

func (h *harness) register(t *testing.T, email, password string) *tokens.TokenPair {
	t.Helper()

	pair, err := h.svc.Register(context.Background(), RegisterInput{
		Name:     "Ada",
		Email:    email,
		Password: password,
	})
	require.NoError(t, err)

	return pair
}

func TestNewService_MissingDependency(t *testing.T) {
	_, err := NewService(context.Background(), Dependencies{})

	assert.ErrorIs(t, err, common.ErrConfiguration)
}

func TestRegister(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()

	pair := h.register(t, "Ada@Example.com", "correct horse")

	claims, err := h.signer.Parse(auth.AccessToken, pair.AccessToken)
	require.NoError(t, err)

	user, err := h.store.Users().FindByEmail(ctx, "ada@example.com")
	require.NoError(t, err)

	assert.Equal(t, user.ID, claims.UserID())
	assert.Equal(t, user.ID, pair.User.ID)
	assert.Equal(t, users.ProviderLocal, user.AuthProvider)
	assert.True(t, user.HasPassword())
	assert.NotEqual(t, "correct horse", *user.PasswordHash)
	assert.NotEmpty(t, pair.RefreshToken)
}

func TestRegister_PasswordOverByteLimit(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()

	_, err := h.svc.Register(ctx, RegisterInput{
		Name:     "Ada",
		Email:    "ada@example.com",
		Password: strings.Repeat("é", 40),
	})

	require.ErrorIs(t, err, common.ErrInvalidInput)
	assert.Equal(t, 1, strings.Count(err.Error(), "72 bytes"))
	assert.Zero(t, h.issuer.issued.Load())

	_, err = h.store.Users().FindByEmail(ctx, "ada@example.com")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()

	first := h.register(t, "ada@example.com", "pw-one")
	issued := h.issuer.issued.Load()

	_, err := h.svc.Register(ctx, RegisterInput{Name: "Imposter", Email: " ADA@example.com", Password: "pw-two"})
	assert.ErrorIs(t, err, common.ErrConflict)

	user, err := h.store.Users().FindByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, user.ID)
	assert.Equal(t, "Ada", user.Name)
	assert.Equal(t, issued, h.issuer.issued.Load(), "no tokens for a rejected registration")
}

func TestLoginWithPassword(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()

	registered := h.register(t, "ada@example.com", "correct horse")

	pair, err := h.svc.LoginWithPassword(ctx, "ADA@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, pair.User.ID)
}

func TestLoginWithPassword_Failures(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()

	h.register(t, "ada@example.com", "correct horse")

	_, err := h.svc.LoginWithProvider(ctx, identity.Profile{
		Provider:          users.ProviderGoogle,
		ProviderSubjectID: "g-42",
		Email:             "oauth-only@example.com",
		DisplayName:       "OAuth Only",
	})
	require.NoError(t, err)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "ada@example.com", "battery staple"},
		{"empty password", "ada@example.com", ""},
		{"unknown email", "nobody@example.com", "correct horse"},
		{"provider-only account", "oauth-only@example.com", "anything"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issued := h.issuer.issued.Load()
			verifies := h.hasher.verifies.Load()

			pair, err := h.svc.LoginWithPassword(ctx, tt.email, tt.password)

			assert.Nil(t, pair)
			assert.ErrorIs(t, err, common.ErrInvalidCredentials)
			assert.Equal(t, issued, h.issuer.issued.Load(), "no refresh record on failure")
			assert.Equal(t, verifies+1, h.hasher.verifies.Load(), "every failure pays one verification")
		})
	}
}

func TestLoginWithProvider_Unavailable(t *testing.T) {
	h := newHarness(t, false)

	_, err := h.svc.LoginWithProvider(context.Background(), identity.Profile{
		ProviderSubjectID: "g1",
		Email:             "a@x.com",
	})

	assert.ErrorIs(t, err, common.ErrProviderUnavailable)
	assert.False(t, h.svc.ProviderEnabled())
}

func TestLoginWithProvider_LinksLocalAccount(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()

	local := h.register(t, "a@x.com", "local password")

	pair, err := h.svc.LoginWithProvider(ctx, identity.Profile{
		Provider:          users.ProviderGoogle,
		ProviderSubjectID: "g1",
		Email:             "a@x.com",
		DisplayName:       "Ada G.",
	})
	require.NoError(t, err)

	assert.Equal(t, local.User.ID, pair.User.ID)
	assert.Equal(t, users.ProviderGoogle, pair.User.AuthProvider)

	stored, err := h.store.Users().FindByID(ctx, local.User.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ProviderID)
	assert.Equal(t, "g1", *stored.ProviderID)
	assert.True(t, stored.HasPassword(), "password hash is preserved")

	// merged accounts keep password login
	_, err = h.svc.LoginWithPassword(ctx, "a@x.com", "local password")
	assert.NoError(t, err)
}

func TestRefresh_RoundTripExactlyOnce(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()

	pair := h.register(t, "ada@example.com", "correct horse")

	next, err := h.svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, pair.User.ID, next.User.ID)

	_, err = h.svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	_, err = h.svc.Refresh(ctx, "")
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestLogout_OneDevice(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()

	laptop := h.register(t, "ada@example.com", "correct horse")

	phone, err := h.svc.LoginWithPassword(ctx, "ada@example.com", "correct horse")
	require.NoError(t, err)

	require.NoError(t, h.svc.Logout(ctx, laptop.User.ID, laptop.RefreshToken))

	_, err = h.svc.Refresh(ctx, laptop.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	_, err = h.svc.Refresh(ctx, phone.RefreshToken)
	assert.NoError(t, err, "other sessions survive a single-device logout")
}

func TestLogout_AllDevices(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()

	first := h.register(t, "ada@example.com", "correct horse")

	second, err := h.svc.LoginWithPassword(ctx, "ada@example.com", "correct horse")
	require.NoError(t, err)

	require.NoError(t, h.svc.LogoutAll(ctx, first.User.ID))

	for _, tok := range []string{first.RefreshToken, second.RefreshToken} {
		_, err := h.svc.Refresh(ctx, tok)
		assert.ErrorIs(t, err, common.ErrInvalidToken)
	}
}

func TestLogout_EmptyTokenRevokesAll(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()

	pair := h.register(t, "ada@example.com", "correct horse")

	require.NoError(t, h.svc.Logout(ctx, pair.User.ID, ""))

	_, err := h.svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestProfile(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()

	pair := h.register(t, "ada@example.com", "correct horse")

	p, err := h.svc.Profile(ctx, pair.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", p.Email)

	_, err = h.svc.Profile(ctx, "gone")
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestUpdateProfile(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()

	pair := h.register(t, "ada@example.com", "correct horse")
	name := "Ada Lovelace"
	avatar := "https://img/ada.png"

	p, err := h.svc.UpdateProfile(ctx, pair.User.ID, ProfileUpdate{Name: &name, Avatar: &avatar})
	require.NoError(t, err)
	assert.Equal(t, name, p.Name)
	require.NotNil(t, p.Avatar)
	assert.Equal(t, avatar, *p.Avatar)

	cleared := ""
	p, err = h.svc.UpdateProfile(ctx, pair.User.ID, ProfileUpdate{Avatar: &cleared})
	require.NoError(t, err)
	assert.Equal(t, name, p.Name)
	assert.Nil(t, p.Avatar)

	stored, err := h.store.Users().FindByID(ctx, pair.User.ID)
	require.NoError(t, err)
	assert.True(t, stored.HasPassword(), "profile updates never touch the password")

	_, err = h.svc.UpdateProfile(ctx, "gone", ProfileUpdate{Name: &name})
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}
