package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/secretshare/internal/domain/auth"
	"github.com/target/secretshare/internal/ports"
)

func TestMockFederatedProvider_Begin_Defaults(t *testing.T) {
	provider := NewMockFederatedProvider()
	ctx := context.Background()

	input := ports.BeginInput{RedirectURL: "http://localhost:8080/auth/google/secrets"}
	authURL, state, nonce, err := provider.Begin(ctx, input)

	require.NoError(t, err)
	assert.Equal(t, "https://mock-idp/auth", authURL)
	assert.Equal(t, "state-1", state)
	assert.Equal(t, "nonce-1", nonce)

	_, state2, nonce2, err := provider.Begin(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, "state-2", state2)
	assert.Equal(t, "nonce-2", nonce2)
}

func TestMockFederatedProvider_Exchange(t *testing.T) {
	provider := NewMockFederatedProvider()
	profile, err := provider.Exchange(context.Background(), ports.ExchangeInput{Code: "c", State: "s", Nonce: "n"})
	require.NoError(t, err)
	assert.Equal(t, "mock.user@example.com", profile.Email)

	provider.ExchangeFunc = func(context.Context, ports.ExchangeInput) (domainauth.Profile, error) {
		return domainauth.Profile{}, errors.New("denied")
	}
	_, err = provider.Exchange(context.Background(), ports.ExchangeInput{})
	require.Error(t, err)
}

func TestMemorySessionStore_SaveGetDelete(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	sess := domainauth.Session{
		ID:        "test-session-1",
		Email:     "user@example.com",
		Method:    domainauth.MethodLocal,
		ExpiresAt: time.Now().Add(30 * time.Minute),
	}
	require.NoError(t, store.Save(ctx, sess))

	got, err := store.Get(ctx, "test-session-1")
	require.NoError(t, err)
	assert.Equal(t, sess, got)

	require.NoError(t, store.Delete(ctx, "test-session-1"))
	_, err = store.Get(ctx, "test-session-1")
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)
	assert.NoError(t, store.Delete(ctx, ""))
}

func TestMemorySessionStore_SaveEmptyID(t *testing.T) {
	err := NewMemorySessionStore().Save(context.Background(), domainauth.Session{Email: "user@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session ID cannot be empty")
}

func TestMemoryRegistry_CreateRejectsDuplicate(t *testing.T) {
	reg := NewMemoryRegistry()
	ctx := context.Background()

	_, err := reg.Create(ctx, "a@x.com", domainauth.NoLocalCredential())
	require.NoError(t, err)

	_, err = reg.Create(ctx, "a@x.com", domainauth.HashedCredential([]byte("h")))
	require.ErrorIs(t, err, domainauth.ErrEmailTaken)
	assert.Equal(t, 1, reg.Count("a@x.com"))
}

func TestMemoryRegistry_FindReturnsCopy(t *testing.T) {
	reg := NewMemoryRegistry()
	ctx := context.Background()

	_, err := reg.Create(ctx, "a@x.com", domainauth.NoLocalCredential())
	require.NoError(t, err)
	require.NoError(t, reg.SetSecret(ctx, "a@x.com", "s1"))

	got, err := reg.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, got.Secret)
	*got.Secret = "mutated"

	again, err := reg.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "s1", *again.Secret)

	missing, err := reg.FindByEmail(ctx, "b@x.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemoryRegistry_FaultInjection(t *testing.T) {
	reg := NewMemoryRegistry()
	reg.FindErr = errors.New("connection refused")

	_, err := reg.FindByEmail(context.Background(), "a@x.com")
	var regErr *domainauth.RegistryError
	require.ErrorAs(t, err, &regErr)
	assert.Equal(t, "find", regErr.Op)
}

func TestPlainHasher(t *testing.T) {
	h := &PlainHasher{}
	ctx := context.Background()

	hash, err := h.Hash(ctx, "pw")
	require.NoError(t, err)

	ok, err := h.Verify(ctx, "pw", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify(ctx, "other", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	h.VerifyErr = errors.New("boom")
	_, err = h.Verify(ctx, "pw", hash)
	assert.True(t, domainauth.IsBackendError(err))
}
