package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	domainauth "github.com/target/secretshare/internal/domain/auth"
	apperrors "github.com/target/secretshare/internal/errors"
	"github.com/target/secretshare/internal/mocks"
	authmocks "github.com/target/secretshare/internal/mocks/auth"
)

func newLocal(reg *authmocks.MemoryRegistry) *LocalAuthenticator {
	return NewLocalAuthenticator(LocalAuthenticatorOptions{
		Registry: reg,
		Hasher:   &authmocks.PlainHasher{},
	})
}

func TestLocalAuthenticator_RegisteredCredentialsAuthenticate(t *testing.T) {
	reg := authmocks.NewMemoryRegistry()
	a := newLocal(reg)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		email := fmt.Sprintf("user%d@example.com", i)
		password := fmt.Sprintf("pw-%d", i)

		created, err := a.Register(ctx, LocalCredentials{Email: email, Password: password})
		require.NoError(t, err)

		got, err := a.Authenticate(ctx, email, password)
		require.NoError(t, err)
		assert.Equal(t, created.Email, got.Email)
		assert.True(t, got.Credential.Equal(created.Credential))

		_, err = a.Authenticate(ctx, email, password+"x")
		reason, ok := domainauth.RejectionReason(err)
		require.True(t, ok)
		assert.Equal(t, domainauth.ReasonBadPassword, reason)
	}
}

func TestLocalAuthenticator_UnknownUser(t *testing.T) {
	_, err := newLocal(authmocks.NewMemoryRegistry()).Authenticate(context.Background(), "nobody@example.com", "pw")
	reason, ok := domainauth.RejectionReason(err)
	require.True(t, ok)
	assert.Equal(t, domainauth.ReasonUserNotFound, reason)
}

func TestLocalAuthenticator_FederatedIdentityNeverMatches(t *testing.T) {
	reg := authmocks.NewMemoryRegistry()
	ctx := context.Background()
	_, err := reg.Create(ctx, "bob@example.com", domainauth.NoLocalCredential())
	require.NoError(t, err)

	for _, pw := range []string{"", "google", "plain:", "anything"} {
		_, err := newLocal(reg).Authenticate(ctx, "bob@example.com", pw)
		reason, ok := domainauth.RejectionReason(err)
		require.True(t, ok, "password %q", pw)
		assert.Equal(t, domainauth.ReasonBadPassword, reason)
	}
}

func TestLocalAuthenticator_DuplicateRegistration(t *testing.T) {
	reg := authmocks.NewMemoryRegistry()
	a := newLocal(reg)
	ctx := context.Background()

	_, err := a.Register(ctx, LocalCredentials{Email: "alice@example.com", Password: "pw123"})
	require.NoError(t, err)

	_, err = a.Register(ctx, LocalCredentials{Email: "alice@example.com", Password: "other"})
	require.ErrorIs(t, err, domainauth.ErrEmailTaken)
	assert.Equal(t, 1, reg.Count("alice@example.com"))
}

func TestLocalAuthenticator_RegisterValidation(t *testing.T) {
	a := newLocal(authmocks.NewMemoryRegistry())
	ctx := context.Background()

	tests := []struct {
		name  string
		creds LocalCredentials
		field string
	}{
		{"missing email", LocalCredentials{Password: "pw"}, "username"},
		{"malformed email", LocalCredentials{Email: "not-an-email", Password: "pw"}, "username"},
		{"missing password", LocalCredentials{Email: "a@example.com"}, "password"},
		{"password too long", LocalCredentials{Email: "a@example.com", Password: string(make([]byte, 73))}, "password"},
		{"multibyte password over bcrypt limit", LocalCredentials{Email: "a@example.com", Password: strings.Repeat("é", 40)}, "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Register(ctx, tt.creds)
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
			assert.Equal(t, tt.field, apperrors.GetField(err))
		})
	}
}

func TestLocalAuthenticator_RegisterMultibytePasswordNeverHashed(t *testing.T) {
	ctrl := gomock.NewController(t)
	hasher := mocks.NewMockPasswordHasher(ctrl)
	hasher.EXPECT().Hash(gomock.Any(), gomock.Any()).Times(0)
	reg := authmocks.NewMemoryRegistry()
	a := NewLocalAuthenticator(LocalAuthenticatorOptions{Registry: reg, Hasher: hasher})

	_, err := a.Register(context.Background(), LocalCredentials{
		Email:    "a@example.com",
		Password: strings.Repeat("é", 40),
	})

	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Contains(t, err.Error(), "password must be at most 72 bytes")
	var backend *domainauth.CredentialBackendError
	assert.False(t, errors.As(err, &backend))

	ident, err := reg.FindByEmail(context.Background(), "a@example.com")
	require.NoError(t, err)
	assert.Nil(t, ident)

	// 36 two-byte runes fit exactly.
	_, err = NewLocalAuthenticator(LocalAuthenticatorOptions{Registry: reg, Hasher: &authmocks.PlainHasher{}}).
		Register(context.Background(), LocalCredentials{Email: "a@example.com", Password: strings.Repeat("é", 36)})
	require.NoError(t, err)
}

func TestLocalAuthenticator_VerifyBackendErrorIsNotRejection(t *testing.T) {
	reg := authmocks.NewMemoryRegistry()
	ctx := context.Background()
	_, err := reg.Create(ctx, "a@example.com", domainauth.HashedCredential([]byte("plain:pw")))
	require.NoError(t, err)

	a := NewLocalAuthenticator(LocalAuthenticatorOptions{
		Registry: reg,
		Hasher:   &authmocks.PlainHasher{VerifyErr: errors.New("bcrypt exploded")},
	})
	_, err = a.Authenticate(ctx, "a@example.com", "pw")
	require.Error(t, err)
	assert.False(t, domainauth.IsRejection(err))
	var be *domainauth.CredentialBackendError
	assert.ErrorAs(t, err, &be)
}

func TestLocalAuthenticator_RegistryErrorPropagates(t *testing.T) {
	reg := authmocks.NewMemoryRegistry()
	reg.FindErr = errors.New("connection refused")

	_, err := newLocal(reg).Authenticate(context.Background(), "a@example.com", "pw")
	require.Error(t, err)
	assert.True(t, domainauth.IsBackendError(err))
	assert.False(t, domainauth.IsRejection(err))
}

func TestLocalAuthenticator_Register_LostRaceIsDuplicate(t *testing.T) {
	ctrl := gomock.NewController(t)
	reg := mocks.NewMockIdentityRegistry(ctrl)
	hasher := mocks.NewMockPasswordHasher(ctrl)

	reg.EXPECT().FindByEmail(gomock.Any(), "a@example.com").Return(nil, nil)
	hasher.EXPECT().Hash(gomock.Any(), "pw").Return([]byte("hash"), nil)
	reg.EXPECT().Create(gomock.Any(), "a@example.com", gomock.Any()).Return(nil, domainauth.ErrEmailTaken)

	a := NewLocalAuthenticator(LocalAuthenticatorOptions{Registry: reg, Hasher: hasher})
	_, err := a.Register(context.Background(), LocalCredentials{Email: "a@example.com", Password: "pw"})
	assert.ErrorIs(t, err, domainauth.ErrEmailTaken)
}

func TestLocalAuthenticator_Register_HashFailureCreatesNothing(t *testing.T) {
	ctrl := gomock.NewController(t)
	reg := mocks.NewMockIdentityRegistry(ctrl)
	hasher := mocks.NewMockPasswordHasher(ctrl)

	reg.EXPECT().FindByEmail(gomock.Any(), "a@example.com").Return(nil, nil)
	hasher.EXPECT().Hash(gomock.Any(), "pw").
		Return(nil, &domainauth.CredentialBackendError{Op: "hash", Err: errors.New("boom")})
	reg.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	a := NewLocalAuthenticator(LocalAuthenticatorOptions{Registry: reg, Hasher: hasher})
	_, err := a.Register(context.Background(), LocalCredentials{Email: "a@example.com", Password: "pw"})
	require.Error(t, err)
	assert.True(t, domainauth.IsBackendError(err))
}
