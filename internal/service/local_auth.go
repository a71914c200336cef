package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	domainauth "github.com/target/secretshare/internal/domain/auth"
	"github.com/target/secretshare/internal/ports"
)

// LocalCredentials is an email/password submission. Form field names follow the login and register pages.
type LocalCredentials struct {
	Email    string `form:"username" validate:"required,email,max=320"`
	Password string `form:"password" validate:"required,maxbytes=72"`
}

// LocalAuthenticatorOptions groups dependencies for LocalAuthenticator.
type LocalAuthenticatorOptions struct {
	Registry ports.IdentityRegistry
	Hasher   ports.PasswordHasher
	Logger   *slog.Logger
}

// LocalAuthenticator verifies and registers password-backed identities.
type LocalAuthenticator struct {
	registry ports.IdentityRegistry
	hasher   ports.PasswordHasher
	logger   *slog.Logger
}

// NewLocalAuthenticator constructs a LocalAuthenticator.
func NewLocalAuthenticator(opts LocalAuthenticatorOptions) *LocalAuthenticator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalAuthenticator{
		registry: opts.Registry,
		hasher:   opts.Hasher,
		logger:   logger.With("component", "local_auth"),
	}
}

// Authenticate returns the identity registered under email when password matches its stored hash.
// Mismatches are *domainauth.Rejection values; identities without a local credential never match.
func (a *LocalAuthenticator) Authenticate(ctx context.Context, email, password string) (*domainauth.Identity, error) {
	ident, err := a.registry.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find identity: %w", err)
	}
	if ident == nil {
		return nil, domainauth.Reject(domainauth.ReasonUserNotFound)
	}
	if !ident.Credential.IsLocal() {
		return nil, domainauth.Reject(domainauth.ReasonBadPassword)
	}

	ok, err := a.hasher.Verify(ctx, password, ident.Credential.Hash())
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, domainauth.Reject(domainauth.ReasonBadPassword)
	}
	return ident, nil
}

// Register creates a password-backed identity. A duplicate email yields domainauth.ErrEmailTaken.
func (a *LocalAuthenticator) Register(ctx context.Context, creds LocalCredentials) (*domainauth.Identity, error) {
	if err := validateStruct(creds); err != nil {
		return nil, err
	}

	// Skip the hash for the common duplicate; the store constraint still decides races.
	existing, err := a.registry.FindByEmail(ctx, creds.Email)
	if err != nil {
		return nil, fmt.Errorf("find identity: %w", err)
	}
	if existing != nil {
		return nil, domainauth.ErrEmailTaken
	}

	hash, err := a.hasher.Hash(ctx, creds.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	ident, err := a.registry.Create(ctx, creds.Email, domainauth.HashedCredential(hash))
	if err != nil {
		if errors.Is(err, domainauth.ErrEmailTaken) {
			a.logger.InfoContext(ctx, "registration lost race to concurrent create")
			return nil, domainauth.ErrEmailTaken
		}
		return nil, fmt.Errorf("create identity: %w", err)
	}
	return ident, nil
}
