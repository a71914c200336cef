package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	domainauth "github.com/target/secretshare/internal/domain/auth"
	"github.com/target/secretshare/internal/ports"
)

var errMissingEmail = errors.New("profile has no verified email")

// FederatedAuthenticatorOptions groups dependencies for FederatedAuthenticator.
type FederatedAuthenticatorOptions struct {
	Registry ports.IdentityRegistry
	Logger   *slog.Logger
}

// FederatedAuthenticator maps a provider-verified profile to an existing or newly provisioned identity.
type FederatedAuthenticator struct {
	registry ports.IdentityRegistry
	logger   *slog.Logger
	inflight singleflight.Group
}

// NewFederatedAuthenticator constructs a FederatedAuthenticator.
func NewFederatedAuthenticator(opts FederatedAuthenticatorOptions) *FederatedAuthenticator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &FederatedAuthenticator{
		registry: opts.Registry,
		logger:   logger.With("component", "federated_auth"),
	}
}

// Authenticate finds or creates the identity for the profile's email.
// Existing identities are returned unchanged; new ones carry no local credential.
func (a *FederatedAuthenticator) Authenticate(ctx context.Context, profile domainauth.Profile) (*domainauth.Identity, error) {
	if profile.Email == "" {
		return nil, &domainauth.ProviderError{Op: "profile", Err: errMissingEmail}
	}

	// The shared flight outlives any single caller; each caller waits on its own context.
	ch := a.inflight.DoChan(profile.Email, func() (any, error) {
		return a.findOrCreate(context.WithoutCancel(ctx), profile)
	})
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("await provisioning: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		// Callers sharing a flight get their own copy.
		ident := *(res.Val.(*domainauth.Identity))
		return &ident, nil
	}
}

func (a *FederatedAuthenticator) findOrCreate(ctx context.Context, profile domainauth.Profile) (*domainauth.Identity, error) {
	ident, err := a.registry.FindByEmail(ctx, profile.Email)
	if err != nil {
		return nil, fmt.Errorf("find identity: %w", err)
	}
	if ident != nil {
		return ident, nil
	}

	ident, err = a.registry.Create(ctx, profile.Email, domainauth.NoLocalCredential())
	switch {
	case err == nil:
		a.logger.InfoContext(ctx, "provisioned federated identity",
			slog.String("provider", profile.Provider),
			slog.String("subject", profile.Subject),
		)
		return ident, nil
	case errors.Is(err, domainauth.ErrEmailTaken):
		// Another writer created the row between our read and insert.
		return a.rereadAfterConflict(ctx, profile.Email)
	default:
		return nil, fmt.Errorf("create identity: %w", err)
	}
}

func (a *FederatedAuthenticator) rereadAfterConflict(ctx context.Context, email string) (*domainauth.Identity, error) {
	ident, err := a.registry.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find identity after conflict: %w", err)
	}
	if ident == nil {
		return nil, &domainauth.RegistryError{
			Op:  "provision",
			Err: errors.New("identity missing after duplicate-key conflict"),
		}
	}
	return ident, nil
}
