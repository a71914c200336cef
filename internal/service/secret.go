package service

import (
	"context"
	"errors"
	"fmt"

	domainauth "github.com/target/secretshare/internal/domain/auth"
	"github.com/target/secretshare/internal/ports"
)

// SecretPlaceholder is shown to identities that have not submitted a secret.
const SecretPlaceholder = "You should submit a secret!"

// SecretSubmission is the submit form payload.
type SecretSubmission struct {
	Secret string `form:"secret" validate:"max=4096"`
}

// SecretServiceOptions groups dependencies for SecretService.
type SecretServiceOptions struct {
	Registry ports.IdentityRegistry
}

// SecretService reads and writes the secret owned by an authenticated identity.
type SecretService struct {
	registry ports.IdentityRegistry
}

// NewSecretService constructs a SecretService.
func NewSecretService(opts SecretServiceOptions) *SecretService {
	return &SecretService{registry: opts.Registry}
}

// View returns the identity's secret, or SecretPlaceholder when none is set.
func (s *SecretService) View(ident *domainauth.Identity) string {
	if ident == nil || !ident.HasSecret() {
		return SecretPlaceholder
	}
	return *ident.Secret
}

// Submit replaces the secret owned by ident.
func (s *SecretService) Submit(ctx context.Context, ident *domainauth.Identity, in SecretSubmission) error {
	if ident == nil {
		return errors.New("identity is required")
	}
	if err := validateStruct(in); err != nil {
		return err
	}
	if err := s.registry.SetSecret(ctx, ident.Email, in.Secret); err != nil {
		return fmt.Errorf("set secret: %w", err)
	}
	return nil
}
