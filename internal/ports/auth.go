package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters and internal/data; orchestration in internal/service.

import (
	"context"
	"time"

	domainauth "github.com/target/secretshare/internal/domain/auth"
)

// PasswordHasher hashes and verifies local passwords.
// Verify returns (false, nil) on mismatch; a non-nil error is always a backend fault.
type PasswordHasher interface {
	Hash(ctx context.Context, plain string) ([]byte, error)
	Verify(ctx context.Context, plain string, hash []byte) (bool, error)
}

// IdentityRegistry is the user store.
// Create returns domainauth.ErrEmailTaken when the email already exists; every other failure is a
// *domainauth.RegistryError. FindByEmail returns (nil, nil) when no identity exists.
type IdentityRegistry interface {
	FindByEmail(ctx context.Context, email string) (*domainauth.Identity, error)
	Create(ctx context.Context, email string, cred domainauth.Credential) (*domainauth.Identity, error)
	SetSecret(ctx context.Context, email, secret string) error
}

// BeginInput carries inputs for initiating a federated login.
type BeginInput struct {
	RedirectURL string
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// FederatedProvider initiates and completes a login against a third-party identity provider.
type FederatedProvider interface {
	// Begin starts the login flow and returns the provider auth URL, an opaque state, and a nonce.
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)

	// Exchange completes the login flow and returns the provider-verified profile.
	Exchange(ctx context.Context, in ExchangeInput) (domainauth.Profile, error)
}

// SessionStore persists and retrieves user sessions.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
}

// AuthMetrics records authentication outcomes. Implementations must be safe for concurrent use.
type AuthMetrics interface {
	LoginAttempt(method domainauth.Method, outcome string)
	Registration(outcome string)
	HashDuration(op string, d time.Duration)
	SessionRestore(outcome string)
}

// NopMetrics discards all measurements.
type NopMetrics struct{}

func (NopMetrics) LoginAttempt(domainauth.Method, string) {}
func (NopMetrics) Registration(string) {}
func (NopMetrics) HashDuration(string, time.Duration) {}
func (NopMetrics) SessionRestore(string) {}
