// Package devseed creates demo identities for local development.
package devseed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/target/secretshare/internal/adapters/passwordhash"
	"github.com/target/secretshare/internal/data"
	"github.com/target/secretshare/internal/data/cryptoutil"
	domainauth "github.com/target/secretshare/internal/domain/auth"
	"github.com/target/secretshare/internal/ports"
)

// Services bundles the dependencies needed for development seeding.
type Services struct {
	Registry ports.IdentityRegistry
	Hasher   ports.PasswordHasher
}

// NewServices constructs seeding dependencies on db. Seeded secrets are encrypted with enc.
func NewServices(db *sql.DB, enc cryptoutil.Encryptor) Services {
	if enc == nil {
		enc = cryptoutil.NoopEncryptor{}
	}
	return Services{
		Registry: data.NewUserRepo(db, enc),
		Hasher:   passwordhash.NewBcryptHasher(passwordhash.BcryptOptions{Cost: passwordhash.DefaultCost}),
	}
}

// Identity describes one seeded account. An empty Password seeds a federated-only identity.
type Identity struct {
	Email    string
	Password string
	Secret   string
}

// DefaultIdentities returns the demo accounts.
func DefaultIdentities() []Identity {
	return []Identity{
		{Email: "demo@example.com", Password: "demo-password", Secret: "I still sleep with a night light."},
		{Email: "empty@example.com", Password: "demo-password"},
		// Matches the default DEV_AUTH_EMAIL so mock federated logins land on an existing account.
		{Email: "dev@example.com"},
	}
}

// Run seeds the default identities. Existing accounts are left untouched.
func Run(ctx context.Context, svcs Services, logger *slog.Logger) error {
	return Seed(ctx, svcs, DefaultIdentities(), logger)
}

// Seed creates each identity that does not exist yet.
func Seed(ctx context.Context, svcs Services, identities []Identity, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	failures := 0
	for _, ident := range identities {
		created, err := seedIdentity(ctx, svcs, ident)
		switch {
		case err != nil:
			failures++
			logger.WarnContext(ctx, "seed identity failed", "email", ident.Email, "error", err)
		case created:
			logger.InfoContext(ctx, "seeded identity", "email", ident.Email, "local", ident.Password != "")
		default:
			logger.DebugContext(ctx, "identity already exists", "email", ident.Email)
		}
	}
	if failures > 0 {
		return fmt.Errorf("%d seed errors; check logs", failures)
	}
	return nil
}

func seedIdentity(ctx context.Context, svcs Services, ident Identity) (bool, error) {
	existing, err := svcs.Registry.FindByEmail(ctx, ident.Email)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}

	cred := domainauth.NoLocalCredential()
	if ident.Password != "" {
		hash, hashErr := svcs.Hasher.Hash(ctx, ident.Password)
		if hashErr != nil {
			return false, hashErr
		}
		cred = domainauth.HashedCredential(hash)
	}

	if _, err = svcs.Registry.Create(ctx, ident.Email, cred); err != nil {
		if errors.Is(err, domainauth.ErrEmailTaken) {
			return false, nil
		}
		return false, err
	}
	if ident.Secret != "" {
		if err := svcs.Registry.SetSecret(ctx, ident.Email, ident.Secret); err != nil {
			return true, err
		}
	}
	return true, nil
}
