package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/target/secretshare/config"
	"github.com/target/secretshare/internal/adapters/devauth"
	"github.com/target/secretshare/internal/adapters/oidc"
	"github.com/target/secretshare/internal/adapters/passwordhash"
	redisadapter "github.com/target/secretshare/internal/adapters/redis"
	"github.com/target/secretshare/internal/ports"
	"github.com/target/secretshare/internal/service"
)

// AuthConfig contains configuration for the auth service.
type AuthConfig struct {
	Auth          config.AuthConfig
	Registry      ports.IdentityRegistry
	RedisClient   redis.UniversalClient
	SessionPrefix string
	Metrics       ports.AuthMetrics
	Logger        *slog.Logger
}

// BuildAuthService wires local and federated login plus sessions for the configured auth mode.
func BuildAuthService(ctx context.Context, cfg AuthConfig) (*service.AuthService, error) {
	if cfg.RedisClient == nil {
		return nil, errors.New("auth service requires a redis client")
	}
	if cfg.Registry == nil {
		return nil, errors.New("auth service requires an identity registry")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	provider, err := BuildFederatedProvider(ctx, cfg.Auth)
	if err != nil {
		return nil, err
	}

	store := redisadapter.NewSessionStoreWithOptions(cfg.RedisClient, redisadapter.SessionStoreOptions{
		Prefix: cfg.SessionPrefix,
	})
	hasher := passwordhash.NewBcryptHasher(passwordhash.BcryptOptions{
		Cost:          cfg.Auth.BcryptCost,
		MaxConcurrent: cfg.Auth.HashConcurrency,
		Metrics:       cfg.Metrics,
	})

	logger.InfoContext(ctx, "auth configured",
		"mode", cfg.Auth.Mode,
		"session_ttl", cfg.Auth.SessionTTL.String(),
		"bcrypt_cost", hasher.Cost(),
	)

	return service.NewAuthService(service.AuthServiceOptions{
		Local: service.NewLocalAuthenticator(service.LocalAuthenticatorOptions{
			Registry: cfg.Registry,
			Hasher:   hasher,
			Logger:   logger,
		}),
		Federated: service.NewFederatedAuthenticator(service.FederatedAuthenticatorOptions{
			Registry: cfg.Registry,
			Logger:   logger,
		}),
		Sessions: service.NewSessionManager(service.SessionManagerOptions{
			Store:    store,
			Registry: cfg.Registry,
			TTL:      cfg.Auth.SessionTTL,
			Metrics:  cfg.Metrics,
			Logger:   logger,
		}),
		Provider: provider,
		Metrics:  cfg.Metrics,
		Logger:   logger,
	}), nil
}

// BuildFederatedProvider selects the identity provider for the auth mode.
//
//nolint:ireturn // the provider is chosen at runtime.
func BuildFederatedProvider(ctx context.Context, cfg config.AuthConfig) (ports.FederatedProvider, error) {
	switch cfg.Mode {
	case config.AuthModeMock:
		prov, err := devauth.NewProvider(devauth.Config{
			Email: cfg.DevAuth.Email,
			Name:  cfg.DevAuth.Name,
		})
		if err != nil {
			return nil, fmt.Errorf("dev auth provider: %w", err)
		}
		return prov, nil

	case config.AuthModeOAuth:
		oauth := cfg.OAuth
		prov, err := oidc.NewProvider(ctx, oidc.ProviderConfig{
			ClientID:     oauth.ClientID,
			ClientSecret: oauth.ClientSecret,
			RedirectURL:  oauth.RedirectURL,
			Scope:        oauth.Scope,
			DiscoveryURL: oauth.DiscoveryURL,
			EmailClaim:   oauth.EmailClaim,
		})
		if err != nil {
			return nil, fmt.Errorf("oidc provider: %w", err)
		}
		return prov, nil

	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.Mode)
	}
}
