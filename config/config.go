// Package config defines the environment-driven application configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - auth.go: Authentication and session configuration
//   - database.go: Postgres and Redis configuration
//   - http.go: HTTP server configuration
//   - observability.go: Logging and metrics configuration
type AppConfig struct {
	// IsDev controls development mode behavior.
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// SecretsEncryptionKey encrypts user secrets at rest.
	// Required outside development.
	SecretsEncryptionKey string `env:"SECRETS_ENCRYPTION_KEY"`

	Auth AuthConfig

	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	HTTP HTTPConfig

	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.Auth.Sanitize()
	c.HTTP.Sanitize()
	c.Observability.Sanitize()
	c.SecretsEncryptionKey = strings.TrimSpace(c.SecretsEncryptionKey)
	c.detectDevMode()
}

// Validate reports configuration that cannot start a server.
func (c *AppConfig) Validate() error {
	var errs []error
	if err := c.Auth.Validate(); err != nil {
		errs = append(errs, err)
	}
	if !c.IsDev && c.Auth.Mode == AuthModeMock {
		errs = append(errs, errors.New("AUTH_MODE=mock is only allowed when DEV=true"))
	}
	if !c.IsDev && c.SecretsEncryptionKey == "" {
		errs = append(errs, errors.New("SECRETS_ENCRYPTION_KEY is required outside development"))
	}
	if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT out of range: %d", c.Postgres.Port))
	}
	return errors.Join(errs...)
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
// NODE_ENV is checked as a fallback (common in frontend tooling).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}

// LogValue keeps credentials out of structured logs.
func (c AppConfig) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("dev", c.IsDev),
		slog.String("auth_mode", string(c.Auth.Mode)),
		slog.String("http_addr", c.HTTP.Addr),
		slog.String("db_host", c.Postgres.Host),
		slog.String("redis_uri", c.Redis.URI),
		slog.Bool("encryption", c.SecretsEncryptionKey != ""),
		slog.Bool("statsd", c.Observability.Metrics.IsEnabled()),
	)
}
