package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// AuthMode represents the federated authentication mode for the application.
type AuthMode string

const (
	// AuthModeOAuth uses OAuth/OIDC (Google by default).
	AuthModeOAuth AuthMode = "oauth"
	// AuthModeMock uses the dev provider (for development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "oauth", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: oauth, mock)", v)
	}
}

const (
	defaultSessionTTL = 24 * time.Hour
	defaultBcryptCost = 10
	minBcryptCost     = 4
	maxBcryptCost     = 31
)

// OAuthConfig contains OAuth/OIDC configuration.
type OAuthConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURL  string `env:"REDIRECT_URL"  envDefault:"http://localhost:8080/auth/google/secrets"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email"`
	DiscoveryURL string `env:"DISCOVERY_URL" envDefault:"https://accounts.google.com"`
	// EmailClaim is a JMESPath expression evaluated against the ID token claims.
	EmailClaim string `env:"EMAIL_CLAIM" envDefault:"email"`
}

// DevAuthConfig controls the identity returned when AUTH_MODE=mock.
type DevAuthConfig struct {
	Email string `env:"EMAIL" envDefault:"dev@example.com"`
	Name  string `env:"NAME"  envDefault:"Dev User"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	Mode AuthMode `env:"AUTH_MODE" envDefault:"oauth"`

	OAuth   OAuthConfig   `envPrefix:"OAUTH_"`
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`

	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	BcryptCost int `env:"BCRYPT_COST" envDefault:"10"`
	// HashConcurrency bounds concurrent bcrypt operations; 0 means GOMAXPROCS.
	HashConcurrency int `env:"HASH_CONCURRENCY" envDefault:"0"`

	// LoginRatePerMinute limits POST /login and /register per client IP; 0 disables limiting.
	LoginRatePerMinute int `env:"LOGIN_RATE_PER_MINUTE" envDefault:"30"`
	LoginRateBurst     int `env:"LOGIN_RATE_BURST"      envDefault:"10"`
}

// Sanitize applies guardrails to auth configuration values.
func (a *AuthConfig) Sanitize() {
	if a.Mode == "" {
		a.Mode = AuthModeOAuth
	}
	if a.SessionTTL <= 0 {
		a.SessionTTL = defaultSessionTTL
	}
	if a.BcryptCost < minBcryptCost || a.BcryptCost > maxBcryptCost {
		a.BcryptCost = defaultBcryptCost
	}
	if a.HashConcurrency < 0 {
		a.HashConcurrency = 0
	}
	if a.LoginRatePerMinute < 0 {
		a.LoginRatePerMinute = 0
	}
	if a.LoginRateBurst < 1 {
		a.LoginRateBurst = 1
	}
	a.OAuth.ClientID = strings.TrimSpace(a.OAuth.ClientID)
	a.OAuth.DiscoveryURL = strings.TrimSpace(a.OAuth.DiscoveryURL)
	if strings.TrimSpace(a.OAuth.EmailClaim) == "" {
		a.OAuth.EmailClaim = "email"
	}
	a.DevAuth.Email = strings.TrimSpace(a.DevAuth.Email)
}

// Validate checks the settings required by the selected mode.
func (a *AuthConfig) Validate() error {
	switch a.Mode {
	case AuthModeOAuth:
		var errs []error
		if a.OAuth.ClientID == "" {
			errs = append(errs, errors.New("OAUTH_CLIENT_ID is required when AUTH_MODE=oauth"))
		}
		if a.OAuth.ClientSecret == "" {
			errs = append(errs, errors.New("OAUTH_CLIENT_SECRET is required when AUTH_MODE=oauth"))
		}
		if a.OAuth.RedirectURL == "" {
			errs = append(errs, errors.New("OAUTH_REDIRECT_URL is required when AUTH_MODE=oauth"))
		}
		return errors.Join(errs...)
	case AuthModeMock:
		if a.DevAuth.Email == "" {
			return errors.New("DEV_AUTH_EMAIL is required when AUTH_MODE=mock")
		}
		return nil
	default:
		return fmt.Errorf("unknown auth mode %q", a.Mode)
	}
}
