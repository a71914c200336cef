// Package devauth provides a config-driven FederatedProvider for local development.
package devauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"

	domainauth "github.com/target/secretshare/internal/domain/auth"
	"github.com/target/secretshare/internal/ports"
)

// DefaultCallbackPath is where Begin sends the browser.
const DefaultCallbackPath = "/auth/google/secrets"

// Config controls the dev auth provider behavior.
type Config struct {
	Email        string
	Name         string
	CallbackPath string
}

// Provider implements ports.FederatedProvider for local development.
// It short-circuits the OAuth flow by redirecting straight back to our callback
// with locally generated state and nonce; Exchange returns the configured profile.
type Provider struct {
	profile      domainauth.Profile
	callbackPath string
}

var _ ports.FederatedProvider = (*Provider)(nil)

// NewProvider constructs a dev auth provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.Email == "" {
		return nil, errors.New("dev auth: Email is required")
	}
	cb := cfg.CallbackPath
	if cb == "" {
		cb = DefaultCallbackPath
	}
	return &Provider{
		profile: domainauth.Profile{
			Provider: "dev",
			Subject:  "dev:" + cfg.Email,
			Email:    cfg.Email,
			Name:     cfg.Name,
		},
		callbackPath: cb,
	}, nil
}

// Begin returns a local callback URL and random state and nonce.
func (p *Provider) Begin(_ context.Context, _ ports.BeginInput) (string, string, string, error) {
	state, err := randomString(24)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := randomString(24)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}
	q := url.Values{"code": {"dev"}, "state": {state}}
	return p.callbackPath + "?" + q.Encode(), state, nonce, nil
}

// Exchange ignores code/state/nonce (the handler validates state) and returns the dev profile.
func (p *Provider) Exchange(_ context.Context, _ ports.ExchangeInput) (domainauth.Profile, error) {
	return p.profile, nil
}

func randomString(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	b := make([]byte, (n*3+3)/4+1)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b)[:n], nil
}
