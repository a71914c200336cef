// Package oidc implements ports.FederatedProvider against an OpenID Connect identity provider (Google by default).
package oidc

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	jmespath "github.com/jmespath-community/go-jmespath"
	"golang.org/x/oauth2"

	domainauth "github.com/target/secretshare/internal/domain/auth"
	"github.com/target/secretshare/internal/ports"
)

// Defaults for Google sign-in.
const (
	GoogleIssuer      = "https://accounts.google.com"
	DefaultScope      = "openid profile email"
	DefaultEmailClaim = "email"
	DefaultName       = "google"
)

var (
	errEmailUnverified = errors.New("provider reports email as unverified")
	errNoEmail         = errors.New("no email claim in id_token or userinfo")
)

// Provider implements ports.FederatedProvider using OIDC/OAuth2.
type Provider struct {
	name       string
	config     *oauth2.Config
	emailClaim string
	httpClient *http.Client

	oidcProvider *gooidc.Provider
	verifier     *gooidc.IDTokenVerifier
}

var _ ports.FederatedProvider = (*Provider)(nil)

// ProviderConfig holds configuration for the OIDC provider.
type ProviderConfig struct {
	// Name labels profiles produced by this provider. Defaults to "google".
	Name         string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scope        string
	// DiscoveryURL is the issuer or its .well-known/openid-configuration URL. Defaults to Google.
	DiscoveryURL string
	// EmailClaim is a JMESPath expression selecting the email from the claim set.
	EmailClaim string
	HTTPClient *http.Client // Optional, defaults to a client with a 30s timeout
}

// DiscoveryDocument represents the OIDC discovery document.
type DiscoveryDocument struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	UserinfoEndpoint      string `json:"userinfo_endpoint"`
	JwksURI               string `json:"jwks_uri"`
}

// NewProvider creates a new OIDC provider. It fetches the discovery document once.
func NewProvider(ctx context.Context, config ProviderConfig) (*Provider, error) {
	if config.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if config.ClientSecret == "" {
		return nil, errors.New("client secret is required")
	}
	if config.RedirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}

	emailClaim := strings.TrimSpace(config.EmailClaim)
	if emailClaim == "" {
		emailClaim = DefaultEmailClaim
	}
	if _, err := jmespath.Compile(emailClaim); err != nil {
		return nil, fmt.Errorf("invalid email claim expression %q: %w", emailClaim, err)
	}

	discovery := config.DiscoveryURL
	if discovery == "" {
		discovery = GoogleIssuer
	}
	scope := config.Scope
	if strings.TrimSpace(scope) == "" {
		scope = DefaultScope
	}
	name := config.Name
	if name == "" {
		name = DefaultName
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	issuer := strings.TrimSuffix(discovery, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
	op, err := gooidc.NewProvider(gooidc.ClientContext(ctx, httpClient), issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc new provider: %w", err)
	}

	return &Provider{
		name: name,
		config: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			RedirectURL:  config.RedirectURL,
			Scopes:       strings.Fields(scope),
			Endpoint:     op.Endpoint(),
		},
		emailClaim:   emailClaim,
		httpClient:   httpClient,
		oidcProvider: op,
		verifier:     op.Verifier(&gooidc.Config{ClientID: config.ClientID}),
	}, nil
}

func (p *Provider) Begin(_ context.Context, in ports.BeginInput) (string, string, string, error) {
	if in.RedirectURL == "" {
		return "", "", "", errors.New("redirect URL is required")
	}

	state, err := generateRandomString(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := generateRandomString(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}

	// redirect_uri comes from config and must match the registered callback exactly.
	authURL := p.config.AuthCodeURL(state,
		oauth2.SetAuthURLParam("nonce", nonce),
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)
	return authURL, state, nonce, nil
}

func (p *Provider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Profile, error) {
	if in.Code == "" {
		return domainauth.Profile{}, errors.New("authorization code is required")
	}
	if in.State == "" {
		return domainauth.Profile{}, errors.New("state is required")
	}
	if in.Nonce == "" {
		return domainauth.Profile{}, errors.New("nonce is required")
	}

	ctx = gooidc.ClientContext(ctx, p.httpClient)
	token, err := p.config.Exchange(ctx, in.Code)
	if err != nil {
		return domainauth.Profile{}, fmt.Errorf("exchange code for token: %w", err)
	}

	claims, err := p.verifiedClaims(ctx, token, in.Nonce)
	if err != nil {
		return domainauth.Profile{}, err
	}

	profile, err := p.profileFromClaims(claims)
	if errors.Is(err, errNoEmail) {
		claims, err = p.userInfoClaims(ctx, token)
		if err != nil {
			return domainauth.Profile{}, err
		}
		profile, err = p.profileFromClaims(claims)
	}
	if err != nil {
		return domainauth.Profile{}, err
	}
	return profile, nil
}

func (p *Provider) verifiedClaims(ctx context.Context, tok *oauth2.Token, expectedNonce string) (map[string]any, error) {
	rawID, err := getIDTokenFromToken(tok)
	if err != nil {
		return nil, err
	}
	idTok, err := p.verifier.Verify(ctx, rawID)
	if err != nil {
		return nil, fmt.Errorf("verify id_token: %w", err)
	}
	if idTok.Nonce != expectedNonce {
		return nil, errors.New("invalid nonce")
	}
	claims := map[string]any{}
	if err := idTok.Claims(&claims); err != nil {
		return nil, fmt.Errorf("parse id_token claims: %w", err)
	}
	return claims, nil
}

func (p *Provider) userInfoClaims(ctx context.Context, tok *oauth2.Token) (map[string]any, error) {
	ui, err := p.oidcProvider.UserInfo(ctx, oauth2.StaticTokenSource(tok))
	if err != nil {
		return nil, fmt.Errorf("fetch user info: %w", err)
	}
	claims := map[string]any{}
	if err := ui.Claims(&claims); err != nil {
		return nil, fmt.Errorf("decode user info: %w", err)
	}
	return claims, nil
}

// profileFromClaims maps a claim set to a Profile. The email is selected with the configured JMESPath expression.
func (p *Provider) profileFromClaims(claims map[string]any) (domainauth.Profile, error) {
	if verified, ok := claims["email_verified"]; ok && !isTruthy(verified) {
		return domainauth.Profile{}, errEmailUnverified
	}

	v, err := jmespath.Search(p.emailClaim, claims)
	if err != nil {
		return domainauth.Profile{}, fmt.Errorf("evaluate email claim: %w", err)
	}
	email := firstString(v)
	if email == "" {
		return domainauth.Profile{}, errNoEmail
	}

	sub, _ := claims["sub"].(string)
	name, _ := claims["name"].(string)
	return domainauth.Profile{
		Provider: p.name,
		Subject:  sub,
		Email:    email,
		Name:     name,
	}, nil
}

// firstString returns v as a string, or the first string in v when it is a list.
func firstString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

// isTruthy accepts both JSON booleans and the "true" string some providers send.
func isTruthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return strings.EqualFold(t, "true")
	default:
		return false
	}
}

// generateRandomString generates a cryptographically secure URL-safe random string of exact length.
func generateRandomString(length int) (string, error) {
	if length <= 0 {
		return "", nil
	}
	// Enough bytes for at least length base64 characters.
	b := make([]byte, (length*3+3)/4+1)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b)[:length], nil
}

// getIDTokenFromToken extracts the id_token from oauth2.Token.
func getIDTokenFromToken(tok *oauth2.Token) (string, error) {
	if tok == nil {
		return "", errors.New("nil token")
	}
	s, ok := tok.Extra("id_token").(string)
	if !ok || s == "" {
		return "", errors.New("missing id_token in token response")
	}
	return s, nil
}
