package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	domainauth "github.com/target/secretshare/internal/domain/auth"
	"github.com/target/secretshare/internal/ports"
)

// Outcome labels recorded through ports.AuthMetrics.
const (
	OutcomeSuccess   = "success"
	OutcomeDuplicate = "duplicate"
	OutcomeInvalid   = "invalid"
	OutcomeError     = "error"
	OutcomeDenied    = "denied"
)

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Local     *LocalAuthenticator
	Federated *FederatedAuthenticator
	Sessions  *SessionManager
	Provider  ports.FederatedProvider
	Metrics   ports.AuthMetrics
	Logger    *slog.Logger
}

// AuthService orchestrates the local and federated login flows and hands verified identities to the session manager.
type AuthService struct {
	local     *LocalAuthenticator
	federated *FederatedAuthenticator
	sessions  *SessionManager
	provider  ports.FederatedProvider
	metrics   ports.AuthMetrics
	logger    *slog.Logger
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	m := opts.Metrics
	if m == nil {
		m = ports.NopMetrics{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		local:     opts.Local,
		federated: opts.Federated,
		sessions:  opts.Sessions,
		provider:  opts.Provider,
		metrics:   m,
		logger:    logger.With("component", "auth"),
	}
}

// LoginResult is a verified identity and the session issued for it.
type LoginResult struct {
	Identity *domainauth.Identity
	Session  domainauth.Session
}

// Register creates a local identity and logs it in.
func (s *AuthService) Register(ctx context.Context, creds LocalCredentials) (*LoginResult, error) {
	ident, err := s.local.Register(ctx, creds)
	if err != nil {
		s.metrics.Registration(registrationOutcome(err))
		return nil, err
	}
	s.metrics.Registration(OutcomeSuccess)

	sess, err := s.sessions.Create(ctx, ident, domainauth.MethodLocal)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Identity: ident, Session: sess}, nil
}

// LoginLocal verifies an email/password pair and issues a session.
// Rejections are returned as *domainauth.Rejection so callers can treat them uniformly.
func (s *AuthService) LoginLocal(ctx context.Context, email, password string) (*LoginResult, error) {
	ident, err := s.local.Authenticate(ctx, email, password)
	if err != nil {
		if reason, ok := domainauth.RejectionReason(err); ok {
			s.metrics.LoginAttempt(domainauth.MethodLocal, string(reason))
			s.logger.InfoContext(ctx, "local login rejected", slog.String("reason", string(reason)))
			return nil, err
		}
		s.metrics.LoginAttempt(domainauth.MethodLocal, OutcomeError)
		return nil, err
	}

	sess, err := s.sessions.Create(ctx, ident, domainauth.MethodLocal)
	if err != nil {
		s.metrics.LoginAttempt(domainauth.MethodLocal, OutcomeError)
		return nil, err
	}
	s.metrics.LoginAttempt(domainauth.MethodLocal, OutcomeSuccess)
	return &LoginResult{Identity: ident, Session: sess}, nil
}

// BeginLoginResult contains the result of beginning a federated login flow.
type BeginLoginResult struct {
	AuthURL string
	State   string
	Nonce   string
}

// BeginFederatedLogin returns the provider auth URL with state and nonce.
func (s *AuthService) BeginFederatedLogin(ctx context.Context, redirectURL string) (*BeginLoginResult, error) {
	if redirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}

	authURL, state, nonce, err := s.provider.Begin(ctx, ports.BeginInput{RedirectURL: redirectURL})
	if err != nil {
		return nil, &domainauth.ProviderError{Op: "begin", Err: err}
	}

	return &BeginLoginResult{
		AuthURL: authURL,
		State:   state,
		Nonce:   nonce,
	}, nil
}

// CompleteLoginInput groups parameters for completing a federated login flow.
type CompleteLoginInput struct {
	Code  string
	State string
	Nonce string
}

// CompleteFederatedLogin exchanges the authorization code for a profile, maps it to an identity and issues a session.
func (s *AuthService) CompleteFederatedLogin(ctx context.Context, input CompleteLoginInput) (*LoginResult, error) {
	if input.Code == "" {
		return nil, s.denied(ctx, errors.New("authorization code is required"))
	}
	if input.State == "" {
		return nil, s.denied(ctx, errors.New("state parameter is required"))
	}
	if input.Nonce == "" {
		return nil, s.denied(ctx, errors.New("nonce parameter is required"))
	}

	profile, err := s.provider.Exchange(ctx, ports.ExchangeInput{
		Code:  input.Code,
		State: input.State,
		Nonce: input.Nonce,
	})
	if err != nil {
		return nil, s.denied(ctx, err)
	}

	ident, err := s.federated.Authenticate(ctx, profile)
	if err != nil {
		var pe *domainauth.ProviderError
		if errors.As(err, &pe) {
			return nil, s.denied(ctx, err)
		}
		s.metrics.LoginAttempt(domainauth.MethodFederated, OutcomeError)
		return nil, err
	}

	sess, err := s.sessions.Create(ctx, ident, domainauth.MethodFederated)
	if err != nil {
		s.metrics.LoginAttempt(domainauth.MethodFederated, OutcomeError)
		return nil, err
	}
	s.metrics.LoginAttempt(domainauth.MethodFederated, OutcomeSuccess)
	return &LoginResult{Identity: ident, Session: sess}, nil
}

func (s *AuthService) denied(ctx context.Context, err error) error {
	s.metrics.LoginAttempt(domainauth.MethodFederated, OutcomeDenied)
	s.logger.InfoContext(ctx, "federated login denied", slog.Any("error", err))
	var pe *domainauth.ProviderError
	if errors.As(err, &pe) {
		return err
	}
	return &domainauth.ProviderError{Op: "exchange", Err: err}
}

// Restore resolves a session token to the current identity. See SessionManager.Restore.
func (s *AuthService) Restore(ctx context.Context, token string) (*domainauth.Identity, *domainauth.Session, error) {
	return s.sessions.Restore(ctx, token)
}

// IsAuthenticated reports whether token is backed by a live session and an existing identity.
func (s *AuthService) IsAuthenticated(ctx context.Context, token string) bool {
	ident, _, err := s.sessions.Restore(ctx, token)
	return err == nil && ident != nil
}

// Logout removes a session.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Destroy(ctx, token); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// SessionMaxAge returns the session lifetime in seconds, for cookie MaxAge.
func (s *AuthService) SessionMaxAge() int { return int(s.sessions.TTL().Seconds()) }

func registrationOutcome(err error) string {
	switch {
	case errors.Is(err, domainauth.ErrEmailTaken):
		return OutcomeDuplicate
	case domainauth.IsBackendError(err):
		return OutcomeError
	default:
		return OutcomeInvalid
	}
}
