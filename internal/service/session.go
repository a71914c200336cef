package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/target/secretshare/internal/domain/auth"
	"github.com/target/secretshare/internal/ports"
)

// DefaultSessionTTL is the absolute session lifetime.
const DefaultSessionTTL = 24 * time.Hour

// Session restore outcomes, used for metrics and SessionRestoreError reasons.
const (
	RestoreOK              = "ok"
	RestoreMissing         = "missing"
	RestoreUnknown         = "unknown"
	RestoreExpired         = "expired"
	RestoreStoreError      = "store_error"
	RestoreIdentityMissing = "identity_missing"
	RestoreRegistryError   = "registry_error"
)

// SessionManagerOptions groups dependencies for SessionManager.
type SessionManagerOptions struct {
	Store    ports.SessionStore
	Registry ports.IdentityRegistry
	TTL      time.Duration
	Metrics  ports.AuthMetrics
	Logger   *slog.Logger
	// Now overrides the clock in tests.
	Now func() time.Time
}

// SessionManager issues opaque session tokens and resolves them back to identities.
// Sessions hold only the identity key; Restore re-reads the identity on every call.
type SessionManager struct {
	store    ports.SessionStore
	registry ports.IdentityRegistry
	ttl      time.Duration
	metrics  ports.AuthMetrics
	logger   *slog.Logger
	now      func() time.Time
}

// NewSessionManager constructs a SessionManager.
func NewSessionManager(opts SessionManagerOptions) *SessionManager {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	m := opts.Metrics
	if m == nil {
		m = ports.NopMetrics{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &SessionManager{
		store:    opts.Store,
		registry: opts.Registry,
		ttl:      ttl,
		metrics:  m,
		logger:   logger.With("component", "sessions"),
		now:      now,
	}
}

// TTL returns the configured session lifetime.
func (m *SessionManager) TTL() time.Duration { return m.ttl }

// Create persists a new session for ident and returns it.
func (m *SessionManager) Create(
	ctx context.Context,
	ident *domainauth.Identity,
	method domainauth.Method,
) (domainauth.Session, error) {
	if ident == nil || ident.Email == "" {
		return domainauth.Session{}, errors.New("identity is required")
	}
	now := m.now().UTC()
	sess := domainauth.Session{
		ID:        generateSessionID(),
		Email:     ident.Email,
		Method:    method,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.store.Save(ctx, sess); err != nil {
		return domainauth.Session{}, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

// Restore resolves token to its session and the current state of the referenced identity.
// Unknown, expired and orphaned tokens yield *domainauth.SessionRestoreError; registry faults pass through.
func (m *SessionManager) Restore(
	ctx context.Context,
	token string,
) (*domainauth.Identity, *domainauth.Session, error) {
	if token == "" {
		return nil, nil, m.restoreFailed(RestoreMissing, nil)
	}

	sess, err := m.store.Get(ctx, token)
	if err != nil {
		if errors.Is(err, domainauth.ErrSessionNotFound) {
			return nil, nil, m.restoreFailed(RestoreUnknown, nil)
		}
		m.logger.WarnContext(ctx, "session store read failed", slog.Any("error", err))
		return nil, nil, m.restoreFailed(RestoreStoreError, err)
	}

	if sess.Expired(m.now()) {
		m.discard(ctx, token)
		return nil, nil, m.restoreFailed(RestoreExpired, nil)
	}

	ident, err := m.registry.FindByEmail(ctx, sess.Email)
	if err != nil {
		m.metrics.SessionRestore(RestoreRegistryError)
		return nil, nil, fmt.Errorf("load session identity: %w", err)
	}
	if ident == nil {
		m.discard(ctx, token)
		return nil, nil, m.restoreFailed(RestoreIdentityMissing, nil)
	}

	m.metrics.SessionRestore(RestoreOK)
	return ident, &sess, nil
}

// Destroy removes the session behind token. An empty token is a no-op.
func (m *SessionManager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := m.store.Delete(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (m *SessionManager) restoreFailed(reason string, cause error) error {
	m.metrics.SessionRestore(reason)
	return &domainauth.SessionRestoreError{Reason: reason, Err: cause}
}

func (m *SessionManager) discard(ctx context.Context, token string) {
	if err := m.store.Delete(ctx, token); err != nil {
		m.logger.WarnContext(ctx, "delete stale session failed", slog.Any("error", err))
	}
}

// generateSessionID creates a random session ID.
func generateSessionID() string {
	// UUIDv4 is URL-safe and carries 122 bits of entropy.
	return uuid.New().String()
}
