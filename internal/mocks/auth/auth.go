package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	domainauth "github.com/target/secretshare/internal/domain/auth"
	"github.com/target/secretshare/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.FederatedProvider = (*MockFederatedProvider)(nil)
	_ ports.SessionStore      = (*MemorySessionStore)(nil)
	_ ports.IdentityRegistry  = (*MemoryRegistry)(nil)
	_ ports.PasswordHasher    = (*PlainHasher)(nil)
)

// MockFederatedProvider simulates an IdP for tests with deterministic state/nonce handling.
type MockFederatedProvider struct {
	BeginFunc    func(ctx context.Context, in ports.BeginInput) (authURL, state, nonce string, err error)
	ExchangeFunc func(ctx context.Context, in ports.ExchangeInput) (domainauth.Profile, error)

	AuthURL        string
	DefaultProfile domainauth.Profile

	mu        sync.Mutex
	callCount int
}

// NewMockFederatedProvider creates a MockFederatedProvider with sensible defaults.
func NewMockFederatedProvider() *MockFederatedProvider {
	return &MockFederatedProvider{
		AuthURL: "https://mock-idp/auth",
		DefaultProfile: domainauth.Profile{
			Provider: "mock",
			Subject:  "mock-subject-1",
			Email:    "mock.user@example.com",
			Name:     "Mock User",
		},
	}
}

func (m *MockFederatedProvider) Begin(ctx context.Context, in ports.BeginInput) (string, string, string, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx, in)
	}

	m.mu.Lock()
	m.callCount++
	n := m.callCount
	m.mu.Unlock()

	authURL := m.AuthURL
	if authURL == "" {
		authURL = "https://mock-idp/auth"
	}
	return authURL, fmt.Sprintf("state-%d", n), fmt.Sprintf("nonce-%d", n), nil
}

func (m *MockFederatedProvider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Profile, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, in)
	}
	return m.DefaultProfile, nil
}

// MemorySessionStore is an in-memory session store for unit tests.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]domainauth.Session
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]domainauth.Session),
	}
}

func (m *MemorySessionStore) Save(_ context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = sess
	return nil
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (domainauth.Session, error) {
	if id == "" {
		return domainauth.Session{}, domainauth.ErrSessionNotFound
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return domainauth.Session{}, domainauth.ErrSessionNotFound
	}
	return sess, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	if id == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Len returns the number of stored sessions.
func (m *MemorySessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// ErrNotFound is returned by mocks when an entity is not present.
var ErrNotFound = errors.New("not found")

// MemoryRegistry is an in-memory identity registry enforcing email uniqueness like the real store.
type MemoryRegistry struct {
	mu         sync.Mutex
	identities map[string]domainauth.Identity

	// Optional fault injection.
	FindErr   error
	CreateErr error
	SetErr    error
}

// NewMemoryRegistry creates an empty registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{identities: make(map[string]domainauth.Identity)}
}

func (m *MemoryRegistry) FindByEmail(_ context.Context, email string) (*domainauth.Identity, error) {
	if m.FindErr != nil {
		return nil, &domainauth.RegistryError{Op: "find", Err: m.FindErr}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ident, ok := m.identities[email]
	if !ok {
		return nil, nil
	}
	out := cloneIdentity(ident)
	return &out, nil
}

func (m *MemoryRegistry) Create(
	_ context.Context,
	email string,
	cred domainauth.Credential,
) (*domainauth.Identity, error) {
	if m.CreateErr != nil {
		return nil, &domainauth.RegistryError{Op: "create", Err: m.CreateErr}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.identities[email]; exists {
		return nil, domainauth.ErrEmailTaken
	}
	ident := domainauth.Identity{Email: email, Credential: cred, CreatedAt: time.Now().UTC()}
	m.identities[email] = ident
	out := cloneIdentity(ident)
	return &out, nil
}

func (m *MemoryRegistry) SetSecret(_ context.Context, email, secret string) error {
	if m.SetErr != nil {
		return &domainauth.RegistryError{Op: "set secret", Err: m.SetErr}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ident, ok := m.identities[email]
	if !ok {
		return &domainauth.RegistryError{Op: "set secret", Err: ErrNotFound}
	}
	s := secret
	ident.Secret = &s
	m.identities[email] = ident
	return nil
}

// Count returns how many identities exist for email (0 or 1).
func (m *MemoryRegistry) Count(email string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.identities[email]; ok {
		return 1
	}
	return 0
}

// Len returns the number of identities.
func (m *MemoryRegistry) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.identities)
}

func cloneIdentity(in domainauth.Identity) domainauth.Identity {
	out := in
	if in.Secret != nil {
		s := *in.Secret
		out.Secret = &s
	}
	return out
}

// PlainHasher is a fast, deterministic PasswordHasher for unit tests. It is NOT a real hash.
type PlainHasher struct {
	HashErr   error
	VerifyErr error
}

const plainPrefix = "plain:"

func (h *PlainHasher) Hash(_ context.Context, plain string) ([]byte, error) {
	if h.HashErr != nil {
		return nil, &domainauth.CredentialBackendError{Op: "hash", Err: h.HashErr}
	}
	return []byte(plainPrefix + plain), nil
}

func (h *PlainHasher) Verify(_ context.Context, plain string, hash []byte) (bool, error) {
	if h.VerifyErr != nil {
		return false, &domainauth.CredentialBackendError{Op: "verify", Err: h.VerifyErr}
	}
	if len(hash) == 0 {
		return false, nil
	}
	return bytes.Equal(hash, []byte(plainPrefix+plain)), nil
}
