package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.

import (
	"bytes"
	"time"
)

// Credential is the local credential material of an Identity.
// The zero value is NoLocalCredential: the account can only authenticate through a federated provider.
type Credential struct {
	hash []byte
}

// NoLocalCredential returns the credential of a federated-provisioned account.
func NoLocalCredential() Credential { return Credential{} }

// HashedCredential wraps a stored password hash. An empty hash yields NoLocalCredential.
func HashedCredential(hash []byte) Credential {
	if len(hash) == 0 {
		return Credential{}
	}
	return Credential{hash: append([]byte(nil), hash...)}
}

// IsLocal reports whether the credential carries a password hash.
func (c Credential) IsLocal() bool { return len(c.hash) > 0 }

// Hash returns a copy of the stored hash, or nil for NoLocalCredential.
func (c Credential) Hash() []byte {
	if !c.IsLocal() {
		return nil
	}
	return append([]byte(nil), c.hash...)
}

// Equal reports whether two credentials hold the same material.
func (c Credential) Equal(other Credential) bool { return bytes.Equal(c.hash, other.hash) }

// Identity is one user account. Email is the primary key and is compared exactly as stored.
type Identity struct {
	Email      string
	Credential Credential
	Secret     *string
	CreatedAt  time.Time
}

// HasSecret reports whether the identity has submitted a secret.
func (i Identity) HasSecret() bool { return i.Secret != nil && *i.Secret != "" }

// Profile is the verified result of a federated login, mapped from provider claims.
type Profile struct {
	Provider string
	Subject  string
	Email    string
	Name     string
}

// Session is the server-side record we persist for an authenticated browser context.
// It references the identity by key; the identity itself is re-read on every restore.
type Session struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Method    Method    `json:"method"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session has passed its absolute lifetime at now.
func (s Session) Expired(now time.Time) bool { return !now.Before(s.ExpiresAt) }

// Method records how a session was established.
type Method string

const (
	MethodLocal     Method = "local"
	MethodFederated Method = "federated"
)
