package auth

import (
	"errors"
	"fmt"
)

// Reason is why a credential submission was rejected.
type Reason string

const (
	ReasonUserNotFound Reason = "USER_NOT_FOUND"
	ReasonBadPassword  Reason = "BAD_PASSWORD"
)

// Rejection is an expected, non-exceptional login outcome.
type Rejection struct {
	Reason Reason
}

func (r *Rejection) Error() string { return "credentials rejected: " + string(r.Reason) }

// Reject returns a Rejection for reason.
func Reject(reason Reason) error { return &Rejection{Reason: reason} }

// RejectionReason returns the rejection reason carried by err, if any.
func RejectionReason(err error) (Reason, bool) {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej.Reason, true
	}
	return "", false
}

// IsRejection reports whether err is a credential rejection.
func IsRejection(err error) bool {
	_, ok := RejectionReason(err)
	return ok
}

// ErrEmailTaken is returned when an identity with the same email already exists.
var ErrEmailTaken = errors.New("email already registered")

// ErrSessionNotFound is returned by session stores for unknown or evicted tokens.
var ErrSessionNotFound = errors.New("session not found")

// CredentialBackendError reports a failure of the hashing subsystem. It never means "no match".
type CredentialBackendError struct {
	Op  string
	Err error
}

func (e *CredentialBackendError) Error() string {
	return fmt.Sprintf("credential backend %s: %v", e.Op, e.Err)
}

func (e *CredentialBackendError) Unwrap() error { return e.Err }

// RegistryError reports a failure of the identity store: connectivity, constraint or malformed row.
type RegistryError struct {
	Op  string
	Err error
}

func (e *RegistryError) Error() string {
	return fmt.Sprintf("identity registry %s: %v", e.Op, e.Err)
}

func (e *RegistryError) Unwrap() error { return e.Err }

// SessionRestoreError reports a token that cannot be turned back into an identity.
// Callers treat it as "unauthenticated", not as a fault.
type SessionRestoreError struct {
	Reason string
	Err    error
}

func (e *SessionRestoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("restore session: %s: %v", e.Reason, e.Err)
	}
	return "restore session: " + e.Reason
}

func (e *SessionRestoreError) Unwrap() error { return e.Err }

// ProviderError reports a failed or denied federated login.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string { return fmt.Sprintf("identity provider %s: %v", e.Op, e.Err) }

func (e *ProviderError) Unwrap() error { return e.Err }

// IsBackendError reports whether err is a credential or registry backend fault.
func IsBackendError(err error) bool {
	var ce *CredentialBackendError
	var re *RegistryError
	return errors.As(err, &ce) || errors.As(err, &re)
}
