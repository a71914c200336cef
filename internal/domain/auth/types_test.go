package auth

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCredential_ZeroValueIsNoLocalCredential(t *testing.T) {
	var c Credential
	assert.False(t, c.IsLocal())
	assert.Nil(t, c.Hash())
	assert.True(t, c.Equal(NoLocalCredential()))
}

func TestHashedCredential(t *testing.T) {
	raw := []byte("$2a$10$abcdefghijklmnopqrstuv")
	c := HashedCredential(raw)
	assert.True(t, c.IsLocal())
	assert.Equal(t, raw, c.Hash())

	// Mutating the returned slice must not change the credential.
	h := c.Hash()
	h[0] = 'X'
	assert.Equal(t, raw, c.Hash())

	assert.False(t, HashedCredential(nil).IsLocal())
	assert.False(t, c.Equal(NoLocalCredential()))
}

func TestIdentity_HasSecret(t *testing.T) {
	empty := ""
	value := "hello"
	assert.False(t, Identity{}.HasSecret())
	assert.False(t, Identity{Secret: &empty}.HasSecret())
	assert.True(t, Identity{Secret: &value}.HasSecret())
}

func TestSession_Expired(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := Session{ExpiresAt: now.Add(time.Minute)}
	assert.False(t, s.Expired(now))
	assert.True(t, s.Expired(now.Add(time.Minute)))
	assert.True(t, s.Expired(now.Add(time.Hour)))
}

func TestRejectionReason(t *testing.T) {
	err := fmt.Errorf("login: %w", Reject(ReasonBadPassword))
	reason, ok := RejectionReason(err)
	assert.True(t, ok)
	assert.Equal(t, ReasonBadPassword, reason)
	assert.True(t, IsRejection(err))

	_, ok = RejectionReason(errors.New("boom"))
	assert.False(t, ok)
}

func TestIsBackendError(t *testing.T) {
	assert.True(t, IsBackendError(&RegistryError{Op: "find", Err: errors.New("down")}))
	assert.True(t, IsBackendError(fmt.Errorf("wrap: %w", &CredentialBackendError{Op: "hash", Err: errors.New("x")})))
	assert.False(t, IsBackendError(Reject(ReasonUserNotFound)))
	assert.False(t, IsBackendError(ErrEmailTaken))
}
