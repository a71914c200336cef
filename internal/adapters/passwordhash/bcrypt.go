// Package passwordhash implements ports.PasswordHasher with bcrypt.
package passwordhash

import (
	"context"
	"errors"
	"runtime"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"

	domainauth "github.com/target/secretshare/internal/domain/auth"
	"github.com/target/secretshare/internal/ports"
)

// DefaultCost is the bcrypt work factor used when none is configured.
const DefaultCost = 10

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// BcryptOptions configures a BcryptHasher.
type BcryptOptions struct {
	Cost int
	// MaxConcurrent bounds in-flight hash/compare operations. Defaults to GOMAXPROCS.
	MaxConcurrent int
	Metrics       ports.AuthMetrics
}

// BcryptHasher hashes and verifies passwords with bcrypt.
// It is safe for concurrent use.
type BcryptHasher struct {
	cost    int
	sem     *semaphore.Weighted
	metrics ports.AuthMetrics
}

var _ ports.PasswordHasher = (*BcryptHasher)(nil)

// NewBcryptHasher creates a BcryptHasher. Out-of-range costs fall back to DefaultCost.
func NewBcryptHasher(opts BcryptOptions) *BcryptHasher {
	cost := opts.Cost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	n := opts.MaxConcurrent
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	m := opts.Metrics
	if m == nil {
		m = ports.NopMetrics{}
	}
	return &BcryptHasher{cost: cost, sem: semaphore.NewWeighted(int64(n)), metrics: m}
}

// Cost returns the configured work factor.
func (h *BcryptHasher) Cost() int { return h.cost }

// Hash returns a salted bcrypt hash of plain.
func (h *BcryptHasher) Hash(ctx context.Context, plain string) ([]byte, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return nil, &domainauth.CredentialBackendError{Op: "hash", Err: err}
	}
	defer h.sem.Release(1)

	start := time.Now()
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	h.metrics.HashDuration("hash", time.Since(start))
	if err != nil {
		return nil, &domainauth.CredentialBackendError{Op: "hash", Err: err}
	}
	return hash, nil
}

// Verify reports whether plain matches hash. A mismatch is (false, nil); a malformed hash is an error.
func (h *BcryptHasher) Verify(ctx context.Context, plain string, hash []byte) (bool, error) {
	if len(hash) == 0 {
		return false, nil
	}
	// Hash never accepts these, so nothing stored can match.
	if len(plain) > MaxPasswordBytes {
		return false, nil
	}
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, &domainauth.CredentialBackendError{Op: "verify", Err: err}
	}
	defer h.sem.Release(1)

	start := time.Now()
	err := bcrypt.CompareHashAndPassword(hash, []byte(plain))
	h.metrics.HashDuration("verify", time.Since(start))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, &domainauth.CredentialBackendError{Op: "verify", Err: err}
	}
}
