// Package redis provides Redis-backed adapters for secretshare.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	domainauth "github.com/target/secretshare/internal/domain/auth"
	"github.com/target/secretshare/internal/ports"
)

// DefaultKeyPrefix namespaces session keys.
const DefaultKeyPrefix = "secretshare:session:"

var (
	errSessionExpired   = errors.New("session is expired")
	errMalformedSession = errors.New("malformed session payload")
)

// SessionStore is a Redis-based session store.
// Keys expire with the session, so Redis evicts sessions without a sweeper.
type SessionStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

var _ ports.SessionStore = (*SessionStore)(nil)

// SessionStoreOptions configures a SessionStore.
type SessionStoreOptions struct {
	Prefix string
	// Now overrides the clock in tests.
	Now func() time.Time
}

// NewSessionStore creates a Redis session store using DefaultKeyPrefix.
func NewSessionStore(client redis.UniversalClient) *SessionStore {
	return NewSessionStoreWithOptions(client, SessionStoreOptions{})
}

// NewSessionStoreWithOptions creates a Redis session store with custom options.
func NewSessionStoreWithOptions(client redis.UniversalClient, opts SessionStoreOptions) *SessionStore {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &SessionStore{client: client, prefix: prefix, now: now}
}

func (s *SessionStore) key(id string) string { return s.prefix + id }

func (s *SessionStore) Save(ctx context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}

	ttl := sess.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return errSessionExpired
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	if err := s.client.Set(ctx, s.key(sess.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, id string) (domainauth.Session, error) {
	if id == "" {
		return domainauth.Session{}, domainauth.ErrSessionNotFound
	}

	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainauth.Session{}, domainauth.ErrSessionNotFound
		}
		return domainauth.Session{}, fmt.Errorf("redis get: %w", err)
	}

	var sess domainauth.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return domainauth.Session{}, fmt.Errorf("unmarshal session: %w", errors.Join(errMalformedSession, err))
	}
	if sess.ID != id || sess.Email == "" {
		return domainauth.Session{}, errMalformedSession
	}
	return sess, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

const scanBatch = 100

// Each calls fn for every stored session until fn returns an error.
// Keys that vanish mid-scan or hold malformed payloads are skipped.
func (s *SessionStore) Each(ctx context.Context, fn func(domainauth.Session) error) error {
	iter := s.client.Scan(ctx, 0, s.prefix+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		id := strings.TrimPrefix(iter.Val(), s.prefix)
		sess, err := s.Get(ctx, id)
		if err != nil {
			if errors.Is(err, domainauth.ErrSessionNotFound) || errors.Is(err, errMalformedSession) {
				continue
			}
			return err
		}
		if err := fn(sess); err != nil {
			return err
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}
	return nil
}

// DeleteByEmail revokes every session held by email and returns how many were removed.
// Emails are identity keys and compare exactly.
func (s *SessionStore) DeleteByEmail(ctx context.Context, email string) (int, error) {
	var ids []string
	err := s.Each(ctx, func(sess domainauth.Session) error {
		if sess.Email == email {
			ids = append(ids, sess.ID)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		if err := s.Delete(ctx, id); err != nil {
			return 0, err
		}
	}
	return len(ids), nil
}
