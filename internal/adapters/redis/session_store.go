package redis

// Package redis provides the Redis-backed session store. Sessions are keyed
// by user id, so a plain SET is the storage-level upsert that enforces the
// one-session-per-user invariant: two concurrent logins for the same user
// cannot race into two records.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domainauth "github.com/flixbase/authsvc/internal/domain/auth"
	apperrors "github.com/flixbase/authsvc/internal/errors"
)

const defaultPrefix = "session:"

// SessionStore persists at most one session per user in Redis.
// Session entries expire with the token validity window, so a session never
// outlives the cryptographic validity of the token it holds.
type SessionStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewSessionStore creates a Redis-based session store. ttl should match the
// configured token validity.
func NewSessionStore(client redis.UniversalClient, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client: client,
		prefix: defaultPrefix,
		ttl:    ttl,
	}
}

// NewSessionStoreWithPrefix creates a session store with a custom key prefix.
func NewSessionStoreWithPrefix(client redis.UniversalClient, prefix string, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Upsert creates the session for userID if absent, else overwrites the token
// of the existing session.
func (s *SessionStore) Upsert(ctx context.Context, userID, token string) error {
	if userID == "" {
		return errors.New("user ID cannot be empty")
	}

	sess := domainauth.Session{UserID: userID, Token: token}
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	if err := s.client.Set(ctx, s.prefix+userID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// FindByUserID returns the active session for userID, or a not-found error.
func (s *SessionStore) FindByUserID(ctx context.Context, userID string) (domainauth.Session, error) {
	if userID == "" {
		return domainauth.Session{}, apperrors.NotFound("no session for empty user id")
	}

	data, err := s.client.Get(ctx, s.prefix+userID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainauth.Session{}, apperrors.NotFoundf("no session for user %s", userID)
		}
		return domainauth.Session{}, fmt.Errorf("redis get: %w", err)
	}

	var sess domainauth.Session
	if unmarshalErr := json.Unmarshal([]byte(data), &sess); unmarshalErr != nil {
		return domainauth.Session{}, fmt.Errorf("unmarshal session: %w", unmarshalErr)
	}
	return sess, nil
}

// DeleteByUserID removes the session for userID and reports whether one
// existed. Deleting an absent session is a successful no-op.
func (s *SessionStore) DeleteByUserID(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}

	n, err := s.client.Del(ctx, s.prefix+userID).Result()
	if err != nil {
		return false, fmt.Errorf("redis del: %w", err)
	}
	return n > 0, nil
}
