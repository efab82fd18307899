package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"sync"

	domainauth "github.com/flixbase/authsvc/internal/domain/auth"
	apperrors "github.com/flixbase/authsvc/internal/errors"
	"github.com/flixbase/authsvc/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.UserRepository = (*MemoryUserRepo)(nil)
	_ ports.SessionStore   = (*MemorySessionStore)(nil)
)

// MemoryUserRepo is an in-memory user repository. Like the real store, it
// enforces email uniqueness on the insert path and overwrites on upsert.
type MemoryUserRepo struct {
	mu    sync.Mutex
	users map[string]domainauth.User
}

// NewMemoryUserRepo creates an empty in-memory user repository.
func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{users: make(map[string]domainauth.User)}
}

func (r *MemoryUserRepo) FindByEmail(_ context.Context, email string) (*domainauth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[email]
	if !ok {
		return nil, apperrors.NotFoundf("no user found for email %s", email)
	}
	copied := u
	return &copied, nil
}

func (r *MemoryUserRepo) Insert(_ context.Context, user *domainauth.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.Email]; ok {
		return apperrors.Conflict("This value already exists. Please choose a different one.")
	}
	stored := *user
	stored.AuthToken = ""
	r.users[user.Email] = stored
	return nil
}

func (r *MemoryUserRepo) Upsert(_ context.Context, user *domainauth.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *user
	stored.AuthToken = ""
	r.users[user.Email] = stored
	return nil
}

func (r *MemoryUserRepo) Delete(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.users[email]
	delete(r.users, email)
	return ok, nil
}

// Count reports how many records exist, regardless of email.
func (r *MemoryUserRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

// MemorySessionStore is an in-memory session store keyed by user id, so the
// one-session-per-user invariant holds by construction.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]domainauth.Session
}

// NewMemorySessionStore creates an empty in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]domainauth.Session)}
}

func (s *MemorySessionStore) Upsert(_ context.Context, userID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = domainauth.Session{UserID: userID, Token: token}
	return nil
}

func (s *MemorySessionStore) FindByUserID(_ context.Context, userID string) (domainauth.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return domainauth.Session{}, apperrors.NotFoundf("no session for user %s", userID)
	}
	return sess, nil
}

func (s *MemorySessionStore) DeleteByUserID(_ context.Context, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[userID]
	delete(s.sessions, userID)
	return ok, nil
}

// Count reports how many sessions exist across all users.
func (s *MemorySessionStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
