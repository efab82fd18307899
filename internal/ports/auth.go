package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters and internal/data; orchestration
// in internal/service.

import (
	"context"

	domainauth "github.com/flixbase/authsvc/internal/domain/auth"
)

// UserRepository persists user records keyed by unique email.
//
// Email uniqueness is enforced by the storage layer (unique-key constraint),
// not by check-then-act: Insert reports a conflict when the email exists, and
// Upsert performs a last-write-wins overwrite on the email key.
type UserRepository interface {
	// FindByEmail returns the user for the given email, or a not-found error.
	FindByEmail(ctx context.Context, email string) (*domainauth.User, error)

	// Insert stores a new user. A duplicate email yields a conflict error.
	Insert(ctx context.Context, user *domainauth.User) error

	// Upsert stores the user, overwriting any existing record for the same
	// email. Used by admin promotion so the uniqueness invariant holds
	// uniformly across insert and promote paths.
	Upsert(ctx context.Context, user *domainauth.User) error

	// Delete removes the user for the given email. It is idempotent and
	// reports whether a record existed and was removed.
	Delete(ctx context.Context, email string) (bool, error)
}

// SessionStore persists at most one active session per user.
type SessionStore interface {
	// Upsert creates the session for userID if absent, else overwrites the
	// token of the existing session. The one-session-per-user invariant is
	// enforced by upsert-on-key, not insert.
	Upsert(ctx context.Context, userID, token string) error

	// FindByUserID returns the active session for userID, or a not-found error.
	FindByUserID(ctx context.Context, userID string) (domainauth.Session, error)

	// DeleteByUserID removes the session for userID. It is idempotent and
	// reports whether a session existed.
	DeleteByUserID(ctx context.Context, userID string) (bool, error)
}

// PasswordHasher produces and verifies one-way, salted password digests.
// The digest embeds its salt and parameters so verification needs no side
// channel.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)

	// Verify reports whether plaintext matches the digest. A malformed digest
	// yields false, never a panic.
	Verify(plaintext, digest string) bool
}

// TokenService issues and validates signed bearer tokens carrying an email
// identity claim.
type TokenService interface {
	// Issue produces a signed, self-contained token for the given email.
	Issue(email string) (string, error)

	// Validate checks signature, issuer, audience, and validity window, and
	// returns the embedded email claim. Failures are distinguishable:
	// malformed, expired, bad signature, and claim mismatch map to distinct
	// error codes.
	Validate(token string) (string, error)
}
