package auth

// Package auth contains domain-level types for accounts and sessions.
// It is pure and free of framework/adapter concerns.

import "time"

// User is the persisted identity record, keyed by email.
//
// AuthToken is transient: it is attached to in-memory responses after a
// successful login or registration and is never persisted.
type User struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	HashedPassword string `json:"-"`
	IsAdmin        bool   `json:"isAdmin"`
	AuthToken      string `json:"authToken,omitempty"`
}

// Session binds a user identity to their currently recognized bearer token.
// At most one session exists per UserID; a new login overwrites the prior one.
type Session struct {
	UserID string `json:"user_id"`
	Token  string `json:"token"`
}

// Claims is the set of facts embedded in an issued bearer token. The token
// itself carries them as registered JWT claims; this struct is the decoded,
// transport-free view.
type Claims struct {
	Issuer    string
	Audience  string
	Email     string
	NotBefore time.Time
	ExpiresAt time.Time
}

// Credentials carries the login input. Exactly one of Password or
// HashedPassword is expected; when both are present the hashed value takes
// priority (documented contract, see AuthService.Login).
type Credentials struct {
	Email          string `json:"email"`
	Password       string `json:"password,omitempty"`
	HashedPassword string `json:"hashedPassword,omitempty"`
}

// AuthResult is the transient outcome wrapper returned by mutating
// operations. It is never persisted.
type AuthResult struct {
	Success bool   `json:"success"`
	User    *User  `json:"user,omitempty"`
	Error   string `json:"error,omitempty"`
}

// OK builds a successful AuthResult carrying the user payload.
func OK(u *User) AuthResult {
	return AuthResult{Success: true, User: u}
}

// Failure builds a failed AuthResult with a human-readable message.
func Failure(message string) AuthResult {
	return AuthResult{Success: false, Error: message}
}
