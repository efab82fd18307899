package service

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"unicode/utf8"

	domainauth "github.com/flixbase/authsvc/internal/domain/auth"
	apperrors "github.com/flixbase/authsvc/internal/errors"
	"github.com/flixbase/authsvc/internal/ports"
)

const (
	minNameLength     = 3
	minPasswordLength = 8

	// bearerScheme is the fixed 7-character marker that prefixes the token in
	// the Authorization header.
	bearerScheme = "Bearer "
)

// StoreOptions groups the persistence dependencies for AuthService.
type StoreOptions struct {
	Users    ports.UserRepository
	Sessions ports.SessionStore
}

// CryptoOptions groups the cryptographic dependencies for AuthService.
type CryptoOptions struct {
	Hasher ports.PasswordHasher
	Tokens ports.TokenService
}

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Stores StoreOptions
	Crypto CryptoOptions
}

// AuthService orchestrates account and session lifecycle: registration,
// credential authentication, token issuance, logout, account deletion, admin
// promotion, and caller identification.
//
// The service holds no mutable state; all state lives in the user and session
// stores, and both identity invariants (unique email, one session per user)
// are enforced by those stores rather than by check-then-act logic here.
type AuthService struct {
	users    ports.UserRepository
	sessions ports.SessionStore
	hasher   ports.PasswordHasher
	tokens   ports.TokenService
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	if opts.Stores.Users == nil {
		panic("user repository is required")
	}
	if opts.Stores.Sessions == nil {
		panic("session store is required")
	}
	if opts.Crypto.Hasher == nil {
		panic("password hasher is required")
	}
	if opts.Crypto.Tokens == nil {
		panic("token service is required")
	}
	return &AuthService{
		users:    opts.Stores.Users,
		sessions: opts.Stores.Sessions,
		hasher:   opts.Crypto.Hasher,
		tokens:   opts.Crypto.Tokens,
	}
}

// RegisterInput carries the registration form fields.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register validates the input, creates the user with a hashed password, and
// returns the stored record with a freshly issued token attached.
//
// All violated validation rules are collected into a single error so a client
// sees every problem at once; storage is never touched when validation fails.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domainauth.User, error) {
	violations := map[string]string{}
	if utf8.RuneCountInString(in.Name) < minNameLength {
		violations["name"] = "Your username must be at least 3 characters long."
	}
	if utf8.RuneCountInString(in.Password) < minPasswordLength {
		violations["password"] = "Your password must be at least 8 characters long."
	}
	if len(violations) > 0 {
		return nil, apperrors.Validation("registration input is invalid", violations)
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "hash password")
	}

	user := &domainauth.User{
		Name:           in.Name,
		Email:          in.Email,
		HashedPassword: digest,
	}
	if err := s.users.Insert(ctx, user); err != nil {
		if apperrors.IsConflict(err) {
			return nil, apperrors.Conflict("A user with the given email already exists.")
		}
		return nil, s.asInternal(err, "insert user")
	}

	// Re-fetch to return the canonical stored copy.
	created, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, s.asInternal(err, "load created user")
	}

	token, err := s.tokens.Issue(created.Email)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "issue token")
	}
	created.AuthToken = token
	return created, nil
}

// Login authenticates the supplied credentials and, on success, issues a
// fresh token, upserts the user's single session to that token, and returns
// the user with the token attached.
//
// Contract: when Credentials carries a precomputed HashedPassword, the
// hash-to-hash comparison takes priority over plaintext verification. The
// plaintext path is only consulted when no hashed value is present.
func (s *AuthService) Login(ctx context.Context, creds domainauth.Credentials) (*domainauth.User, error) {
	stored, err := s.users.FindByEmail(ctx, creds.Email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NotFound("No user found. Please check the email address.")
		}
		return nil, s.asInternal(err, "find user")
	}

	if creds.HashedPassword != "" {
		if subtle.ConstantTimeCompare([]byte(creds.HashedPassword), []byte(stored.HashedPassword)) != 1 {
			return nil, apperrors.CredentialMismatch("The hashed password provided is not valid.")
		}
	} else if !s.hasher.Verify(creds.Password, stored.HashedPassword) {
		return nil, apperrors.CredentialMismatch("The password provided is not valid.")
	}

	token, err := s.tokens.Issue(stored.Email)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "issue token")
	}
	if err := s.sessions.Upsert(ctx, stored.Email, token); err != nil {
		return nil, s.asInternal(err, "upsert session")
	}

	stored.AuthToken = token
	return stored, nil
}

// Logout deletes the session for the given user. Logging out a user with no
// active session is a successful no-op.
func (s *AuthService) Logout(ctx context.Context, email string) error {
	if _, err := s.sessions.DeleteByUserID(ctx, email); err != nil {
		return s.asInternal(err, "delete session")
	}
	return nil
}

// Delete removes the account after verifying the re-supplied password against
// the stored hash, then removes the associated session. After both deletions
// it re-checks the stores and reports failure if either record still exists.
//
// Deleting an already-absent account is a successful no-op.
func (s *AuthService) Delete(ctx context.Context, email, password string) error {
	stored, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil
		}
		return s.asInternal(err, "find user")
	}

	if !s.hasher.Verify(password, stored.HashedPassword) {
		return apperrors.CredentialMismatch("Provided password does not match user password.")
	}

	if _, err := s.users.Delete(ctx, email); err != nil {
		return s.asInternal(err, "delete user")
	}
	if _, err := s.sessions.DeleteByUserID(ctx, email); err != nil {
		return s.asInternal(err, "delete session")
	}

	return s.checkDeleteConverged(ctx, email)
}

// checkDeleteConverged verifies that neither the user nor the session record
// can still be found after deletion.
func (s *AuthService) checkDeleteConverged(ctx context.Context, email string) error {
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return apperrors.Internal("User deletion was unsuccessful.")
	} else if !apperrors.IsNotFound(err) {
		return s.asInternal(err, "verify user deletion")
	}
	if _, err := s.sessions.FindByUserID(ctx, email); err == nil {
		return apperrors.Internal("User deletion was unsuccessful.")
	} else if !apperrors.IsNotFound(err) {
		return s.asInternal(err, "verify session deletion")
	}
	return nil
}

// PromoteInput carries the full user data required for admin promotion.
// Exactly one of Password or HashedPassword must be set; when both are
// present the hashed value wins, mirroring the Login contract.
type PromoteInput struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Password       string `json:"password,omitempty"`
	HashedPassword string `json:"hashedPassword,omitempty"`
}

// PromoteToAdmin overwrites the user record with is_admin set, then performs
// a full login for the promoted identity so the caller receives a fresh
// authenticated session in one round trip.
//
// The overwrite is an upsert on the email key: uniqueness is enforced on the
// promote path exactly as on registration, so promotion can never leave two
// records for the same email.
func (s *AuthService) PromoteToAdmin(ctx context.Context, in PromoteInput) (*domainauth.User, error) {
	if in.Email == "" {
		return nil, apperrors.Validation("promotion input is invalid", map[string]string{
			"email": "Email is required.",
		})
	}

	digest := in.HashedPassword
	if digest == "" {
		if in.Password == "" {
			return nil, apperrors.Validation("promotion input is invalid", map[string]string{
				"password": "A password or password hash is required.",
			})
		}
		var err error
		digest, err = s.hasher.Hash(in.Password)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "hash password")
		}
	}

	admin := &domainauth.User{
		Name:           in.Name,
		Email:          in.Email,
		HashedPassword: digest,
		IsAdmin:        true,
	}
	if err := s.users.Upsert(ctx, admin); err != nil {
		return nil, s.asInternal(err, "upsert admin user")
	}

	return s.Login(ctx, domainauth.Credentials{
		Email:          in.Email,
		Password:       in.Password,
		HashedPassword: in.HashedPassword,
	})
}

// FindByEmail returns the stored user record for the given email.
func (s *AuthService) FindByEmail(ctx context.Context, email string) (*domainauth.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, err
		}
		return nil, s.asInternal(err, "find user")
	}
	return user, nil
}

// Identify extracts the bearer token from the request's Authorization header,
// validates it, and returns the embedded email claim. This is the sole
// authorization gate for operations that bind to the caller's own account.
//
// Note: validation is purely cryptographic. A token remains valid until its
// natural expiry even after logout; logout only clears the session-lookup
// record (see SessionStore).
//
// Distinct failures: missing header, non-bearer header, token validation
// errors (themselves distinguishable), and a token without an email claim.
func (s *AuthService) Identify(r *http.Request) (string, error) {
	values, ok := r.Header["Authorization"]
	if !ok || len(values) == 0 {
		return "", apperrors.Unauthorized("missing authorization header")
	}

	header := values[0]
	if len(header) < len(bearerScheme) || !strings.EqualFold(header[:len(bearerScheme)], bearerScheme) {
		return "", apperrors.Unauthorized("authorization header is not a bearer token")
	}

	email, err := s.tokens.Validate(header[len(bearerScheme):])
	if err != nil {
		return "", err
	}
	return email, nil
}

// asInternal converts unexpected storage errors into the internal error kind,
// preserving already-typed application errors. Raw low-level errors never
// cross the service boundary.
func (s *AuthService) asInternal(err error, op string) error {
	if code := apperrors.GetCode(err); code != "" {
		return err
	}
	return apperrors.Wrap(err, apperrors.ErrCodeInternal, op)
}
