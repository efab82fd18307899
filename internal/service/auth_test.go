package service

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xbcrypt "golang.org/x/crypto/bcrypt"

	"github.com/flixbase/authsvc/config"
	"github.com/flixbase/authsvc/internal/adapters/bcrypt"
	"github.com/flixbase/authsvc/internal/adapters/token"
	domainauth "github.com/flixbase/authsvc/internal/domain/auth"
	apperrors "github.com/flixbase/authsvc/internal/errors"
	mockauth "github.com/flixbase/authsvc/internal/mocks/auth"
)

type fixture struct {
	svc      *AuthService
	users    *mockauth.MemoryUserRepo
	sessions *mockauth.MemorySessionStore
	hasher   *bcrypt.Hasher
	tokens   *token.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	users := mockauth.NewMemoryUserRepo()
	sessions := mockauth.NewMemorySessionStore()
	hasher := bcrypt.NewHasherWithCost(xbcrypt.MinCost)
	tokens := token.NewService(config.TokenConfig{
		SecretKey: "service-test-secret",
		Issuer:    "authsvc-test",
		Audience:  "authsvc-test-clients",
		Validity:  time.Hour,
	})

	svc := NewAuthService(AuthServiceOptions{
		Stores: StoreOptions{Users: users, Sessions: sessions},
		Crypto: CryptoOptions{Hasher: hasher, Tokens: tokens},
	})
	return &fixture{svc: svc, users: users, sessions: sessions, hasher: hasher, tokens: tokens}
}

func (f *fixture) register(t *testing.T, name, email, password string) *domainauth.User {
	t.Helper()
	user, err := f.svc.Register(context.Background(), RegisterInput{
		Name:     name,
		Email:    email,
		Password: password,
	})
	require.NoError(t, err)
	return user
}

func TestNewAuthService_PanicsOnMissingDeps(t *testing.T) {
	assert.Panics(t, func() {
		NewAuthService(AuthServiceOptions{})
	})
}

func TestRegister_IssuesTokenWithoutSession(t *testing.T) {
	f := newFixture(t)

	user := f.register(t, "ann", "ann@x.com", "password1")

	assert.Equal(t, "ann", user.Name)
	assert.Equal(t, "ann@x.com", user.Email)
	assert.NotEmpty(t, user.AuthToken)
	assert.NotEqual(t, "password1", user.HashedPassword)
	assert.True(t, f.hasher.Verify("password1", user.HashedPassword))

	// The registration token identifies the user but opens no session.
	email, err := f.tokens.Validate(user.AuthToken)
	require.NoError(t, err)
	assert.Equal(t, "ann@x.com", email)
	assert.Equal(t, 0, f.sessions.Count())
}

func TestRegister_CollectsAllViolations(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Register(context.Background(), RegisterInput{
		Name:     "ab",
		Email:    "ann@x.com",
		Password: "short",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	fields := apperrors.GetFields(err)
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "password")

	// Validation failures never touch storage.
	assert.Equal(t, 0, f.users.Count())
}

func TestRegister_NameLengthCountsRunes(t *testing.T) {
	f := newFixture(t)

	// Three runes, more than three bytes.
	user := f.register(t, "äöü", "ann@x.com", "password1")
	assert.Equal(t, "äöü", user.Name)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.register(t, "ann", "ann@x.com", "password1")

	_, err := f.svc.Register(context.Background(), RegisterInput{
		Name:     "other",
		Email:    "ann@x.com",
		Password: "password2",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
	assert.Contains(t, err.Error(), "already exists")
	assert.Equal(t, 1, f.users.Count())
}

func TestLogin_CreatesSingleSession(t *testing.T) {
	f := newFixture(t)
	f.register(t, "ann", "ann@x.com", "password1")

	user, err := f.svc.Login(context.Background(), domainauth.Credentials{
		Email:    "ann@x.com",
		Password: "password1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, user.AuthToken)

	sess, err := f.sessions.FindByUserID(context.Background(), "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, user.AuthToken, sess.Token)
	assert.Equal(t, 1, f.sessions.Count())
}

func TestLogin_SecondLoginReplacesSession(t *testing.T) {
	f := newFixture(t)
	f.register(t, "ann", "ann@x.com", "password1")
	ctx := context.Background()

	creds := domainauth.Credentials{Email: "ann@x.com", Password: "password1"}

	first, err := f.svc.Login(ctx, creds)
	require.NoError(t, err)
	second, err := f.svc.Login(ctx, creds)
	require.NoError(t, err)

	// Still exactly one session, and it holds the latest token.
	assert.Equal(t, 1, f.sessions.Count())
	sess, err := f.sessions.FindByUserID(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, second.AuthToken, sess.Token)

	// The first token stays cryptographically valid until expiry.
	_, err = f.tokens.Validate(first.AuthToken)
	assert.NoError(t, err)
}

func TestLogin_UnknownEmail(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Login(context.Background(), domainauth.Credentials{
		Email:    "nobody@x.com",
		Password: "password1",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestLogin_WrongPassword(t *testing.T) {
	f := newFixture(t)
	f.register(t, "ann", "ann@x.com", "password1")

	_, err := f.svc.Login(context.Background(), domainauth.Credentials{
		Email:    "ann@x.com",
		Password: "password2",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCredentialMismatch(err))
	assert.Equal(t, 0, f.sessions.Count())
}

func TestLogin_HashedPasswordTakesPriority(t *testing.T) {
	f := newFixture(t)
	registered := f.register(t, "ann", "ann@x.com", "password1")
	ctx := context.Background()

	// A matching hash logs in even when the plaintext field is wrong.
	user, err := f.svc.Login(ctx, domainauth.Credentials{
		Email:          "ann@x.com",
		Password:       "definitely-wrong",
		HashedPassword: registered.HashedPassword,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, user.AuthToken)

	// A wrong hash fails even when the plaintext is correct.
	_, err = f.svc.Login(ctx, domainauth.Credentials{
		Email:          "ann@x.com",
		Password:       "password1",
		HashedPassword: "not-the-stored-hash",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCredentialMismatch(err))
}

func TestLogout_RemovesSessionAndIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.register(t, "ann", "ann@x.com", "password1")
	ctx := context.Background()

	_, err := f.svc.Login(ctx, domainauth.Credentials{Email: "ann@x.com", Password: "password1"})
	require.NoError(t, err)
	require.Equal(t, 1, f.sessions.Count())

	require.NoError(t, f.svc.Logout(ctx, "ann@x.com"))
	assert.Equal(t, 0, f.sessions.Count())

	// No active session left, still succeeds.
	require.NoError(t, f.svc.Logout(ctx, "ann@x.com"))

	// A user that never logged in can log out too.
	require.NoError(t, f.svc.Logout(ctx, "nobody@x.com"))
}

func TestLogout_DoesNotRevokeToken(t *testing.T) {
	f := newFixture(t)
	f.register(t, "ann", "ann@x.com", "password1")
	ctx := context.Background()

	user, err := f.svc.Login(ctx, domainauth.Credentials{Email: "ann@x.com", Password: "password1"})
	require.NoError(t, err)
	require.NoError(t, f.svc.Logout(ctx, "ann@x.com"))

	// Token validation is purely cryptographic; the session record is gone but
	// the token verifies until its natural expiry.
	email, err := f.tokens.Validate(user.AuthToken)
	require.NoError(t, err)
	assert.Equal(t, "ann@x.com", email)
}

func TestDelete_RemovesUserAndSession(t *testing.T) {
	f := newFixture(t)
	f.register(t, "ann", "ann@x.com", "password1")
	ctx := context.Background()

	_, err := f.svc.Login(ctx, domainauth.Credentials{Email: "ann@x.com", Password: "password1"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, "ann@x.com", "password1"))

	assert.Equal(t, 0, f.users.Count())
	assert.Equal(t, 0, f.sessions.Count())
}

func TestDelete_WrongPassword(t *testing.T) {
	f := newFixture(t)
	f.register(t, "ann", "ann@x.com", "password1")

	err := f.svc.Delete(context.Background(), "ann@x.com", "password2")
	require.Error(t, err)
	assert.True(t, apperrors.IsCredentialMismatch(err))
	assert.Equal(t, 1, f.users.Count())
}

func TestDelete_AbsentAccountIsNoOp(t *testing.T) {
	f := newFixture(t)

	assert.NoError(t, f.svc.Delete(context.Background(), "nobody@x.com", "whatever"))
}

// stuckSessionStore refuses to actually remove sessions, simulating a backend
// whose deletes do not take effect.
type stuckSessionStore struct {
	*mockauth.MemorySessionStore
}

func (s *stuckSessionStore) DeleteByUserID(_ context.Context, _ string) (bool, error) {
	return true, nil
}

func TestDelete_ReportsFailedConvergence(t *testing.T) {
	users := mockauth.NewMemoryUserRepo()
	sessions := &stuckSessionStore{MemorySessionStore: mockauth.NewMemorySessionStore()}
	hasher := bcrypt.NewHasherWithCost(xbcrypt.MinCost)
	tokens := token.NewService(config.TokenConfig{
		SecretKey: "service-test-secret",
		Issuer:    "authsvc-test",
		Audience:  "authsvc-test-clients",
		Validity:  time.Hour,
	})
	svc := NewAuthService(AuthServiceOptions{
		Stores: StoreOptions{Users: users, Sessions: sessions},
		Crypto: CryptoOptions{Hasher: hasher, Tokens: tokens},
	})
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Name: "ann", Email: "ann@x.com", Password: "password1"})
	require.NoError(t, err)
	_, err = svc.Login(ctx, domainauth.Credentials{Email: "ann@x.com", Password: "password1"})
	require.NoError(t, err)

	err = svc.Delete(ctx, "ann@x.com", "password1")
	require.Error(t, err)
	assert.True(t, apperrors.IsInternal(err))
	assert.Contains(t, err.Error(), "deletion was unsuccessful")
}

func TestPromoteToAdmin_NewUser(t *testing.T) {
	f := newFixture(t)

	user, err := f.svc.PromoteToAdmin(context.Background(), PromoteInput{
		Name:     "root",
		Email:    "root@x.com",
		Password: "rootpassword",
	})
	require.NoError(t, err)

	assert.True(t, user.IsAdmin)
	assert.NotEmpty(t, user.AuthToken)
	assert.Equal(t, 1, f.users.Count())
	assert.Equal(t, 1, f.sessions.Count())
}

func TestPromoteToAdmin_ExistingUserKeepsSingleRecord(t *testing.T) {
	f := newFixture(t)
	f.register(t, "ann", "ann@x.com", "password1")

	user, err := f.svc.PromoteToAdmin(context.Background(), PromoteInput{
		Name:     "ann",
		Email:    "ann@x.com",
		Password: "password1",
	})
	require.NoError(t, err)

	// Promotion overwrites on the email key; no second record appears.
	assert.True(t, user.IsAdmin)
	assert.Equal(t, 1, f.users.Count())

	stored, err := f.users.FindByEmail(context.Background(), "ann@x.com")
	require.NoError(t, err)
	assert.True(t, stored.IsAdmin)
}

func TestPromoteToAdmin_RequiresEmailAndPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.PromoteToAdmin(ctx, PromoteInput{Name: "x", Password: "password1"})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	_, err = f.svc.PromoteToAdmin(ctx, PromoteInput{Name: "x", Email: "x@x.com"})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestIdentify(t *testing.T) {
	f := newFixture(t)
	registered := f.register(t, "ann", "ann@x.com", "password1")

	t.Run("valid bearer token", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("Authorization", "Bearer "+registered.AuthToken)

		email, err := f.svc.Identify(r)
		require.NoError(t, err)
		assert.Equal(t, "ann@x.com", email)
	})

	t.Run("missing header", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)

		_, err := f.svc.Identify(r)
		require.Error(t, err)
		assert.True(t, apperrors.IsUnauthorized(err))
		assert.Contains(t, err.Error(), "missing authorization header")
	})

	t.Run("not a bearer token", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")

		_, err := f.svc.Identify(r)
		require.Error(t, err)
		assert.True(t, apperrors.IsUnauthorized(err))
		assert.Contains(t, err.Error(), "not a bearer token")
	})

	t.Run("header shorter than the scheme", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("Authorization", "Bear")

		_, err := f.svc.Identify(r)
		require.Error(t, err)
		assert.True(t, apperrors.IsUnauthorized(err))
	})

	t.Run("garbage token", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("Authorization", "Bearer garbage")

		_, err := f.svc.Identify(r)
		require.Error(t, err)
		assert.True(t, apperrors.IsToken(err))
	})
}

func TestFindByEmail(t *testing.T) {
	f := newFixture(t)
	f.register(t, "ann", "ann@x.com", "password1")
	ctx := context.Background()

	user, err := f.svc.FindByEmail(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, "ann", user.Name)
	// A plain read attaches no token.
	assert.Empty(t, user.AuthToken)

	_, err = f.svc.FindByEmail(ctx, "nobody@x.com")
	assert.True(t, apperrors.IsNotFound(err))
}
