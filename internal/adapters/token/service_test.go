package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flixbase/authsvc/config"
	apperrors "github.com/flixbase/authsvc/internal/errors"
)

func testTokenConfig() config.TokenConfig {
	return config.TokenConfig{
		SecretKey: "test-secret-key-with-enough-entropy",
		Issuer:    "authsvc-test",
		Audience:  "authsvc-test-clients",
		Validity:  720 * time.Hour,
	}
}

func TestService_IssueValidate_RoundTrip(t *testing.T) {
	svc := NewService(testTokenConfig())

	token, err := svc.Issue("ann@x.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	email, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "ann@x.com", email)
}

func TestService_Validate_Expired(t *testing.T) {
	cfg := testTokenConfig()
	cfg.Validity = time.Minute
	svc := NewService(cfg)

	// Issue from two minutes in the past so the token is already expired.
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Minute) }
	token, err := svc.Issue("ann@x.com")
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.Validate(token)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeTokenExpired, apperrors.GetCode(err))
}

func TestService_Validate_NotYetValid(t *testing.T) {
	svc := NewService(testTokenConfig())

	// Issue from an hour in the future: nbf has not been reached.
	svc.now = func() time.Time { return time.Now().Add(time.Hour) }
	token, err := svc.Issue("ann@x.com")
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.Validate(token)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeTokenExpired, apperrors.GetCode(err))
}

func TestService_Validate_Malformed(t *testing.T) {
	svc := NewService(testTokenConfig())

	_, err := svc.Validate("garbage")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeTokenMalformed, apperrors.GetCode(err))

	// Expired and malformed stay distinguishable.
	assert.NotEqual(t, apperrors.ErrCodeTokenExpired, apperrors.GetCode(err))
}

func TestService_Validate_WrongKey(t *testing.T) {
	svc := NewService(testTokenConfig())

	otherCfg := testTokenConfig()
	otherCfg.SecretKey = "a-completely-different-signing-key"
	other := NewService(otherCfg)

	token, err := other.Issue("ann@x.com")
	require.NoError(t, err)

	_, err = svc.Validate(token)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeTokenSignature, apperrors.GetCode(err))
}

func TestService_Validate_IssuerMismatch(t *testing.T) {
	svc := NewService(testTokenConfig())

	otherCfg := testTokenConfig()
	otherCfg.Issuer = "someone-else"
	other := NewService(otherCfg)

	token, err := other.Issue("ann@x.com")
	require.NoError(t, err)

	_, err = svc.Validate(token)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeTokenClaim, apperrors.GetCode(err))
}

func TestService_Validate_AudienceMismatch(t *testing.T) {
	svc := NewService(testTokenConfig())

	otherCfg := testTokenConfig()
	otherCfg.Audience = "another-audience"
	other := NewService(otherCfg)

	token, err := other.Issue("ann@x.com")
	require.NoError(t, err)

	_, err = svc.Validate(token)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeTokenClaim, apperrors.GetCode(err))
}

func TestService_Validate_MissingEmailClaim(t *testing.T) {
	cfg := testTokenConfig()
	svc := NewService(cfg)

	// Sign a well-formed token with matching iss/aud but no email claim.
	now := time.Now()
	bare := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    cfg.Issuer,
		Audience:  jwt.ClaimStrings{cfg.Audience},
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	})
	signed, err := bare.SignedString([]byte(cfg.SecretKey))
	require.NoError(t, err)

	_, err = svc.Validate(signed)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeTokenClaim, apperrors.GetCode(err))
	assert.Contains(t, err.Error(), "email claim")
}
