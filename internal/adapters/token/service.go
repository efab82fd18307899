package token

// Package token adapts github.com/golang-jwt/jwt/v5 to the ports.TokenService
// contract: self-contained HMAC-SHA-256 bearer tokens carrying an email claim.

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/flixbase/authsvc/config"
	apperrors "github.com/flixbase/authsvc/internal/errors"
)

// claims extends the registered JWT claims with the subject's email.
type claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// Service issues and validates signed bearer tokens. The signing key, issuer,
// and audience come from configuration; the service never generates them.
type Service struct {
	secretKey []byte
	issuer    string
	audience  string
	validity  time.Duration
	parser    *jwt.Parser

	// now is swappable in tests to force tokens into the past.
	now func() time.Time
}

// NewService constructs a token Service from configuration.
func NewService(cfg config.TokenConfig) *Service {
	return &Service{
		secretKey: []byte(cfg.SecretKey),
		issuer:    cfg.Issuer,
		audience:  cfg.Audience,
		validity:  cfg.Validity,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(cfg.Issuer),
			jwt.WithAudience(cfg.Audience),
			jwt.WithExpirationRequired(),
		),
		now: time.Now,
	}
}

// Issue produces a signed token with iss, aud, email, nbf=now and
// exp=now+validity.
func (s *Service) Issue(email string) (string, error) {
	now := s.now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.validity)),
		},
		Email: email,
	})

	signed, err := tok.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate checks signature integrity, issuer, audience, and that now is
// within [nbf, exp], and returns the embedded email claim.
//
// Failure kinds stay distinguishable so callers can tell "invalid format"
// apart from "expired":
//   - unparsable token           → ErrCodeTokenMalformed
//   - outside validity window    → ErrCodeTokenExpired
//   - HMAC verification failure  → ErrCodeTokenSignature
//   - issuer/audience/email miss → ErrCodeTokenClaim
func (s *Service) Validate(tokenString string) (string, error) {
	parsed := &claims{}
	_, err := s.parser.ParseWithClaims(tokenString, parsed, func(t *jwt.Token) (any, error) {
		return s.secretKey, nil
	})
	if err != nil {
		return "", mapParseError(err)
	}

	if parsed.Email == "" {
		return "", apperrors.Token(apperrors.ErrCodeTokenClaim, "token does not contain an email claim", nil)
	}
	return parsed.Email, nil
}

// mapParseError converts jwt/v5 sentinel errors into the token error taxonomy.
func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return apperrors.Token(apperrors.ErrCodeTokenMalformed, "malformed bearer token", err)
	case errors.Is(err, jwt.ErrTokenExpired), errors.Is(err, jwt.ErrTokenNotValidYet):
		return apperrors.Token(apperrors.ErrCodeTokenExpired, "token is outside its validity window", err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return apperrors.Token(apperrors.ErrCodeTokenSignature, "token signature is invalid", err)
	case errors.Is(err, jwt.ErrTokenInvalidIssuer),
		errors.Is(err, jwt.ErrTokenInvalidAudience),
		errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return apperrors.Token(apperrors.ErrCodeTokenClaim, "token claims do not match this service", err)
	default:
		return apperrors.Token(apperrors.ErrCodeTokenMalformed, "unable to validate bearer token", err)
	}
}
