package config

import "time"

// defaultTokenValidity matches the 30-day validity window of issued tokens.
const defaultTokenValidity = 720 * time.Hour

// TokenConfig contains bearer-token signing configuration.
//
// The signing key, issuer, and audience are supplied externally; the service
// never generates them. SecretKey is required — there is no safe default for
// a symmetric signing key.
type TokenConfig struct {
	// SecretKey is the symmetric HMAC-SHA-256 signing key.
	SecretKey string `env:"SECRET_KEY,required"`

	// Issuer is the value of the "iss" claim on issued tokens, and the
	// value validation requires on inbound tokens.
	Issuer string `env:"ISSUER" envDefault:"authsvc"`

	// Audience is the value of the "aud" claim on issued tokens.
	Audience string `env:"AUDIENCE" envDefault:"authsvc-clients"`

	// Validity is how long issued tokens remain valid.
	Validity time.Duration `env:"VALIDITY" envDefault:"720h"`
}

// Sanitize applies guardrails to token configuration values.
func (t *TokenConfig) Sanitize() {
	if t.Validity <= 0 {
		t.Validity = defaultTokenValidity
	}
}
