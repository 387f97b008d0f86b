package jwtx

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformed covers anything that fails before claim inspection:
	// bad structure, unknown algorithm, broken signature, issuer mismatch.
	ErrMalformed = errors.New("jwtx: malformed token")

	// ErrExpired is the one routinely-expected failure; callers refresh
	// on it rather than treating the credential as hostile.
	ErrExpired = errors.New("jwtx: token expired")

	// ErrWrongKind reports a structurally valid credential presented for
	// a purpose it was not minted for.
	ErrWrongKind = errors.New("jwtx: wrong credential kind")
)

// MinSecretLen is the smallest signing secret the codec accepts. HMAC-SHA256
// with fewer than 32 secret bytes weakens the construction for no benefit.
const MinSecretLen = 32

// Codec signs and verifies purpose-tagged credentials with a shared HMAC
// secret. It holds no mutable state and is safe for concurrent use.
type Codec struct {
	secret []byte
	issuer string
	leeway time.Duration
}

// NewCodec builds a Codec. leeway tolerates clock skew between the issuing
// and verifying hosts; zero is acceptable for single-host deployments.
func NewCodec(secret []byte, issuer string, leeway time.Duration) (*Codec, error) {
	if len(secret) < MinSecretLen {
		return nil, errors.New("jwtx: signing secret must be at least 32 bytes")
	}
	if leeway < 0 || leeway > 2*time.Minute {
		return nil, errors.New("jwtx: leeway out of range")
	}
	return &Codec{secret: secret, issuer: issuer, leeway: leeway}, nil
}

// Issuer returns the "iss" value the codec signs and verifies with.
func (c *Codec) Issuer() string { return c.issuer }

// Sign produces the compact serialized credential for the given claims.
func (c *Codec) Sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Verify checks signature, purpose, and expiry, in that order, so that a
// mis-purposed credential is reported as ErrWrongKind rather than ErrExpired
// regardless of its age. now is explicit for deterministic expiry tests.
func (c *Codec) Verify(tokenStr string, want Kind, now time.Time) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	var claims Claims
	_, err := parser.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		return Claims{}, ErrMalformed
	}

	if c.issuer != "" && claims.Issuer != c.issuer {
		return Claims{}, ErrMalformed
	}
	if claims.Subject == "" {
		return Claims{}, ErrMalformed
	}
	if claims.Kind != want {
		return Claims{}, ErrWrongKind
	}
	if err := claims.ValidateExpiry(c.leeway, now); err != nil {
		return Claims{}, err
	}

	return claims, nil
}

// DecodeUnverified extracts claims WITHOUT checking the signature or expiry.
//
// The result is good for non-authoritative display decisions only (showing a
// username before a server round-trip). It MUST NEVER be used to authorize
// an action: anyone can forge a token that decodes cleanly.
func DecodeUnverified(tokenStr string) (Claims, error) {
	var claims Claims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenStr, &claims); err != nil {
		return Claims{}, ErrMalformed
	}
	return claims, nil
}
