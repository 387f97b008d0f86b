package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default credential lifetimes. Short access tokens limit the blast radius
// of a leaked bearer value; the reset TTL keeps emailed links from living
// longer than the inbox they land in.
const (
	DefaultAccessTTL = 15 * time.Minute
	DefaultResetTTL  = 1 * time.Hour
)

// Kind tags a signed credential with the single purpose it was minted for.
// A credential presented anywhere a different kind is expected is rejected
// even when its signature and expiry are otherwise sound.
type Kind string

const (
	KindAccess        Kind = "access"
	KindPasswordReset Kind = "password_reset"
)

// Claims are the signed credential payload: the identity tuple captured at
// login plus the purpose tag. The identity fields are carried byte-for-byte
// from mint to verify; nothing re-derives them from another source.
type Claims struct {
	jwt.RegisteredClaims

	// Kind is the purpose tag ("access" or "password_reset").
	Kind Kind `json:"kind"`

	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
}

// NewClaims builds minimally-correct claims for the given subject and
// purpose. now is explicit so issuance is deterministic under test.
func NewClaims(
	subject string,
	kind Kind,
	email, username, role string,
	ttl time.Duration,
	issuer string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Kind:     kind,
		Email:    email,
		Username: username,
		Role:     role,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// ValidateExpiry ensures the token hasn't expired (exp) and isn't being
// used before it is valid (nbf), allowing leeway for clock skew.
func (c *Claims) ValidateExpiry(leeway time.Duration, now time.Time) error {
	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrExpired
	}
	return nil
}
