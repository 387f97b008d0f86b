package domain

import "time"

// TokenPair is what the token endpoint returns: the short-lived access
// credential (JWT) and the opaque refresh credential.
type TokenPair struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	TokenType    string        `json:"token_type,omitempty"` // typically "Bearer"
	ExpiresIn    time.Duration `json:"expires_in"`           // seconds until expiry
}

// RefreshToken models the stored refresh credential record. Only the
// fingerprint of the opaque value is persisted; the value itself is handed
// to the client once and never seen again server-side.
type RefreshToken struct {
	ID        string
	SubjectID string
	TokenHash string // deterministic fingerprint (base64url SHA-256)
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Live reports whether the record is usable at the given instant.
func (rt RefreshToken) Live(now time.Time) bool {
	return !rt.Revoked && now.Before(rt.ExpiresAt)
}
