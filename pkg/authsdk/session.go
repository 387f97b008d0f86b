package authsdk

import (
	"context"
	"sync"
	"time"

	"github.com/harborcrest/passage/pkg/jwtx"
)

// expiryBuffer is subtracted from the advertised token lifetime so a refresh
// fires before the server-side expiry, not after.
const expiryBuffer = 30 * time.Second

// Session is an authenticated session with automatic single-flight token
// refresh. All credential state lives in this value; there are no package
// globals. Safe for concurrent use.
type Session struct {
	client *Client

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	expiresAt    time.Time

	// refreshing is non-nil while a refresh is in flight; concurrent
	// callers wait on it instead of starting their own exchange.
	refreshing *refreshCall
}

// newSession creates an authenticated session from a token response.
func newSession(client *Client, tokenResp *TokenResponse) *Session {
	return &Session{
		client:       client,
		accessToken:  tokenResp.AccessToken,
		refreshToken: tokenResp.RefreshToken,
		expiresAt:    time.Now().Add(time.Duration(tokenResp.ExpiresIn)*time.Second - expiryBuffer),
	}
}

// AccessToken returns the current access token without checking expiration.
// Prefer Do, which refreshes automatically.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// RefreshToken returns the current refresh token.
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// Authenticated reports whether the session still holds credentials.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken != "" || s.refreshToken != ""
}

// Identity decodes the identity embedded in the access token WITHOUT
// verifying it. Good for showing a username in a UI; never for gating an
// action, since the server is the only party that can verify the signature.
func (s *Session) Identity() Identity {
	claims, err := jwtx.DecodeUnverified(s.AccessToken())
	if err != nil {
		return Identity{}
	}
	return Identity{
		SubjectID: claims.Subject,
		Email:     claims.Email,
		Username:  claims.Username,
		Role:      claims.Role,
	}
}

// Logout revokes the refresh credential and clears local state. Local state
// is cleared even when the revoke call fails; the returned error reports the
// revoke outcome only.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	refreshToken := s.refreshToken
	s.clearLocked()
	s.mu.Unlock()

	if refreshToken == "" {
		return nil
	}
	return s.client.revokeToken(ctx, refreshToken)
}

// clearLocked wipes the credential state. Caller holds s.mu.
func (s *Session) clearLocked() {
	s.accessToken = ""
	s.refreshToken = ""
	s.expiresAt = time.Time{}
}

// getValidToken returns an access token that is not yet within the expiry
// buffer, refreshing first when needed.
func (s *Session) getValidToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	token := s.accessToken
	fresh := time.Now().Before(s.expiresAt)
	s.mu.RUnlock()

	if fresh && token != "" {
		return token, nil
	}
	return s.refresh(ctx)
}
