package authsdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// Client talks to the session service. It covers the unauthenticated surface
// (login, password reset) and creates authenticated Sessions.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a session service client.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Login authenticates with an email-or-username identifier and password and
// returns an authenticated Session.
func (c *Client) Login(ctx context.Context, identifier, password string) (*Session, error) {
	tokenResp, err := c.passwordGrant(ctx, identifier, password)
	if err != nil {
		return nil, err
	}

	return newSession(c, tokenResp), nil
}

// SessionFromTokens creates a Session from previously stored tokens, e.g.
// restored from a keychain. Auto-refresh still applies.
func (c *Client) SessionFromTokens(accessToken, refreshToken string, expiresIn int) *Session {
	return &Session{
		client:       c,
		accessToken:  accessToken,
		refreshToken: refreshToken,
		expiresAt:    time.Now().Add(time.Duration(expiresIn)*time.Second - expiryBuffer),
	}
}

// RequestPasswordReset asks the server to mint a reset credential for the
// identifier. Delivery happens out of band; an unknown identifier surfaces
// as an APIError with code "user_not_found".
func (c *Client) RequestPasswordReset(ctx context.Context, identifier string) error {
	payload := map[string]string{"identifier": identifier}
	resp, body, err := c.postJSON(ctx, "/v1/password-reset/request", payload)
	if err != nil {
		return err
	}
	return parseErrorResponse(resp, body)
}

// CompletePasswordReset redeems a reset credential for a new password.
func (c *Client) CompletePasswordReset(ctx context.Context, token, newPassword string) error {
	payload := map[string]string{"token": token, "new_password": newPassword}
	resp, body, err := c.postJSON(ctx, "/v1/password-reset/complete", payload)
	if err != nil {
		return err
	}
	return parseErrorResponse(resp, body)
}
