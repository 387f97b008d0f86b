package authsdk

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
)

// Do sends an authenticated request with a bounded retry: on a 401 it drives
// exactly one refresh-then-retry cycle. A second 401, or a failed refresh,
// ends the session locally and returns ErrReauthenticate. No request is ever
// retried more than once.
//
// body may be nil; it is buffered so the retry can replay it.
func (s *Session) Do(ctx context.Context, method, url string, body []byte, mods ...func(*http.Request)) (*http.Response, error) {
	token, err := s.getValidToken(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := s.send(ctx, method, url, body, token, mods)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	// The server disagreed about token validity; refresh once and replay.
	drain(resp)

	token, err = s.refresh(ctx)
	if err != nil {
		if errors.Is(err, ErrReauthenticate) {
			return nil, ErrReauthenticate
		}
		return nil, err
	}

	resp, err = s.send(ctx, method, url, body, token, mods)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		// Still rejected on fresh credentials: terminal.
		drain(resp)
		s.mu.Lock()
		s.clearLocked()
		s.mu.Unlock()
		return nil, ErrReauthenticate
	}

	return resp, nil
}

func (s *Session) send(
	ctx context.Context,
	method, url string,
	body []byte,
	token string,
	mods []func(*http.Request),
) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	for _, mod := range mods {
		mod(req)
	}

	return s.client.HTTPClient.Do(req)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
