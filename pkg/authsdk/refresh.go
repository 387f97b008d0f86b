package authsdk

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// refreshCall is one in-flight refresh exchange. done is closed exactly once
// when the exchange finishes; token/err are immutable after that.
type refreshCall struct {
	done  chan struct{}
	token string
	err   error
}

// refresh drives the single-flight refresh. The first caller starts the
// exchange; everyone arriving while it is in flight waits for the same
// result. A waiter whose own ctx dies unblocks with ctx.Err() while the
// exchange completes for the others.
func (s *Session) refresh(ctx context.Context) (string, error) {
	s.mu.Lock()

	// Someone may have refreshed between our check and this lock.
	if time.Now().Before(s.expiresAt) && s.accessToken != "" {
		token := s.accessToken
		s.mu.Unlock()
		return token, nil
	}

	if call := s.refreshing; call != nil {
		s.mu.Unlock()
		return waitRefresh(ctx, call)
	}

	refreshToken := s.refreshToken
	if refreshToken == "" {
		s.mu.Unlock()
		return "", ErrReauthenticate
	}

	call := &refreshCall{done: make(chan struct{})}
	s.refreshing = call
	s.mu.Unlock()

	// The exchange runs on its own context so one impatient caller can't
	// cancel it out from under the other waiters. The HTTP client's
	// timeout still bounds it.
	go s.runRefresh(context.WithoutCancel(ctx), call, refreshToken)

	return waitRefresh(ctx, call)
}

func waitRefresh(ctx context.Context, call *refreshCall) (string, error) {
	select {
	case <-call.done:
		return call.token, call.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// runRefresh performs the exchange and broadcasts the outcome. Whatever
// happens, the session returns to the idle state so the next expiry can
// trigger a new attempt.
func (s *Session) runRefresh(ctx context.Context, call *refreshCall, refreshToken string) {
	tokenResp, err := s.client.refreshGrant(ctx, refreshToken)

	s.mu.Lock()
	s.refreshing = nil

	switch {
	case err == nil:
		s.accessToken = tokenResp.AccessToken
		s.refreshToken = tokenResp.RefreshToken
		s.expiresAt = time.Now().Add(time.Duration(tokenResp.ExpiresIn)*time.Second - expiryBuffer)
		call.token = tokenResp.AccessToken

	case errors.Is(err, ErrInvalidGrant):
		// The credential is dead server-side. Clear everything; every
		// waiter sees the one terminal error.
		s.clearLocked()
		call.err = ErrReauthenticate

	default:
		// Transient failure (network, 5xx): keep the credentials so a
		// later attempt can retry.
		call.err = fmt.Errorf("authsdk: refresh failed: %w", err)
	}

	s.mu.Unlock()
	close(call.done)
}
