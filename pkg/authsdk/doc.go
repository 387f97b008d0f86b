/*
Package authsdk provides a client SDK for the session service.

# Overview

The package is organized around two types:

  - Client: unauthenticated operations (login, password reset) and session
    creation
  - Session: authenticated requests with automatic single-flight token
    refresh

Create a Client and log in to obtain a Session:

	client := authsdk.NewClient("https://sessions.example.com")
	session, err := client.Login(ctx, "alice", "password")

Sessions send authenticated requests through Do, which attaches the bearer
token, refreshes proactively when the access token is near expiry, and
retries exactly once after a 401:

	resp, err := session.Do(ctx, http.MethodGet, apiURL+"/v1/session", nil)
	if errors.Is(err, authsdk.ErrReauthenticate) {
		// The refresh credential is gone for good; prompt for login.
	}

# Single-Flight Refresh

When several goroutines hit an expired access token at once, exactly one
refresh exchange runs; the rest wait for its outcome. A terminal refresh
failure (the server reports invalid_grant) clears the session's credentials
and surfaces ErrReauthenticate to every waiter, so the application sees one
re-login event rather than one per request.

A waiter whose own context is cancelled unblocks immediately with the
context error; the exchange still completes for the other waiters.

# Thread Safety

Sessions are safe for concurrent use. Credential state is an explicit value
owned by the Session and guarded by its mutex; the package keeps no global
state.
*/
package authsdk
