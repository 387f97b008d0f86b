package authsdk

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// apiFixture is an httptest server standing in for both the session service
// and a resource API behind it. The protected endpoint accepts exactly one
// access token; the token endpoint rotates to it.
type apiFixture struct {
	srv *httptest.Server

	validToken atomic.Value // string
	tokenCalls atomic.Int32
	apiCalls   atomic.Int32
	tokenFails atomic.Bool
}

func newAPIFixture(t *testing.T, validToken string) *apiFixture {
	t.Helper()

	f := &apiFixture{}
	f.validToken.Store(validToken)

	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/token":
			f.tokenCalls.Add(1)
			if f.tokenFails.Load() {
				writeAPIError(w, http.StatusUnauthorized, ErrorCodeInvalidGrant)
				return
			}
			f.validToken.Store("rotated-access")
			writeTokenResponse(t, w, "rotated-access", "rotated-refresh")

		case "/api/resource":
			f.apiCalls.Add(1)
			if r.Header.Get("Authorization") != "Bearer "+f.validToken.Load().(string) {
				writeAPIError(w, http.StatusUnauthorized, ErrorCodeInvalidToken)
				return
			}
			body, _ := io.ReadAll(r.Body)
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(body)

		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(f.srv.Close)

	return f
}

func (f *apiFixture) resourceURL() string {
	return f.srv.URL + "/api/resource"
}

func TestDo_AttachesBearerToken(t *testing.T) {
	f := newAPIFixture(t, "access-1")
	session := NewClient(f.srv.URL).SessionFromTokens("access-1", "refresh-1", 3600)

	resp, err := session.Do(context.Background(), http.MethodPost, f.resourceURL(), []byte("ping"))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "ping", string(body))
	require.Equal(t, int32(0), f.tokenCalls.Load(), "a fresh token needs no refresh")
}

func TestDo_RefreshesProactivelyBeforeExpiry(t *testing.T) {
	f := newAPIFixture(t, "rotated-access")
	// expiresIn 0 puts the access token inside the expiry buffer.
	session := NewClient(f.srv.URL).SessionFromTokens("access-1", "refresh-1", 0)

	resp, err := session.Do(context.Background(), http.MethodGet, f.resourceURL(), nil)
	require.NoError(t, err)
	resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, int32(1), f.tokenCalls.Load())
	require.Equal(t, int32(1), f.apiCalls.Load(), "the refreshed request should succeed first try")
}

func TestDo_RetriesExactlyOnceAfter401(t *testing.T) {
	// The server already rotated past access-1, but the session still
	// believes it has a fresh token. The first attempt 401s.
	f := newAPIFixture(t, "server-side-rotated")
	session := NewClient(f.srv.URL).SessionFromTokens("access-1", "refresh-1", 3600)

	resp, err := session.Do(context.Background(), http.MethodPost, f.resourceURL(), []byte("payload"))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "payload", string(body), "the body must be replayed on the retry")

	require.Equal(t, int32(1), f.tokenCalls.Load())
	require.Equal(t, int32(2), f.apiCalls.Load(), "one original attempt plus one retry")
	require.Equal(t, "rotated-access", session.AccessToken())
}

func TestDo_SecondUnauthorizedIsTerminal(t *testing.T) {
	var apiCalls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/token" {
			writeTokenResponse(t, w, "access-2", "refresh-2")
			return
		}
		apiCalls.Add(1)
		writeAPIError(w, http.StatusUnauthorized, ErrorCodeInvalidToken)
	}))
	defer srv.Close()

	session := NewClient(srv.URL).SessionFromTokens("access-1", "refresh-1", 3600)

	_, err := session.Do(context.Background(), http.MethodGet, srv.URL+"/api/resource", nil)
	require.ErrorIs(t, err, ErrReauthenticate)
	require.Equal(t, int32(2), apiCalls.Load(), "never more than one retry")
	require.False(t, session.Authenticated())
}

func TestDo_FailedRefreshSurfacesReauthenticate(t *testing.T) {
	f := newAPIFixture(t, "server-side-rotated")
	f.tokenFails.Store(true)
	session := NewClient(f.srv.URL).SessionFromTokens("access-1", "refresh-1", 3600)

	_, err := session.Do(context.Background(), http.MethodGet, f.resourceURL(), nil)
	require.ErrorIs(t, err, ErrReauthenticate)
	require.Equal(t, int32(1), f.apiCalls.Load(), "no retry without fresh credentials")
	require.False(t, session.Authenticated())
}

func TestLogout_RevokesAndClears(t *testing.T) {
	var revoked atomic.Value // string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/revoke", r.URL.Path)
		require.NoError(t, r.ParseForm())
		revoked.Store(r.FormValue("token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("{}"))
	}))
	defer srv.Close()

	session := NewClient(srv.URL).SessionFromTokens("access-1", "refresh-1", 3600)

	require.NoError(t, session.Logout(context.Background()))
	require.Equal(t, "refresh-1", revoked.Load())
	require.False(t, session.Authenticated())
	require.Empty(t, session.AccessToken())
}

func TestLogout_ClearsStateWhenRevokeFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(w, http.StatusInternalServerError, ErrorCodeServerError)
	}))
	defer srv.Close()

	session := NewClient(srv.URL).SessionFromTokens("access-1", "refresh-1", 3600)

	err := session.Logout(context.Background())
	require.Error(t, err)
	require.False(t, session.Authenticated(), "local state clears no matter what the server says")
}

func TestDo_AppliesRequestModifiers(t *testing.T) {
	f := newAPIFixture(t, "access-1")
	session := NewClient(f.srv.URL).SessionFromTokens("access-1", "refresh-1", 3600)

	var seen string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("X-Trace-ID")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	resp, err := session.Do(context.Background(), http.MethodGet, srv.URL+"/thing", nil, func(r *http.Request) {
		r.Header.Set("X-Trace-ID", "trace-123")
	})
	require.NoError(t, err)
	resp.Body.Close()

	require.Equal(t, "trace-123", seen)
}
