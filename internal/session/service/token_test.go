package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/harborcrest/passage/internal/session/domain"
	"github.com/harborcrest/passage/internal/session/service"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u := f.createUser(t, "alice", "correct horse")

	pair, err := f.tokens.Login(ctx, "alice", "correct horse")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, "Bearer", pair.TokenType)

	identity, outcome := f.tokens.VerifyAccess(pair.AccessToken)
	require.Equal(t, domain.OutcomeValid, outcome)
	require.Equal(t, u.ID, identity.SubjectID)
	require.Equal(t, "alice", identity.Username)
	require.Equal(t, "alice@example.com", identity.Email)
	require.Equal(t, "member", identity.Role)

	// Login by email works too.
	_, err = f.tokens.Login(ctx, "alice@example.com", "correct horse")
	require.NoError(t, err)
}

func TestLogin_Failures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.createUser(t, "bob", "hunter2")

	_, err := f.tokens.Login(ctx, "bob", "wrong")
	require.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, err = f.tokens.Login(ctx, "nobody", "hunter2")
	require.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestVerifyAccess_Outcomes(t *testing.T) {
	f := newFixture(t)

	u := f.createUser(t, "carol", "pw")
	pair, err := f.tokens.IssueSession(context.Background(), u.Identity())
	require.NoError(t, err)

	_, outcome := f.tokens.VerifyAccess("not-a-token")
	require.Equal(t, domain.OutcomeMalformed, outcome)

	reset, err := f.tokens.IssuePasswordReset(u.Identity())
	require.NoError(t, err)
	_, outcome = f.tokens.VerifyAccess(reset)
	require.Equal(t, domain.OutcomeWrongPurpose, outcome)
	_, outcome = f.tokens.VerifyPasswordReset(pair.AccessToken)
	require.Equal(t, domain.OutcomeWrongPurpose, outcome)

	f.clock.Advance(f.tokens.AccessTTL + time.Second)
	_, outcome = f.tokens.VerifyAccess(pair.AccessToken)
	require.Equal(t, domain.OutcomeExpired, outcome)
}

// TestShortLivedSession walks the canonical client sequence with a 1s access
// TTL: verify while fresh, observe expiry, exchange the refresh credential,
// and verify the replacement.
func TestShortLivedSession(t *testing.T) {
	f := newFixture(t)
	f.tokens.AccessTTL = time.Second

	u := f.createUser(t, "dave", "pw")
	pair, err := f.tokens.IssueSession(context.Background(), u.Identity())
	require.NoError(t, err)

	_, outcome := f.tokens.VerifyAccess(pair.AccessToken)
	require.Equal(t, domain.OutcomeValid, outcome)

	f.clock.Advance(2 * time.Second)
	_, outcome = f.tokens.VerifyAccess(pair.AccessToken)
	require.Equal(t, domain.OutcomeExpired, outcome)

	rotated, err := f.tokens.ExchangeRefreshToken(context.Background(), pair.RefreshToken)
	require.NoError(t, err)

	identity, outcome := f.tokens.VerifyAccess(rotated.AccessToken)
	require.Equal(t, domain.OutcomeValid, outcome)
	require.Equal(t, u.ID, identity.SubjectID)
}

func TestExchangeRefreshToken_Rotation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u := f.createUser(t, "erin", "pw")
	pair, err := f.tokens.IssueSession(ctx, u.Identity())
	require.NoError(t, err)

	rotated, err := f.tokens.ExchangeRefreshToken(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	// The spent credential is dead; the rotated one works.
	_, err = f.tokens.ExchangeRefreshToken(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, service.ErrInvalidRefresh)

	_, err = f.tokens.ExchangeRefreshToken(ctx, rotated.RefreshToken)
	require.NoError(t, err)
}

func TestExchangeRefreshToken_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u := f.createUser(t, "frank", "pw")

	_, err := f.tokens.ExchangeRefreshToken(ctx, "never-issued")
	require.ErrorIs(t, err, service.ErrInvalidRefresh)

	pair, err := f.tokens.IssueSession(ctx, u.Identity())
	require.NoError(t, err)
	f.clock.Advance(f.tokens.RefreshTTL + time.Hour)
	_, err = f.tokens.ExchangeRefreshToken(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, service.ErrInvalidRefresh)
}

func TestRevokeRefreshToken_Finality(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u := f.createUser(t, "grace", "pw")
	pair, err := f.tokens.IssueSession(ctx, u.Identity())
	require.NoError(t, err)

	require.NoError(t, f.tokens.RevokeRefreshToken(ctx, pair.RefreshToken))

	// Once revoke has returned, no exchange may succeed.
	_, err = f.tokens.ExchangeRefreshToken(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, service.ErrInvalidRefresh)

	// Revoke is idempotent, including for unknown values.
	require.NoError(t, f.tokens.RevokeRefreshToken(ctx, pair.RefreshToken))
	require.NoError(t, f.tokens.RevokeRefreshToken(ctx, "never-issued"))
}

func TestExchangeCarriesStoredIdentity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u := f.createUser(t, "heidi", "pw")
	pair, err := f.tokens.IssueSession(ctx, u.Identity())
	require.NoError(t, err)

	rotated, err := f.tokens.ExchangeRefreshToken(ctx, pair.RefreshToken)
	require.NoError(t, err)

	// The rotated access credential is minted from the stored user row, not
	// from anything the client presented.
	identity, outcome := f.tokens.VerifyAccess(rotated.AccessToken)
	require.Equal(t, domain.OutcomeValid, outcome)
	require.Equal(t, u.ID, identity.SubjectID)
	require.Equal(t, u.Email, identity.Email)
	require.Equal(t, u.Username, identity.Username)
	require.Equal(t, u.Role, identity.Role)
}

func TestDecodeUnverified(t *testing.T) {
	f := newFixture(t)

	u := f.createUser(t, "ivan", "pw")
	pair, err := f.tokens.IssueSession(context.Background(), u.Identity())
	require.NoError(t, err)

	identity := f.tokens.DecodeUnverified(pair.AccessToken)
	require.Equal(t, "ivan", identity.Username)

	require.True(t, f.tokens.DecodeUnverified("garbage").IsZero())
}
