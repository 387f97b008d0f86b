package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/harborcrest/passage/internal/session/service"
	"github.com/harborcrest/passage/internal/session/store"
	"github.com/harborcrest/passage/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestRequestReset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.createUser(t, "alice", "old password")

	token, err := f.resets.RequestReset(ctx, "alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// Minting is side-effect free: login with the old password still works.
	_, err = f.tokens.Login(ctx, "alice", "old password")
	require.NoError(t, err)

	_, err = f.resets.RequestReset(ctx, "nobody")
	require.ErrorIs(t, err, service.ErrUserNotFound)
}

func TestCompleteReset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u := f.createUser(t, "bob", "old password")
	oldHash := u.PasswordHash

	// An active session exists before the reset.
	pair, err := f.tokens.IssueSession(ctx, u.Identity())
	require.NoError(t, err)

	token, err := f.resets.RequestReset(ctx, "bob")
	require.NoError(t, err)
	require.NoError(t, f.resets.CompleteReset(ctx, token, "new password"))

	// Old password is out, new one is in.
	_, err = f.tokens.Login(ctx, "bob", "old password")
	require.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, err = f.tokens.Login(ctx, "bob", "new password")
	require.NoError(t, err)

	// The rollback record carries the pre-update hash.
	rec, err := f.store.RollbackRecords().GetLiveRollbackRecord(ctx, u.ID, f.clock.Now())
	require.NoError(t, err)
	require.Equal(t, oldHash, rec.PreviousPasswordHash)
	require.NoError(t, cryptox.VerifyPassword("old password", rec.PreviousPasswordHash))

	// Every pre-reset session is dead.
	_, err = f.tokens.ExchangeRefreshToken(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, service.ErrInvalidRefresh)
}

func TestCompleteReset_InvalidTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u := f.createUser(t, "carol", "old password")

	// Garbage token.
	err := f.resets.CompleteReset(ctx, "garbage", "new password")
	require.ErrorIs(t, err, service.ErrInvalidReset)

	// An access credential is the wrong purpose for a reset.
	pair, err := f.tokens.IssueSession(ctx, u.Identity())
	require.NoError(t, err)
	err = f.resets.CompleteReset(ctx, pair.AccessToken, "new password")
	require.ErrorIs(t, err, service.ErrInvalidReset)

	// Expired reset credential.
	token, err := f.resets.RequestReset(ctx, "carol")
	require.NoError(t, err)
	f.clock.Advance(f.tokens.ResetTTL + time.Minute)
	err = f.resets.CompleteReset(ctx, token, "new password")
	require.ErrorIs(t, err, service.ErrInvalidReset)

	// In every failure case the password is unchanged.
	_, err = f.tokens.Login(ctx, "carol", "old password")
	require.NoError(t, err)
}

func TestCompleteReset_MissingSubject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// A structurally valid reset credential whose subject has no user row
	// behind it is a hard failure, not a silent success.
	u := f.createUser(t, "dave", "pw")
	ghost := u.Identity()
	ghost.SubjectID = "01HZZZZZZZZZZZZZZZZZZZZZZZ"

	token, err := f.tokens.IssuePasswordReset(ghost)
	require.NoError(t, err)

	err = f.resets.CompleteReset(ctx, token, "new password")
	require.ErrorIs(t, err, service.ErrSubjectMismatch)

	// The real user's password is untouched.
	_, err = f.tokens.Login(ctx, "dave", "pw")
	require.NoError(t, err)
}

func TestCompleteReset_SupersedesRollback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u := f.createUser(t, "erin", "password one")
	firstHash := u.PasswordHash

	token, err := f.resets.RequestReset(ctx, "erin")
	require.NoError(t, err)
	require.NoError(t, f.resets.CompleteReset(ctx, token, "password two"))

	token, err = f.resets.RequestReset(ctx, "erin")
	require.NoError(t, err)
	require.NoError(t, f.resets.CompleteReset(ctx, token, "password three"))

	// Only the latest pre-update hash survives; it verifies "password two",
	// not the original.
	rec, err := f.store.RollbackRecords().GetLiveRollbackRecord(ctx, u.ID, f.clock.Now())
	require.NoError(t, err)
	require.NotEqual(t, firstHash, rec.PreviousPasswordHash)
	require.NoError(t, cryptox.VerifyPassword("password two", rec.PreviousPasswordHash))
}

func TestRollbackWindow_Expiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u := f.createUser(t, "frank", "old password")

	token, err := f.resets.RequestReset(ctx, "frank")
	require.NoError(t, err)
	require.NoError(t, f.resets.CompleteReset(ctx, token, "new password"))

	// Readable inside the 24h window, gone after it.
	_, err = f.store.RollbackRecords().GetLiveRollbackRecord(ctx, u.ID, f.clock.Now().Add(23*time.Hour))
	require.NoError(t, err)

	_, err = f.store.RollbackRecords().GetLiveRollbackRecord(ctx, u.ID, f.clock.Now().Add(25*time.Hour))
	require.ErrorIs(t, err, store.ErrNotFound)
}
