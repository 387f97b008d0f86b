package service_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/harborcrest/passage/internal/session/domain"
	"github.com/harborcrest/passage/internal/session/service"
	"github.com/harborcrest/passage/internal/session/store"
	"github.com/harborcrest/passage/internal/session/store/drivers/sqlite"
	"github.com/harborcrest/passage/pkg/cryptox"
	"github.com/harborcrest/passage/pkg/idx"
	"github.com/harborcrest/passage/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

var dbCounter atomic.Int64

// clock is a settable test clock shared by the services under test.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock(start time.Time) *clock {
	return &clock{now: start}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	store  store.Store
	tokens *service.TokenService
	resets *service.ResetService
	clock  *clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:svc%d?mode=memory&cache=shared", dbCounter.Add(1))
	s, err := sqlite.NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())

	codec, err := jwtx.NewCodec([]byte("0123456789abcdef0123456789abcdef"), "passage-test", 0)
	require.NoError(t, err)

	clk := newClock(time.Now().UTC())

	tokens := &service.TokenService{
		Codec:      codec,
		Store:      s,
		AccessTTL:  jwtx.DefaultAccessTTL,
		RefreshTTL: 7 * 24 * time.Hour,
		ResetTTL:   jwtx.DefaultResetTTL,
		Now:        clk.Now,
	}
	resets := &service.ResetService{
		Tokens:         tokens,
		Store:          s,
		RollbackWindow: 24 * time.Hour,
		Now:            clk.Now,
	}

	return &fixture{store: s, tokens: tokens, resets: resets, clock: clk}
}

func (f *fixture) createUser(t *testing.T, username, password string) domain.User {
	t.Helper()

	hash, err := cryptox.HashPassword(password)
	require.NoError(t, err)

	u := domain.User{
		ID:           idx.New().String(),
		Email:        username + "@example.com",
		Username:     username,
		Role:         "member",
		PasswordHash: hash,
	}
	require.NoError(t, f.store.Users().CreateUser(context.Background(), u))
	return u
}
