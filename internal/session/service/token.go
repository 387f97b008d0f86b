package service

import (
	"context"
	"errors"
	"time"

	"github.com/harborcrest/passage/internal/session/domain"
	"github.com/harborcrest/passage/internal/session/store"
	"github.com/harborcrest/passage/pkg/cryptox"
	"github.com/harborcrest/passage/pkg/idx"
	"github.com/harborcrest/passage/pkg/jwtx"
	"github.com/harborcrest/passage/pkg/slogx"
)

// TokenService mints, verifies, exchanges, and revokes session credentials.
type TokenService struct {
	Codec      *jwtx.Codec
	Store      store.Store
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	ResetTTL   time.Duration

	// Now is the clock; nil means time.Now. Injected for deterministic
	// expiry tests.
	Now func() time.Time
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Login resolves an email-or-username identifier, checks the password, and
// issues a fresh token pair.
func (s *TokenService) Login(ctx context.Context, identifier, password string) (*domain.TokenPair, error) {
	l := slogx.FromContext(ctx)

	u, err := s.Store.Users().GetUserByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		l.Info("password verification failed", "subject_id", u.ID)
		return nil, ErrInvalidCredentials
	}

	return s.IssueSession(ctx, u.Identity())
}

// IssueSession mints an access credential for the identity and persists the
// fingerprint of a new opaque refresh credential. The raw refresh value is
// returned once and never stored or logged.
func (s *TokenService) IssueSession(ctx context.Context, identity domain.Identity) (*domain.TokenPair, error) {
	now := s.now()

	accessToken, err := s.signAccess(identity, now)
	if err != nil {
		return nil, err
	}

	refreshOpaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, err
	}

	rt := domain.RefreshToken{
		ID:        idx.New().String(),
		SubjectID: identity.SubjectID,
		TokenHash: cryptox.FingerprintToken(refreshOpaque),
		ExpiresAt: now.Add(s.RefreshTTL),
		Revoked:   false,
	}
	if err := s.Store.RefreshTokens().CreateRefreshToken(ctx, rt); err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshOpaque,
		TokenType:    "Bearer",
		ExpiresIn:    s.AccessTTL,
	}, nil
}

// IssuePasswordReset mints a reset-purpose credential for the identity.
// It is side-effect free: nothing is persisted and no session changes.
func (s *TokenService) IssuePasswordReset(identity domain.Identity) (string, error) {
	claims := jwtx.NewClaims(
		identity.SubjectID,
		jwtx.KindPasswordReset,
		identity.Email,
		identity.Username,
		identity.Role,
		s.ResetTTL,
		s.Codec.Issuer(),
		s.now(),
	)
	return s.Codec.Sign(claims)
}

// ExchangeRefreshToken rotates a refresh credential: the presented value is
// invalidated and a successor pair is issued in its place.
//
// The revocation re-check and the rotation happen inside one transaction, so
// a revoke that has returned can never lose to an in-flight exchange.
func (s *TokenService) ExchangeRefreshToken(ctx context.Context, refreshOpaque string) (*domain.TokenPair, error) {
	now := s.now()
	fp := cryptox.FingerprintToken(refreshOpaque)

	newRefreshOpaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, err
	}

	var result *domain.TokenPair

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		rt, err := tx.RefreshTokens().GetRefreshTokenByHash(ctx, fp)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidRefresh
			}
			return err
		}
		if rt.Revoked || now.After(rt.ExpiresAt) {
			return ErrInvalidRefresh
		}

		u, err := tx.Users().GetUserByID(ctx, rt.SubjectID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidRefresh
			}
			return err
		}

		// Access claims come from the subject's current identity, not from
		// whatever the previous access credential carried.
		accessToken, err := s.signAccess(u.Identity(), now)
		if err != nil {
			return err
		}

		if err := tx.RefreshTokens().RevokeRefreshToken(ctx, fp); err != nil {
			return err
		}

		newRT := domain.RefreshToken{
			ID:        idx.New().String(),
			SubjectID: u.ID,
			TokenHash: cryptox.FingerprintToken(newRefreshOpaque),
			ExpiresAt: now.Add(s.RefreshTTL),
			Revoked:   false,
		}
		if err := tx.RefreshTokens().CreateRefreshToken(ctx, newRT); err != nil {
			return err
		}

		result = &domain.TokenPair{
			AccessToken:  accessToken,
			RefreshToken: newRefreshOpaque,
			TokenType:    "Bearer",
			ExpiresIn:    s.AccessTTL,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// RevokeRefreshToken revokes a single refresh credential by its opaque value.
// Unknown or already-revoked values are a successful no-op.
func (s *TokenService) RevokeRefreshToken(ctx context.Context, refreshOpaque string) error {
	fp := cryptox.FingerprintToken(refreshOpaque)
	return s.Store.RefreshTokens().RevokeRefreshToken(ctx, fp)
}

// VerifyAccess classifies an access credential and, when valid, returns the
// identity exactly as minted.
func (s *TokenService) VerifyAccess(token string) (domain.Identity, domain.Outcome) {
	return s.verify(token, jwtx.KindAccess)
}

// VerifyPasswordReset is VerifyAccess for reset-purpose credentials.
func (s *TokenService) VerifyPasswordReset(token string) (domain.Identity, domain.Outcome) {
	return s.verify(token, jwtx.KindPasswordReset)
}

func (s *TokenService) verify(token string, kind jwtx.Kind) (domain.Identity, domain.Outcome) {
	claims, err := s.Codec.Verify(token, kind, s.now())
	switch {
	case err == nil:
		return identityFromClaims(claims), domain.OutcomeValid
	case errors.Is(err, jwtx.ErrWrongKind):
		return domain.Identity{}, domain.OutcomeWrongPurpose
	case errors.Is(err, jwtx.ErrExpired):
		return domain.Identity{}, domain.OutcomeExpired
	default:
		return domain.Identity{}, domain.OutcomeMalformed
	}
}

// DecodeUnverified extracts the identity without any signature or expiry
// check. Display use only; it must never gate an action.
func (s *TokenService) DecodeUnverified(token string) domain.Identity {
	claims, err := jwtx.DecodeUnverified(token)
	if err != nil {
		return domain.Identity{}
	}
	return identityFromClaims(claims)
}

func (s *TokenService) signAccess(identity domain.Identity, now time.Time) (string, error) {
	claims := jwtx.NewClaims(
		identity.SubjectID,
		jwtx.KindAccess,
		identity.Email,
		identity.Username,
		identity.Role,
		s.AccessTTL,
		s.Codec.Issuer(),
		now,
	)
	return s.Codec.Sign(claims)
}

func identityFromClaims(c jwtx.Claims) domain.Identity {
	return domain.Identity{
		SubjectID: c.Subject,
		Email:     c.Email,
		Username:  c.Username,
		Role:      c.Role,
	}
}
