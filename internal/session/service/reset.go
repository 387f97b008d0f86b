package service

import (
	"context"
	"errors"
	"time"

	"github.com/harborcrest/passage/internal/session/domain"
	"github.com/harborcrest/passage/internal/session/store"
	"github.com/harborcrest/passage/pkg/cryptox"
	"github.com/harborcrest/passage/pkg/idx"
	"github.com/harborcrest/passage/pkg/slogx"
)

// DefaultRollbackWindow is how long a superseded password hash stays
// restorable after a completed reset.
const DefaultRollbackWindow = 24 * time.Hour

// ResetService drives the password-reset flow: minting reset credentials and
// applying the credential change with its rollback record.
type ResetService struct {
	Tokens         *TokenService
	Store          store.Store
	RollbackWindow time.Duration

	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

func (s *ResetService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *ResetService) rollbackWindow() time.Duration {
	if s.RollbackWindow > 0 {
		return s.RollbackWindow
	}
	return DefaultRollbackWindow
}

// RequestReset resolves an email-or-username identifier and mints a reset
// credential for that subject. Delivery is the caller's concern. An unknown
// identifier is reported as ErrUserNotFound.
func (s *ResetService) RequestReset(ctx context.Context, identifier string) (string, error) {
	u, err := s.Store.Users().GetUserByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}

	return s.Tokens.IssuePasswordReset(u.Identity())
}

// CompleteReset applies a verified reset credential: it writes a rollback
// record carrying the pre-update hash, installs the new password hash, and
// revokes every refresh credential the subject holds, all in one
// transaction. A rollback write failure aborts the whole reset.
func (s *ResetService) CompleteReset(ctx context.Context, token, newPassword string) error {
	l := slogx.FromContext(ctx)
	now := s.now()

	identity, outcome := s.Tokens.VerifyPasswordReset(token)
	if outcome != domain.OutcomeValid {
		l.Info("reset credential rejected", "outcome", outcome.String())
		return ErrInvalidReset
	}

	newHash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		u, err := tx.Users().GetUserByID(ctx, identity.SubjectID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrSubjectMismatch
			}
			return err
		}

		rec := domain.RollbackRecord{
			ID:                   idx.New().String(),
			SubjectID:            u.ID,
			PreviousPasswordHash: u.PasswordHash,
			CreatedAt:            now,
			ExpiresAt:            now.Add(s.rollbackWindow()),
		}
		if err := tx.RollbackRecords().PutRollbackRecord(ctx, rec); err != nil {
			return err
		}

		if err := tx.Users().UpdatePasswordHash(ctx, u.ID, newHash); err != nil {
			return err
		}

		// Existing sessions die with the old password.
		return tx.RefreshTokens().RevokeAllSubjectRefreshTokens(ctx, u.ID)
	})
	if err != nil {
		return err
	}

	l.Info("password reset completed", "subject_id", identity.SubjectID)
	return nil
}
