package store

import (
	"context"
	"errors"
	"time"

	"github.com/harborcrest/passage/internal/session/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers implement this.
// Sub-repositories keep concerns tidy and testable, and make it harder to
// accidentally open a transaction within a transaction.
type Store interface {
	Users() Users
	RefreshTokens() RefreshTokens
	RollbackRecords() RollbackRecords

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// Use it for multi-step operations that must be atomic (refresh rotation,
	// reset completion). The caller MUST call Commit() or Rollback().
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction: rolled back when fn errors,
	// committed when it returns nil. Preferred over Tx directly.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByIdentifier resolves an email or username to a user. Used by
	// the password grant and the reset request flow.
	GetUserByIdentifier(ctx context.Context, identifier string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	CreateUser(ctx context.Context, u domain.User) error

	// UpdatePasswordHash sets the password_hash (argon2) and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID string, newHash string) error
}

type RefreshTokens interface {
	// CreateRefreshToken stores a new refresh credential record.
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetRefreshTokenByHash returns the record by its fingerprint.
	GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error)

	// RevokeRefreshToken flips revoked=1 and bumps updated_at. Revoking an
	// unknown or already-revoked fingerprint is a no-op, not an error.
	RevokeRefreshToken(ctx context.Context, hash string) error

	// RevokeAllSubjectRefreshTokens bulk revocation for a subject (e.g.,
	// after a completed password reset).
	RevokeAllSubjectRefreshTokens(ctx context.Context, subjectID string) error

	// DeleteExpiredRefreshTokens is housekeeping.
	DeleteExpiredRefreshTokens(ctx context.Context) error
}

type RollbackRecords interface {
	// PutRollbackRecord inserts the record, superseding any existing record
	// for the same subject. At most one record per subject survives.
	PutRollbackRecord(ctx context.Context, r domain.RollbackRecord) error

	// GetLiveRollbackRecord returns the subject's record only while its
	// rollback window is still open at now; ErrNotFound otherwise.
	GetLiveRollbackRecord(ctx context.Context, subjectID string, now time.Time) (domain.RollbackRecord, error)

	// DeleteExpiredRollbackRecords is housekeeping.
	DeleteExpiredRollbackRecords(ctx context.Context) error
}
