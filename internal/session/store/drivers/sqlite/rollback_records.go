package sqlite

import (
	"context"
	"time"

	"github.com/harborcrest/passage/internal/session/domain"
)

type rollbackRecordsRepo struct {
	db dbtx
}

// PutRollbackRecord upserts on subject_id: a newer reset supersedes the
// subject's previous record so at most one survives.
func (r *rollbackRecordsRepo) PutRollbackRecord(ctx context.Context, rec domain.RollbackRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO rollback_records (id, subject_id, previous_password_hash, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (subject_id) DO UPDATE SET
		   id = excluded.id,
		   previous_password_hash = excluded.previous_password_hash,
		   created_at = excluded.created_at,
		   expires_at = excluded.expires_at`,
		rec.ID, rec.SubjectID, rec.PreviousPasswordHash, rec.CreatedAt, rec.ExpiresAt)
	return err
}

func (r *rollbackRecordsRepo) GetLiveRollbackRecord(
	ctx context.Context,
	subjectID string,
	now time.Time,
) (domain.RollbackRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, subject_id, previous_password_hash, created_at, expires_at
		 FROM rollback_records WHERE subject_id = ? AND expires_at > ?`,
		subjectID, now.UTC())

	var rec domain.RollbackRecord
	err := row.Scan(&rec.ID, &rec.SubjectID, &rec.PreviousPasswordHash, &rec.CreatedAt, &rec.ExpiresAt)
	if err != nil {
		return domain.RollbackRecord{}, mapNotFound(err)
	}
	return rec, nil
}

func (r *rollbackRecordsRepo) DeleteExpiredRollbackRecords(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM rollback_records WHERE expires_at < ?`, time.Now().UTC())
	return err
}
