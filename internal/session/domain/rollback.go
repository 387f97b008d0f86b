package domain

import "time"

// RollbackRecord preserves the password hash that was current immediately
// before a completed reset, so support tooling can restore it during the
// rollback window. At most one live record exists per subject; a newer reset
// supersedes the older record.
type RollbackRecord struct {
	ID                   string
	SubjectID            string
	PreviousPasswordHash string
	CreatedAt            time.Time
	ExpiresAt            time.Time
}

// Live reports whether the record is still within its rollback window.
func (r RollbackRecord) Live(now time.Time) bool {
	return now.Before(r.ExpiresAt)
}
