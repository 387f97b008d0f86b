package domain

import "time"

type User struct {
	ID           string
	Email        string
	Username     string
	Role         string
	PasswordHash string // argon2 encoded
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity is the tuple carried inside signed credentials. Verified claims
// round-trip exactly this data; nothing downstream re-derives it.
func (u User) Identity() Identity {
	return Identity{
		SubjectID: u.ID,
		Email:     u.Email,
		Username:  u.Username,
		Role:      u.Role,
	}
}
