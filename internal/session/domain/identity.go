package domain

// Identity is the authenticated principal as captured at credential mint
// time: stable subject ID plus the display attributes embedded in tokens.
type Identity struct {
	SubjectID string `json:"subject_id"`
	Email     string `json:"email,omitempty"`
	Username  string `json:"username,omitempty"`
	Role      string `json:"role,omitempty"`
}

// IsZero reports whether the identity carries no subject.
func (i Identity) IsZero() bool { return i.SubjectID == "" }
