package domain

// Outcome classifies a verification result. Expired and malformed are kept
// distinct: expiry is the routine signal that drives a refresh, malformed
// means the credential was never ours.
type Outcome int

const (
	OutcomeValid Outcome = iota
	OutcomeExpired
	OutcomeMalformed
	OutcomeWrongPurpose
)

func (o Outcome) String() string {
	switch o {
	case OutcomeValid:
		return "valid"
	case OutcomeExpired:
		return "expired"
	case OutcomeMalformed:
		return "malformed"
	case OutcomeWrongPurpose:
		return "wrong_purpose"
	default:
		return "unknown"
	}
}
