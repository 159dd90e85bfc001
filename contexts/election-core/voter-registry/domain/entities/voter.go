package entities

import (
	"strings"
	"time"
)

// Voter is a participant registered against exactly one ballot, identified by
// a normalized email unique within that ballot. HasVoted flips exactly once,
// by the casting transaction, and is never reset here.
type Voter struct {
	VoterID     string
	BallotID    string
	Email       string
	Name        string
	HasVoted    bool
	IsVerified  bool
	Placeholder bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NormalizeEmail is the canonical form used for the per-ballot uniqueness
// check.
func NormalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func IsPlausibleEmail(value string) bool {
	value = NormalizeEmail(value)
	at := strings.Index(value, "@")
	if at < 1 || at == len(value)-1 {
		return false
	}
	return !strings.ContainsAny(value, " \t")
}
