package ports

import (
	"context"
	"time"
)

// BallotSnapshot is the slice of the ballot row the integrity checks read.
type BallotSnapshot struct {
	BallotID        string
	Status          string
	CreatorEmail    string
	TotalVoters     int
	BallotsReceived int
}

type VoterSnapshot struct {
	VoterID     string
	BallotID    string
	Email       string
	Name        string
	HasVoted    bool
	IsVerified  bool
	Placeholder bool
}

type VoteSnapshot struct {
	VoteID     string
	BallotID   string
	VoterID    string
	QuestionID string
	ChoiceID   string
}

// IntegrityRepository is the storage port shared by the validator and the
// repair engine. The validator only calls the read methods; the repair engine
// performs all of its writes through a WithinTx view so the placeholder
// inserts, flag corrections, and counter rewrites commit as one unit.
type IntegrityRepository interface {
	WithinTx(ctx context.Context, fn func(IntegrityRepository) error) error

	GetBallot(ctx context.Context, ballotID string) (BallotSnapshot, error)
	ListBallotIDs(ctx context.Context) ([]string, error)
	ListVoters(ctx context.Context, ballotID string) ([]VoterSnapshot, error)
	ListVotes(ctx context.Context, ballotID string) ([]VoteSnapshot, error)

	InsertVoter(ctx context.Context, voter VoterSnapshot, now time.Time) error
	SetVoterHasVoted(ctx context.Context, voterID string, hasVoted bool, now time.Time) error
	SetBallotCounters(ctx context.Context, ballotID string, totalVoters int, ballotsReceived int, now time.Time) error
}

type Clock interface {
	Now() time.Time
}
