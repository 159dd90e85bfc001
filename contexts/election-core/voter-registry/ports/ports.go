package ports

import (
	"context"
	"time"

	"ballotbox/contexts/election-core/voter-registry/domain/entities"
)

// BallotRef is the slice of the ballot row registration needs.
type BallotRef struct {
	BallotID    string
	Status      string
	TotalVoters int
}

// RegistryRepository is the storage port for voter registration.
//
// WithinTx runs fn against a transactional view; the bulk path inserts and
// recounts inside one transaction so total_voters converges on the real count
// even under concurrent callers.
type RegistryRepository interface {
	WithinTx(ctx context.Context, fn func(RegistryRepository) error) error

	GetBallot(ctx context.Context, ballotID string) (BallotRef, error)
	GetVoterByEmail(ctx context.Context, ballotID string, email string) (entities.Voter, bool, error)
	GetVoter(ctx context.Context, ballotID string, voterID string) (entities.Voter, error)
	InsertVoter(ctx context.Context, voter entities.Voter) error
	SaveVoter(ctx context.Context, voter entities.Voter) error
	CountVoters(ctx context.Context, ballotID string) (int, error)
	SetTotalVoters(ctx context.Context, ballotID string, total int, updatedAt time.Time) error
	ListVoters(ctx context.Context, ballotID string) ([]entities.Voter, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
