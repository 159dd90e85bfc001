package ports

import (
	"context"
	"time"

	"ballotbox/contexts/election-core/ballot-service/domain/entities"
)

type BallotFilter struct {
	Status entities.BallotStatus
}

// BallotRepository is the storage port for the ballot lifecycle. CreateBallot
// runs its three inserts through a WithinTx view so the ballot, its
// questions, and their choices commit as one unit.
type BallotRepository interface {
	WithinTx(ctx context.Context, fn func(BallotRepository) error) error

	InsertBallot(ctx context.Context, ballot entities.Ballot) error
	InsertQuestions(ctx context.Context, questions []entities.Question) error
	InsertChoices(ctx context.Context, choices []entities.Choice) error

	GetBallot(ctx context.Context, ballotID string) (entities.Ballot, error)
	SaveBallot(ctx context.Context, ballot entities.Ballot) error
	ListBallots(ctx context.Context, filter BallotFilter) ([]entities.Ballot, error)
	ListQuestions(ctx context.Context, ballotID string) ([]entities.Question, error)
	ListChoices(ctx context.Context, ballotID string) ([]entities.Choice, error)
}

// DeadlineRepository backs the lifecycle sweep: scheduled ballots whose start
// date passed become active, active ballots whose end date passed complete.
type DeadlineRepository interface {
	ActivateScheduledBallots(ctx context.Context, now time.Time, limit int) ([]string, error)
	CompleteExpiredBallots(ctx context.Context, now time.Time, limit int) ([]string, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
