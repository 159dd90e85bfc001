package ports

import (
	"context"
	"time"

	"ballotbox/contexts/election-core/vote-casting/domain/entities"
	"ballotbox/internal/shared/events"
)

// BallotProjection is the slice of the ballot row the casting path reads.
type BallotProjection struct {
	BallotID            string
	Status              string
	CreatorEmail        string
	RequireVerification bool
	TotalVoters         int
	BallotsReceived     int
}

// QuestionProjection mirrors the questions table for answer validation and
// tallying.
type QuestionProjection struct {
	QuestionID    string
	BallotID      string
	Prompt        string
	Type          entities.QuestionType
	MaxSelections int
	Position      int
}

type ChoiceProjection struct {
	ChoiceID   string
	QuestionID string
	Label      string
	Position   int
}

// VoterRecord is the voter row as the casting path sees it. The casting
// transaction is the only writer of HasVoted.
type VoterRecord struct {
	VoterID    string
	BallotID   string
	Email      string
	HasVoted   bool
	IsVerified bool
}

// CastingRepository is the storage port for the vote casting transaction and
// the results read model.
//
// WithinTx runs fn against a transactional view of the repository. Every
// write issued through that view commits atomically with the others or not at
// all. GetVoterForUpdate must hold a row-level lock on the voter until the
// transaction ends, so the has-voted check and the eventual write cannot
// interleave with a concurrent casting call for the same voter.
type CastingRepository interface {
	WithinTx(ctx context.Context, fn func(CastingRepository) error) error

	GetBallot(ctx context.Context, ballotID string) (BallotProjection, error)
	ListQuestions(ctx context.Context, ballotID string) ([]QuestionProjection, error)
	ListChoices(ctx context.Context, ballotID string) ([]ChoiceProjection, error)

	GetVoterForUpdate(ctx context.Context, voterID string) (VoterRecord, error)
	SaveVoterFlags(ctx context.Context, voter VoterRecord, updatedAt time.Time) error

	InsertVotes(ctx context.Context, votes []entities.Vote) error
	ListVotesByBallot(ctx context.Context, ballotID string) ([]entities.Vote, error)
	IncrementBallotsReceived(ctx context.Context, ballotID string, updatedAt time.Time) error

	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

// EventEnvelope reuses the canonical cross-module envelope contract.
type EventEnvelope = events.Envelope

// OutboxMessage is a row ready to relay from the module outbox.
type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

// OutboxRepository models worker-side outbox polling/acknowledgement.
type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

// EventPublisher publishes canonical envelopes to a topic.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
