package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"ballotbox/contexts/election-core/vote-casting/domain/entities"
	domainerrors "ballotbox/contexts/election-core/vote-casting/domain/errors"
	"ballotbox/contexts/election-core/vote-casting/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

// Store is the in-memory casting repository used by tests and local wiring.
// WithinTx serializes transaction bodies with a dedicated mutex, which gives
// the same voter-level exclusion the postgres adapter gets from its row lock.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	ballots   map[string]ports.BallotProjection
	questions map[string]ports.QuestionProjection
	choices   map[string]ports.ChoiceProjection
	voters    map[string]ports.VoterRecord
	votes     map[string]entities.Vote
	outbox    map[string]outboxRecord
}

func NewStore(seed []entities.Vote) *Store {
	votes := make(map[string]entities.Vote, len(seed))
	for _, vote := range seed {
		votes[vote.VoteID] = vote
	}
	return &Store{
		ballots:   make(map[string]ports.BallotProjection),
		questions: make(map[string]ports.QuestionProjection),
		choices:   make(map[string]ports.ChoiceProjection),
		voters:    make(map[string]ports.VoterRecord),
		votes:     votes,
		outbox:    make(map[string]outboxRecord),
	}
}

func (s *Store) SetBallot(ballot ports.BallotProjection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ballots[strings.TrimSpace(ballot.BallotID)] = ballot
}

func (s *Store) SetQuestion(question ports.QuestionProjection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions[strings.TrimSpace(question.QuestionID)] = question
}

func (s *Store) SetChoice(choice ports.ChoiceProjection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.choices[strings.TrimSpace(choice.ChoiceID)] = choice
}

func (s *Store) SetVoter(voter ports.VoterRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voters[strings.TrimSpace(voter.VoterID)] = voter
}

// Voters returns a snapshot of voter rows, for test assertions and for
// seeding sibling module stores in integration-style tests.
func (s *Store) Voters() []ports.VoterRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]ports.VoterRecord, 0, len(s.voters))
	for _, voter := range s.voters {
		items = append(items, voter)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].VoterID < items[j].VoterID })
	return items
}

// Votes returns a snapshot of vote rows.
func (s *Store) Votes() []entities.Vote {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Vote, 0, len(s.votes))
	for _, vote := range s.votes {
		items = append(items, vote)
	}
	sortVotesByCreation(items)
	return items
}

// Ballot returns the current projection for assertions on counters.
func (s *Store) Ballot(ballotID string) (ports.BallotProjection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ballot, ok := s.ballots[strings.TrimSpace(ballotID)]
	return ballot, ok
}

func (s *Store) WithinTx(_ context.Context, fn func(ports.CastingRepository) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(s)
}

func (s *Store) GetBallot(_ context.Context, ballotID string) (ports.BallotProjection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ballot, ok := s.ballots[strings.TrimSpace(ballotID)]
	if !ok {
		return ports.BallotProjection{}, domainerrors.ErrBallotNotFound
	}
	return ballot, nil
}

func (s *Store) ListQuestions(_ context.Context, ballotID string) ([]ports.QuestionProjection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]ports.QuestionProjection, 0)
	for _, question := range s.questions {
		if question.BallotID == strings.TrimSpace(ballotID) {
			items = append(items, question)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Position < items[j].Position })
	return items, nil
}

func (s *Store) ListChoices(_ context.Context, ballotID string) ([]ports.ChoiceProjection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	owned := make(map[string]bool)
	for _, question := range s.questions {
		if question.BallotID == strings.TrimSpace(ballotID) {
			owned[question.QuestionID] = true
		}
	}
	items := make([]ports.ChoiceProjection, 0)
	for _, choice := range s.choices {
		if owned[choice.QuestionID] {
			items = append(items, choice)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Position < items[j].Position })
	return items, nil
}

func (s *Store) GetVoterForUpdate(_ context.Context, voterID string) (ports.VoterRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	voter, ok := s.voters[strings.TrimSpace(voterID)]
	if !ok {
		return ports.VoterRecord{}, domainerrors.ErrVoterNotFound
	}
	return voter, nil
}

func (s *Store) SaveVoterFlags(_ context.Context, voter ports.VoterRecord, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.voters[strings.TrimSpace(voter.VoterID)]
	if !ok {
		return domainerrors.ErrVoterNotFound
	}
	existing.HasVoted = voter.HasVoted
	existing.IsVerified = voter.IsVerified
	s.voters[strings.TrimSpace(voter.VoterID)] = existing
	return nil
}

func (s *Store) InsertVotes(_ context.Context, votes []entities.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, vote := range votes {
		s.votes[strings.TrimSpace(vote.VoteID)] = vote
	}
	return nil
}

func (s *Store) ListVotesByBallot(_ context.Context, ballotID string) ([]entities.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Vote, 0)
	for _, vote := range s.votes {
		if vote.BallotID == strings.TrimSpace(ballotID) {
			items = append(items, vote)
		}
	}
	sortVotesByCreation(items)
	return items, nil
}

func (s *Store) IncrementBallotsReceived(_ context.Context, ballotID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ballot, ok := s.ballots[strings.TrimSpace(ballotID)]
	if !ok {
		return domainerrors.ErrBallotNotFound
	}
	ballot.BallotsReceived++
	s.ballots[strings.TrimSpace(ballotID)] = ballot
	return nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	if _, ok := s.outbox[outboxID]; ok {
		return nil
	}
	createdAt := envelope.OccurredAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	s.outbox[outboxID] = outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    strings.TrimSpace(envelope.EventType),
			PartitionKey: strings.TrimSpace(envelope.PartitionKey),
			Payload:      payload,
			CreatedAt:    createdAt,
		},
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0, len(s.outbox))
	for _, row := range s.outbox {
		if row.published {
			continue
		}
		items = append(items, row.message)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrTransactionFailure
	}
	row.published = true
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func sortVotesByCreation(items []entities.Vote) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].VoteID < items[j].VoteID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
}
