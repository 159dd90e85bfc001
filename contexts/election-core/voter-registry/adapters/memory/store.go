package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"ballotbox/contexts/election-core/voter-registry/domain/entities"
	domainerrors "ballotbox/contexts/election-core/voter-registry/domain/errors"
	"ballotbox/contexts/election-core/voter-registry/ports"

	"github.com/google/uuid"
)

// Store is the in-memory registry repository used by tests and local wiring.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	ballots map[string]ports.BallotRef
	voters  map[string]entities.Voter
}

func NewStore(seed []entities.Voter) *Store {
	voters := make(map[string]entities.Voter, len(seed))
	for _, voter := range seed {
		voters[voter.VoterID] = voter
	}
	return &Store{
		ballots: make(map[string]ports.BallotRef),
		voters:  voters,
	}
}

func (s *Store) SetBallot(ballot ports.BallotRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ballots[strings.TrimSpace(ballot.BallotID)] = ballot
}

// Ballot returns the tracked ballot ref, for counter assertions in tests.
func (s *Store) Ballot(ballotID string) (ports.BallotRef, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ballot, ok := s.ballots[strings.TrimSpace(ballotID)]
	return ballot, ok
}

func (s *Store) WithinTx(_ context.Context, fn func(ports.RegistryRepository) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(s)
}

func (s *Store) GetBallot(_ context.Context, ballotID string) (ports.BallotRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ballot, ok := s.ballots[strings.TrimSpace(ballotID)]
	if !ok {
		return ports.BallotRef{}, domainerrors.ErrBallotNotFound
	}
	return ballot, nil
}

func (s *Store) GetVoterByEmail(_ context.Context, ballotID string, email string) (entities.Voter, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ballotID = strings.TrimSpace(ballotID)
	email = entities.NormalizeEmail(email)
	for _, voter := range s.voters {
		if voter.BallotID == ballotID && entities.NormalizeEmail(voter.Email) == email {
			return voter, true, nil
		}
	}
	return entities.Voter{}, false, nil
}

func (s *Store) GetVoter(_ context.Context, ballotID string, voterID string) (entities.Voter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	voter, ok := s.voters[strings.TrimSpace(voterID)]
	if !ok || voter.BallotID != strings.TrimSpace(ballotID) {
		return entities.Voter{}, domainerrors.ErrVoterNotFound
	}
	return voter, nil
}

func (s *Store) InsertVoter(_ context.Context, voter entities.Voter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voters[strings.TrimSpace(voter.VoterID)] = voter
	return nil
}

func (s *Store) SaveVoter(_ context.Context, voter entities.Voter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.voters[strings.TrimSpace(voter.VoterID)]; !ok {
		return domainerrors.ErrVoterNotFound
	}
	s.voters[strings.TrimSpace(voter.VoterID)] = voter
	return nil
}

func (s *Store) CountVoters(_ context.Context, ballotID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, voter := range s.voters {
		if voter.BallotID == strings.TrimSpace(ballotID) {
			count++
		}
	}
	return count, nil
}

func (s *Store) SetTotalVoters(_ context.Context, ballotID string, total int, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ballot, ok := s.ballots[strings.TrimSpace(ballotID)]
	if !ok {
		return domainerrors.ErrBallotNotFound
	}
	ballot.TotalVoters = total
	s.ballots[strings.TrimSpace(ballotID)] = ballot
	return nil
}

func (s *Store) ListVoters(_ context.Context, ballotID string) ([]entities.Voter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Voter, 0)
	for _, voter := range s.voters {
		if voter.BallotID == strings.TrimSpace(ballotID) {
			items = append(items, voter)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].Email < items[j].Email
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
