package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	domainerrors "ballotbox/contexts/election-core/ballot-integrity/domain/errors"
	"ballotbox/contexts/election-core/ballot-integrity/ports"
)

// Store is the in-memory integrity repository used by tests and local wiring.
// The seed setters let tests stage arbitrary corruption (orphans, stale flags,
// drifted counters) before running the checks.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	ballots map[string]ports.BallotSnapshot
	voters  map[string]ports.VoterSnapshot
	votes   map[string]ports.VoteSnapshot
}

func NewStore() *Store {
	return &Store{
		ballots: make(map[string]ports.BallotSnapshot),
		voters:  make(map[string]ports.VoterSnapshot),
		votes:   make(map[string]ports.VoteSnapshot),
	}
}

func (s *Store) SetBallot(ballot ports.BallotSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ballots[strings.TrimSpace(ballot.BallotID)] = ballot
}

func (s *Store) SetVoter(voter ports.VoterSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voters[strings.TrimSpace(voter.VoterID)] = voter
}

func (s *Store) SetVote(vote ports.VoteSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.votes[strings.TrimSpace(vote.VoteID)] = vote
}

// RemoveVoter deletes a voter row while leaving its votes behind, which is
// how tests manufacture orphaned votes.
func (s *Store) RemoveVoter(voterID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.voters, strings.TrimSpace(voterID))
}

// Ballot returns the tracked ballot snapshot, for counter assertions.
func (s *Store) Ballot(ballotID string) (ports.BallotSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ballot, ok := s.ballots[strings.TrimSpace(ballotID)]
	return ballot, ok
}

// Voters returns every voter row for a ballot, for post-repair assertions.
func (s *Store) Voters(ballotID string) []ports.VoterSnapshot {
	voters, _ := s.ListVoters(context.Background(), ballotID)
	return voters
}

func (s *Store) WithinTx(_ context.Context, fn func(ports.IntegrityRepository) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(s)
}

func (s *Store) GetBallot(_ context.Context, ballotID string) (ports.BallotSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ballot, ok := s.ballots[strings.TrimSpace(ballotID)]
	if !ok {
		return ports.BallotSnapshot{}, domainerrors.ErrBallotNotFound
	}
	return ballot, nil
}

func (s *Store) ListBallotIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.ballots))
	for id := range s.ballots {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) ListVoters(_ context.Context, ballotID string) ([]ports.VoterSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]ports.VoterSnapshot, 0)
	for _, voter := range s.voters {
		if voter.BallotID == strings.TrimSpace(ballotID) {
			items = append(items, voter)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].VoterID < items[j].VoterID
	})
	return items, nil
}

func (s *Store) ListVotes(_ context.Context, ballotID string) ([]ports.VoteSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]ports.VoteSnapshot, 0)
	for _, vote := range s.votes {
		if vote.BallotID == strings.TrimSpace(ballotID) {
			items = append(items, vote)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].VoteID < items[j].VoteID
	})
	return items, nil
}

func (s *Store) InsertVoter(_ context.Context, voter ports.VoterSnapshot, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voters[strings.TrimSpace(voter.VoterID)] = voter
	return nil
}

func (s *Store) SetVoterHasVoted(_ context.Context, voterID string, hasVoted bool, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	voter, ok := s.voters[strings.TrimSpace(voterID)]
	if !ok {
		return domainerrors.ErrVoterNotFound
	}
	voter.HasVoted = hasVoted
	s.voters[strings.TrimSpace(voterID)] = voter
	return nil
}

func (s *Store) SetBallotCounters(_ context.Context, ballotID string, totalVoters int, ballotsReceived int, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ballot, ok := s.ballots[strings.TrimSpace(ballotID)]
	if !ok {
		return domainerrors.ErrBallotNotFound
	}
	ballot.TotalVoters = totalVoters
	ballot.BallotsReceived = ballotsReceived
	s.ballots[strings.TrimSpace(ballotID)] = ballot
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}
