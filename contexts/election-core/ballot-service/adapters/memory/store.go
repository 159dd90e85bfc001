package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"ballotbox/contexts/election-core/ballot-service/domain/entities"
	domainerrors "ballotbox/contexts/election-core/ballot-service/domain/errors"
	"ballotbox/contexts/election-core/ballot-service/ports"

	"github.com/google/uuid"
)

// Store is the in-memory ballot repository used by tests and local wiring.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	ballots   map[string]entities.Ballot
	questions map[string]entities.Question
	choices   map[string]entities.Choice
}

func NewStore(seed []entities.Ballot) *Store {
	ballots := make(map[string]entities.Ballot, len(seed))
	for _, ballot := range seed {
		ballots[ballot.BallotID] = ballot
	}
	return &Store{
		ballots:   ballots,
		questions: make(map[string]entities.Question),
		choices:   make(map[string]entities.Choice),
	}
}

func (s *Store) WithinTx(_ context.Context, fn func(ports.BallotRepository) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(s)
}

func (s *Store) InsertBallot(_ context.Context, ballot entities.Ballot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ballots[strings.TrimSpace(ballot.BallotID)] = ballot
	return nil
}

func (s *Store) InsertQuestions(_ context.Context, questions []entities.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, question := range questions {
		s.questions[strings.TrimSpace(question.QuestionID)] = question
	}
	return nil
}

func (s *Store) InsertChoices(_ context.Context, choices []entities.Choice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, choice := range choices {
		s.choices[strings.TrimSpace(choice.ChoiceID)] = choice
	}
	return nil
}

func (s *Store) GetBallot(_ context.Context, ballotID string) (entities.Ballot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ballot, ok := s.ballots[strings.TrimSpace(ballotID)]
	if !ok {
		return entities.Ballot{}, domainerrors.ErrBallotNotFound
	}
	return ballot, nil
}

func (s *Store) SaveBallot(_ context.Context, ballot entities.Ballot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ballots[strings.TrimSpace(ballot.BallotID)]; !ok {
		return domainerrors.ErrBallotNotFound
	}
	s.ballots[strings.TrimSpace(ballot.BallotID)] = ballot
	return nil
}

func (s *Store) ListBallots(_ context.Context, filter ports.BallotFilter) ([]entities.Ballot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Ballot, 0, len(s.ballots))
	for _, ballot := range s.ballots {
		if filter.Status != "" && ballot.Status != filter.Status {
			continue
		}
		items = append(items, ballot)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].BallotID < items[j].BallotID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) ListQuestions(_ context.Context, ballotID string) ([]entities.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Question, 0)
	for _, question := range s.questions {
		if question.BallotID == strings.TrimSpace(ballotID) {
			items = append(items, question)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Position < items[j].Position
	})
	return items, nil
}

func (s *Store) ListChoices(_ context.Context, ballotID string) ([]entities.Choice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	questionIDs := make(map[string]bool)
	for _, question := range s.questions {
		if question.BallotID == strings.TrimSpace(ballotID) {
			questionIDs[question.QuestionID] = true
		}
	}
	items := make([]entities.Choice, 0)
	for _, choice := range s.choices {
		if questionIDs[choice.QuestionID] {
			items = append(items, choice)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].QuestionID == items[j].QuestionID {
			return items[i].Position < items[j].Position
		}
		return items[i].QuestionID < items[j].QuestionID
	})
	return items, nil
}

func (s *Store) ActivateScheduledBallots(_ context.Context, now time.Time, limit int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	activated := make([]string, 0)
	for id, ballot := range s.ballots {
		if len(activated) >= limit {
			break
		}
		if ballot.Status != entities.BallotStatusScheduled {
			continue
		}
		if ballot.StartDate == nil || ballot.StartDate.UTC().After(now) {
			continue
		}
		ballot.Status = entities.BallotStatusActive
		ballot.UpdatedAt = now
		s.ballots[id] = ballot
		activated = append(activated, id)
	}
	sort.Strings(activated)
	return activated, nil
}

func (s *Store) CompleteExpiredBallots(_ context.Context, now time.Time, limit int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	completed := make([]string, 0)
	for id, ballot := range s.ballots {
		if len(completed) >= limit {
			break
		}
		if ballot.Status != entities.BallotStatusActive {
			continue
		}
		if ballot.EndDate == nil || ballot.EndDate.UTC().After(now) {
			continue
		}
		ballot.Status = entities.BallotStatusCompleted
		ballot.UpdatedAt = now
		s.ballots[id] = ballot
		completed = append(completed, id)
	}
	sort.Strings(completed)
	return completed, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
