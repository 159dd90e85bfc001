package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	application "ballotbox/contexts/election-core/ballot-integrity/application"
	"ballotbox/contexts/election-core/ballot-integrity/domain/entities"
	domainerrors "ballotbox/contexts/election-core/ballot-integrity/domain/errors"
	"ballotbox/contexts/election-core/ballot-integrity/ports"
)

// RepairUseCase is the corrective counterpart of the validator. One run, one
// transaction: synthesize placeholder voters for orphaned votes, recompute
// every has_voted flag from the vote rows, and rewrite both ballot counters
// from the fact tables. Running it on a clean ballot changes nothing.
//
// Repair takes exclusive write access to the ballot's rows and must not run
// concurrently with casting against the same ballot; it is an admin action.
type RepairUseCase struct {
	Repo   ports.IntegrityRepository
	Clock  ports.Clock
	Logger *slog.Logger
}

func (uc RepairUseCase) RepairBallot(ctx context.Context, ballotID string) (entities.RepairStats, error) {
	logger := application.ResolveLogger(uc.Logger)
	ballotID = strings.TrimSpace(ballotID)
	now := uc.now()

	var stats entities.RepairStats
	err := uc.Repo.WithinTx(ctx, func(tx ports.IntegrityRepository) error {
		if _, err := tx.GetBallot(ctx, ballotID); err != nil {
			return err
		}
		voters, err := tx.ListVoters(ctx, ballotID)
		if err != nil {
			return err
		}
		votes, err := tx.ListVotes(ctx, ballotID)
		if err != nil {
			return err
		}
		stats.TotalVotes = len(votes)

		known := make(map[string]bool, len(voters))
		for _, voter := range voters {
			known[voter.VoterID] = true
		}
		votesByVoter := make(map[string]int, len(voters))
		for _, vote := range votes {
			votesByVoter[vote.VoterID]++
		}

		// Orphaned votes keep their original voter id; only a placeholder
		// voter row can restore the reference, since a vote row carries no
		// identity data beyond that id.
		orphanIDs := make([]string, 0)
		for voterID := range votesByVoter {
			if !known[voterID] {
				orphanIDs = append(orphanIDs, voterID)
			}
		}
		sort.Strings(orphanIDs)
		for _, voterID := range orphanIDs {
			placeholder := ports.VoterSnapshot{
				VoterID:     voterID,
				BallotID:    ballotID,
				Email:       fmt.Sprintf("repaired+%s@placeholder.invalid", voterID),
				Name:        "Recovered voter",
				HasVoted:    true,
				Placeholder: true,
			}
			if err := tx.InsertVoter(ctx, placeholder, now); err != nil {
				return err
			}
			stats.CreatedVoters++
			stats.FixedVotes += votesByVoter[voterID]
			known[voterID] = true
		}

		for _, voter := range voters {
			shouldHaveVoted := votesByVoter[voter.VoterID] > 0
			if voter.HasVoted == shouldHaveVoted {
				continue
			}
			if err := tx.SetVoterHasVoted(ctx, voter.VoterID, shouldHaveVoted, now); err != nil {
				return err
			}
		}

		stats.FinalTotalVoters = len(voters) + stats.CreatedVoters
		stats.FinalVotedVoters = len(votesByVoter)
		return tx.SetBallotCounters(ctx, ballotID, stats.FinalTotalVoters, stats.FinalVotedVoters, now)
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrBallotNotFound) {
			return entities.RepairStats{}, err
		}
		logger.Error("repair transaction rolled back",
			"event", "integrity_repair_failed",
			"module", "election-core/ballot-integrity",
			"layer", "application",
			"ballot_id", ballotID,
			"error", err.Error(),
		)
		return entities.RepairStats{}, fmt.Errorf("%w: %v", domainerrors.ErrRepairTx, err)
	}

	logger.Info("ballot repaired",
		"event", "integrity_ballot_repaired",
		"module", "election-core/ballot-integrity",
		"layer", "application",
		"ballot_id", ballotID,
		"total_votes", stats.TotalVotes,
		"created_voters", stats.CreatedVoters,
		"fixed_votes", stats.FixedVotes,
		"final_total_voters", stats.FinalTotalVoters,
		"final_voted_voters", stats.FinalVotedVoters,
	)
	return stats, nil
}

func (uc RepairUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}
