package queries

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	application "ballotbox/contexts/election-core/ballot-integrity/application"
	"ballotbox/contexts/election-core/ballot-integrity/domain/entities"
	domainerrors "ballotbox/contexts/election-core/ballot-integrity/domain/errors"
	"ballotbox/contexts/election-core/ballot-integrity/ports"
)

// ValidatorUseCase runs the read-only integrity checks. It never writes.
type ValidatorUseCase struct {
	Repo   ports.IntegrityRepository
	Logger *slog.Logger
}

// ValidateBallot inspects one ballot and reports every discrepancy it finds:
// orphaned votes, creator self-votes, counter drift, and has_voted flags that
// disagree with the vote rows. A discrepancy is data in the report, never an
// error return.
func (uc ValidatorUseCase) ValidateBallot(ctx context.Context, ballotID string) (entities.Report, error) {
	ballotID = strings.TrimSpace(ballotID)
	ballot, err := uc.Repo.GetBallot(ctx, ballotID)
	if err != nil {
		return entities.Report{}, err
	}
	voters, err := uc.Repo.ListVoters(ctx, ballotID)
	if err != nil {
		return entities.Report{}, err
	}
	votes, err := uc.Repo.ListVotes(ctx, ballotID)
	if err != nil {
		return entities.Report{}, err
	}

	report := buildReport(ballot, voters, votes)

	logger := application.ResolveLogger(uc.Logger)
	if report.Passed {
		logger.Info("ballot integrity check passed",
			"event", "integrity_check_passed",
			"module", "election-core/ballot-integrity",
			"layer", "application",
			"ballot_id", ballotID,
		)
	} else {
		logger.Warn("ballot integrity check found discrepancies",
			"event", "integrity_check_failed",
			"module", "election-core/ballot-integrity",
			"layer", "application",
			"ballot_id", ballotID,
			"orphaned_votes", len(report.OrphanedVotes),
			"creator_self_votes", len(report.CreatorSelfVotes),
			"count_accurate", report.Counts.Accurate,
			"flag_issues", len(report.FlagIssues),
		)
	}
	return report, nil
}

// ValidateAllBallots checks every ballot in the store. An infrastructure
// failure on one ballot is recorded in that ballot's report and the batch
// keeps going; it never aborts the sweep.
func (uc ValidatorUseCase) ValidateAllBallots(ctx context.Context) ([]entities.Report, error) {
	ballotIDs, err := uc.Repo.ListBallotIDs(ctx)
	if err != nil {
		return nil, err
	}
	sort.Strings(ballotIDs)

	reports := make([]entities.Report, 0, len(ballotIDs))
	for _, ballotID := range ballotIDs {
		report, err := uc.ValidateBallot(ctx, ballotID)
		if err != nil {
			if errors.Is(err, domainerrors.ErrBallotNotFound) {
				// Deleted between the listing and the check; nothing to report.
				continue
			}
			reports = append(reports, entities.Report{
				BallotID:   ballotID,
				Passed:     false,
				CheckError: err.Error(),
			})
			continue
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func buildReport(ballot ports.BallotSnapshot, voters []ports.VoterSnapshot, votes []ports.VoteSnapshot) entities.Report {
	report := entities.Report{BallotID: ballot.BallotID}

	votersByID := make(map[string]ports.VoterSnapshot, len(voters))
	for _, voter := range voters {
		votersByID[voter.VoterID] = voter
	}
	votesByVoter := make(map[string]int, len(voters))
	for _, vote := range votes {
		votesByVoter[vote.VoterID]++
	}

	creatorEmail := normalizeEmail(ballot.CreatorEmail)
	for _, vote := range votes {
		voter, ok := votersByID[vote.VoterID]
		if !ok {
			report.OrphanedVotes = append(report.OrphanedVotes, entities.OrphanedVote{
				VoteID:  vote.VoteID,
				VoterID: vote.VoterID,
			})
			continue
		}
		if creatorEmail != "" && normalizeEmail(voter.Email) == creatorEmail {
			report.CreatorSelfVotes = append(report.CreatorSelfVotes, entities.CreatorSelfVote{
				VoteID:  vote.VoteID,
				VoterID: vote.VoterID,
				Email:   voter.Email,
			})
		}
	}

	report.Counts = entities.CountCheck{
		Reported:       ballot.BallotsReceived,
		DistinctVoters: len(votesByVoter),
	}
	report.Counts.Accurate = report.Counts.Reported == report.Counts.DistinctVoters

	for _, voter := range voters {
		voteCount := votesByVoter[voter.VoterID]
		if voter.HasVoted == (voteCount > 0) {
			continue
		}
		report.FlagIssues = append(report.FlagIssues, entities.FlagIssue{
			VoterID:   voter.VoterID,
			Email:     voter.Email,
			HasVoted:  voter.HasVoted,
			VoteCount: voteCount,
		})
	}

	sort.Slice(report.FlagIssues, func(i, j int) bool {
		return report.FlagIssues[i].VoterID < report.FlagIssues[j].VoterID
	})

	report.Passed = len(report.OrphanedVotes) == 0 &&
		len(report.CreatorSelfVotes) == 0 &&
		report.Counts.Accurate &&
		len(report.FlagIssues) == 0

	if !report.Passed {
		report.Recommendations = recommendations(report)
	}
	return report
}

func recommendations(report entities.Report) []string {
	var recs []string
	if len(report.OrphanedVotes) > 0 {
		recs = append(recs, fmt.Sprintf(
			"%d vote(s) reference missing voters; run repair to restore referential integrity",
			len(report.OrphanedVotes),
		))
	}
	if len(report.CreatorSelfVotes) > 0 {
		recs = append(recs, fmt.Sprintf(
			"%d vote(s) were cast under the ballot creator's email; review for policy violation",
			len(report.CreatorSelfVotes),
		))
	}
	if !report.Counts.Accurate {
		recs = append(recs, fmt.Sprintf(
			"ballots_received is %d but %d distinct voter(s) hold votes; run repair to resync counters",
			report.Counts.Reported, report.Counts.DistinctVoters,
		))
	}
	if len(report.FlagIssues) > 0 {
		recs = append(recs, fmt.Sprintf(
			"%d voter(s) have a has_voted flag contradicting their vote rows; run repair to recompute flags",
			len(report.FlagIssues),
		))
	}
	return recs
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
