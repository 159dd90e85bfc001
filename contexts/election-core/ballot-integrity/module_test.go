package ballotintegrity

import (
	"context"
	"errors"
	"testing"

	domainerrors "ballotbox/contexts/election-core/ballot-integrity/domain/errors"
	"ballotbox/contexts/election-core/ballot-integrity/ports"
	votecasting "ballotbox/contexts/election-core/vote-casting"
	castingcommands "ballotbox/contexts/election-core/vote-casting/application/commands"
	castingentities "ballotbox/contexts/election-core/vote-casting/domain/entities"
	castingports "ballotbox/contexts/election-core/vote-casting/ports"
)

func seedConsistentBallot(module Module) {
	module.Store.SetBallot(ports.BallotSnapshot{
		BallotID:        "ballot-1",
		Status:          "active",
		CreatorEmail:    "creator@example.com",
		TotalVoters:     2,
		BallotsReceived: 1,
	})
	module.Store.SetVoter(ports.VoterSnapshot{
		VoterID: "voter-1", BallotID: "ballot-1", Email: "voter1@example.com", HasVoted: true,
	})
	module.Store.SetVoter(ports.VoterSnapshot{
		VoterID: "voter-2", BallotID: "ballot-1", Email: "voter2@example.com",
	})
	module.Store.SetVote(ports.VoteSnapshot{
		VoteID: "vote-1", BallotID: "ballot-1", VoterID: "voter-1", QuestionID: "q1", ChoiceID: "c1",
	})
	module.Store.SetVote(ports.VoteSnapshot{
		VoteID: "vote-2", BallotID: "ballot-1", VoterID: "voter-1", QuestionID: "q2", ChoiceID: "c3",
	})
}

func TestValidateBallotPassesOnConsistentData(t *testing.T) {
	module := NewInMemoryModule(nil)
	seedConsistentBallot(module)

	report, err := module.Handler.Validator.ValidateBallot(context.Background(), "ballot-1")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !report.Passed {
		t.Fatalf("expected clean report, got %+v", report)
	}
	if len(report.Recommendations) != 0 {
		t.Fatalf("clean report carries recommendations: %v", report.Recommendations)
	}
}

func TestValidateBallotDetectsOrphanedVotes(t *testing.T) {
	module := NewInMemoryModule(nil)
	seedConsistentBallot(module)
	module.Store.RemoveVoter("voter-1")

	report, err := module.Handler.Validator.ValidateBallot(context.Background(), "ballot-1")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if report.Passed {
		t.Fatal("report passed despite orphaned votes")
	}
	if len(report.OrphanedVotes) != 2 {
		t.Fatalf("orphaned votes = %d, want 2 (listed individually)", len(report.OrphanedVotes))
	}
	if len(report.Recommendations) == 0 {
		t.Fatal("failing report has no recommendations")
	}
}

func TestValidateBallotDetectsCreatorSelfVotes(t *testing.T) {
	module := NewInMemoryModule(nil)
	seedConsistentBallot(module)
	module.Store.SetVoter(ports.VoterSnapshot{
		VoterID: "voter-1", BallotID: "ballot-1", Email: "Creator@Example.com", HasVoted: true,
	})

	report, err := module.Handler.Validator.ValidateBallot(context.Background(), "ballot-1")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if report.Passed {
		t.Fatal("report passed despite creator self-votes")
	}
	if len(report.CreatorSelfVotes) != 2 {
		t.Fatalf("creator self-votes = %d, want 2", len(report.CreatorSelfVotes))
	}
}

func TestValidateBallotDetectsCounterDrift(t *testing.T) {
	module := NewInMemoryModule(nil)
	seedConsistentBallot(module)
	module.Store.SetBallot(ports.BallotSnapshot{
		BallotID:        "ballot-1",
		Status:          "active",
		CreatorEmail:    "creator@example.com",
		TotalVoters:     2,
		BallotsReceived: 2, // vote-row count, not distinct-voter count
	})

	report, err := module.Handler.Validator.ValidateBallot(context.Background(), "ballot-1")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if report.Counts.Accurate {
		t.Fatal("count check accurate despite drift")
	}
	if report.Counts.Reported != 2 || report.Counts.DistinctVoters != 1 {
		t.Fatalf("count check = %+v, want reported 2 / distinct 1", report.Counts)
	}
}

func TestValidateBallotDetectsFlagInconsistencies(t *testing.T) {
	module := NewInMemoryModule(nil)
	seedConsistentBallot(module)
	// voter-1 has votes but the flag was cleared; voter-2 has the flag but no votes.
	module.Store.SetVoter(ports.VoterSnapshot{
		VoterID: "voter-1", BallotID: "ballot-1", Email: "voter1@example.com", HasVoted: false,
	})
	module.Store.SetVoter(ports.VoterSnapshot{
		VoterID: "voter-2", BallotID: "ballot-1", Email: "voter2@example.com", HasVoted: true,
	})

	report, err := module.Handler.Validator.ValidateBallot(context.Background(), "ballot-1")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(report.FlagIssues) != 2 {
		t.Fatalf("flag issues = %d, want 2", len(report.FlagIssues))
	}
}

func TestValidateBallotNotFound(t *testing.T) {
	module := NewInMemoryModule(nil)
	if _, err := module.Handler.Validator.ValidateBallot(context.Background(), "missing"); !errors.Is(err, domainerrors.ErrBallotNotFound) {
		t.Fatalf("error = %v, want ErrBallotNotFound", err)
	}
}

func TestValidateAllBallotsCoversEveryBallot(t *testing.T) {
	module := NewInMemoryModule(nil)
	seedConsistentBallot(module)
	module.Store.SetBallot(ports.BallotSnapshot{
		BallotID:     "ballot-2",
		Status:       "active",
		CreatorEmail: "other@example.com",
	})

	reports, err := module.Handler.Validator.ValidateAllBallots(context.Background())
	if err != nil {
		t.Fatalf("validate all: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("reports = %d, want 2", len(reports))
	}
}

func TestRepairBallotFixesOrphansFlagsAndCounters(t *testing.T) {
	module := NewInMemoryModule(nil)
	seedConsistentBallot(module)
	module.Store.RemoveVoter("voter-1")
	module.Store.SetVoter(ports.VoterSnapshot{
		VoterID: "voter-2", BallotID: "ballot-1", Email: "voter2@example.com", HasVoted: true,
	})
	module.Store.SetBallot(ports.BallotSnapshot{
		BallotID:        "ballot-1",
		Status:          "active",
		CreatorEmail:    "creator@example.com",
		TotalVoters:     9,
		BallotsReceived: 9,
	})

	stats, err := module.Handler.Repair.RepairBallot(context.Background(), "ballot-1")
	if err != nil {
		t.Fatalf("repair: %v", err)
	}
	if stats.TotalVotes != 2 {
		t.Fatalf("total votes = %d, want 2", stats.TotalVotes)
	}
	if stats.CreatedVoters != 1 {
		t.Fatalf("created voters = %d, want 1", stats.CreatedVoters)
	}
	if stats.FixedVotes != 2 {
		t.Fatalf("fixed votes = %d, want 2 (both orphan rows re-anchored)", stats.FixedVotes)
	}
	if stats.FinalTotalVoters != 2 || stats.FinalVotedVoters != 1 {
		t.Fatalf("final counters = %d/%d, want 2/1", stats.FinalTotalVoters, stats.FinalVotedVoters)
	}

	// The synthesized voter keeps the orphan's id and is tagged.
	var placeholder *ports.VoterSnapshot
	for _, voter := range module.Store.Voters("ballot-1") {
		if voter.VoterID == "voter-1" {
			copied := voter
			placeholder = &copied
		}
	}
	if placeholder == nil {
		t.Fatal("placeholder voter not created for orphan id")
	}
	if !placeholder.Placeholder || !placeholder.HasVoted {
		t.Fatalf("placeholder voter flags wrong: %+v", placeholder)
	}

	report, err := module.Handler.Validator.ValidateBallot(context.Background(), "ballot-1")
	if err != nil {
		t.Fatalf("post-repair validate: %v", err)
	}
	if !report.Passed {
		t.Fatalf("ballot still failing after repair: %+v", report)
	}
}

func TestRepairBallotIsIdempotent(t *testing.T) {
	module := NewInMemoryModule(nil)
	seedConsistentBallot(module)
	module.Store.RemoveVoter("voter-1")

	if _, err := module.Handler.Repair.RepairBallot(context.Background(), "ballot-1"); err != nil {
		t.Fatalf("first repair: %v", err)
	}
	before, _ := module.Store.Ballot("ballot-1")

	stats, err := module.Handler.Repair.RepairBallot(context.Background(), "ballot-1")
	if err != nil {
		t.Fatalf("second repair: %v", err)
	}
	if stats.CreatedVoters != 0 || stats.FixedVotes != 0 {
		t.Fatalf("second repair changed data: %+v", stats)
	}
	after, _ := module.Store.Ballot("ballot-1")
	if before != after {
		t.Fatalf("counters moved on idempotent repair: %+v vs %+v", before, after)
	}
}

func TestRepairBallotNotFound(t *testing.T) {
	module := NewInMemoryModule(nil)
	if _, err := module.Handler.Repair.RepairBallot(context.Background(), "missing"); !errors.Is(err, domainerrors.ErrBallotNotFound) {
		t.Fatalf("error = %v, want ErrBallotNotFound", err)
	}
}

// End-to-end consistency: ballots produced by real casting transactions pass
// the integrity checks with no repair needed.
func TestCastingOutputSurvivesValidation(t *testing.T) {
	casting := votecasting.NewInMemoryModule(nil, nil)
	casting.Store.SetBallot(castingports.BallotProjection{
		BallotID:     "ballot-1",
		Status:       "active",
		CreatorEmail: "creator@example.com",
		TotalVoters:  2,
	})
	casting.Store.SetQuestion(castingports.QuestionProjection{
		QuestionID: "q1", BallotID: "ballot-1", Prompt: "Chair", Type: castingentities.QuestionTypeSingle, MaxSelections: 1,
	})
	casting.Store.SetChoice(castingports.ChoiceProjection{ChoiceID: "c1", QuestionID: "q1", Label: "Ada"})
	casting.Store.SetChoice(castingports.ChoiceProjection{ChoiceID: "c2", QuestionID: "q1", Label: "Grace"})
	casting.Store.SetVoter(castingports.VoterRecord{VoterID: "voter-1", BallotID: "ballot-1", Email: "v1@example.com"})
	casting.Store.SetVoter(castingports.VoterRecord{VoterID: "voter-2", BallotID: "ballot-1", Email: "v2@example.com"})

	for voter, choice := range map[string]string{"voter-1": "c1", "voter-2": "c2"} {
		if _, err := casting.Handler.Casting.Execute(context.Background(), castingcommands.CastVoteCommand{
			BallotID: "ballot-1",
			VoterID:  voter,
			Answers:  []castingentities.Answer{{QuestionID: "q1", ChoiceID: choice}},
		}); err != nil {
			t.Fatalf("cast for %s: %v", voter, err)
		}
	}

	// Pipe the casting store's state into the integrity store.
	integrity := NewInMemoryModule(nil)
	ballot, _ := casting.Store.Ballot("ballot-1")
	integrity.Store.SetBallot(ports.BallotSnapshot{
		BallotID:        ballot.BallotID,
		Status:          ballot.Status,
		CreatorEmail:    ballot.CreatorEmail,
		TotalVoters:     ballot.TotalVoters,
		BallotsReceived: ballot.BallotsReceived,
	})
	for _, voter := range casting.Store.Voters() {
		integrity.Store.SetVoter(ports.VoterSnapshot{
			VoterID:  voter.VoterID,
			BallotID: voter.BallotID,
			Email:    voter.Email,
			HasVoted: voter.HasVoted,
		})
	}
	for _, vote := range casting.Store.Votes() {
		integrity.Store.SetVote(ports.VoteSnapshot{
			VoteID:     vote.VoteID,
			BallotID:   vote.BallotID,
			VoterID:    vote.VoterID,
			QuestionID: vote.QuestionID,
			ChoiceID:   vote.ChoiceID,
		})
	}

	report, err := integrity.Handler.Validator.ValidateBallot(context.Background(), "ballot-1")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !report.Passed {
		t.Fatalf("casting output failed integrity checks: %+v", report)
	}
}
