package ballotservice

import (
	"context"
	"errors"
	"testing"
	"time"

	"ballotbox/contexts/election-core/ballot-service/application/commands"
	"ballotbox/contexts/election-core/ballot-service/application/workers"
	"ballotbox/contexts/election-core/ballot-service/domain/entities"
	domainerrors "ballotbox/contexts/election-core/ballot-service/domain/errors"
)

func validCreateCommand() commands.CreateBallotCommand {
	return commands.CreateBallotCommand{
		Title:        "Board election 2026",
		CreatorEmail: "Chair@Example.com",
		Questions: []commands.QuestionInput{
			{
				Prompt: "Who should chair the board?",
				Type:   "single",
				Choices: []commands.ChoiceInput{
					{Label: "Ada"},
					{Label: "Grace"},
				},
			},
			{
				Prompt:        "Pick up to two committee members",
				Type:          "multiple",
				MaxSelections: 2,
				Choices: []commands.ChoiceInput{
					{Label: "Alan"},
					{Label: "Edsger"},
					{Label: "Barbara"},
				},
			},
		},
	}
}

func TestCreateBallotBuildsFullQuestionTree(t *testing.T) {
	module := NewInMemoryModule(nil, nil)

	detail, err := module.Handler.Create.Execute(context.Background(), validCreateCommand())
	if err != nil {
		t.Fatalf("create ballot: %v", err)
	}
	if detail.Ballot.Status != entities.BallotStatusDraft {
		t.Fatalf("new ballot status = %q, want draft", detail.Ballot.Status)
	}
	if detail.Ballot.CreatorEmail != "chair@example.com" {
		t.Fatalf("creator email not normalized: %q", detail.Ballot.CreatorEmail)
	}
	if detail.Ballot.TotalVoters != 0 || detail.Ballot.BallotsReceived != 0 {
		t.Fatalf("counters not zero on creation: %d/%d", detail.Ballot.TotalVoters, detail.Ballot.BallotsReceived)
	}
	if len(detail.Questions) != 2 {
		t.Fatalf("questions = %d, want 2", len(detail.Questions))
	}
	if detail.Questions[0].Question.MaxSelections != 1 {
		t.Fatalf("single question max selections = %d, want 1", detail.Questions[0].Question.MaxSelections)
	}

	stored, err := module.Handler.Queries.GetBallot(context.Background(), detail.Ballot.BallotID)
	if err != nil {
		t.Fatalf("get ballot: %v", err)
	}
	if len(stored.Questions) != 2 || len(stored.Questions[1].Choices) != 3 {
		t.Fatalf("persisted tree incomplete: %+v", stored.Questions)
	}
}

func TestCreateBallotRejectsInvalidInput(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*commands.CreateBallotCommand)
	}{
		{"short title", func(cmd *commands.CreateBallotCommand) { cmd.Title = "ab" }},
		{"bad creator email", func(cmd *commands.CreateBallotCommand) { cmd.CreatorEmail = "nope" }},
		{"no questions", func(cmd *commands.CreateBallotCommand) { cmd.Questions = nil }},
		{"question with one choice", func(cmd *commands.CreateBallotCommand) {
			cmd.Questions[0].Choices = cmd.Questions[0].Choices[:1]
		}},
		{"blank choice label", func(cmd *commands.CreateBallotCommand) {
			cmd.Questions[0].Choices[1].Label = "   "
		}},
		{"unsupported question type", func(cmd *commands.CreateBallotCommand) {
			cmd.Questions[0].Type = "essay"
		}},
		{"multiple with max beyond choices", func(cmd *commands.CreateBallotCommand) {
			cmd.Questions[1].MaxSelections = 4
		}},
		{"end before start", func(cmd *commands.CreateBallotCommand) {
			start := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)
			end := start.Add(-time.Hour)
			cmd.StartDate = &start
			cmd.EndDate = &end
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			module := NewInMemoryModule(nil, nil)
			cmd := validCreateCommand()
			tc.mutate(&cmd)
			if _, err := module.Handler.Create.Execute(context.Background(), cmd); !errors.Is(err, domainerrors.ErrInvalidBallotInput) {
				t.Fatalf("error = %v, want ErrInvalidBallotInput", err)
			}
		})
	}
}

func TestChangeStatusFollowsLifecycle(t *testing.T) {
	module := NewInMemoryModule(nil, nil)
	cmd := validCreateCommand()
	start := time.Now().UTC().Add(-time.Hour)
	cmd.StartDate = &start
	detail, err := module.Handler.Create.Execute(context.Background(), cmd)
	if err != nil {
		t.Fatalf("create ballot: %v", err)
	}

	for _, to := range []string{"scheduled", "active", "completed"} {
		ballot, err := module.Handler.Status.Execute(context.Background(), commands.ChangeStatusCommand{
			BallotID: detail.Ballot.BallotID,
			To:       to,
		})
		if err != nil {
			t.Fatalf("transition to %s: %v", to, err)
		}
		if string(ballot.Status) != to {
			t.Fatalf("status = %q, want %q", ballot.Status, to)
		}
	}

	// Completed is terminal.
	_, err = module.Handler.Status.Execute(context.Background(), commands.ChangeStatusCommand{
		BallotID: detail.Ballot.BallotID,
		To:       "active",
	})
	if !errors.Is(err, domainerrors.ErrInvalidStatusTransition) {
		t.Fatalf("error = %v, want ErrInvalidStatusTransition", err)
	}
}

func TestChangeStatusRequiresStartDateToSchedule(t *testing.T) {
	module := NewInMemoryModule(nil, nil)
	detail, err := module.Handler.Create.Execute(context.Background(), validCreateCommand())
	if err != nil {
		t.Fatalf("create ballot: %v", err)
	}

	_, err = module.Handler.Status.Execute(context.Background(), commands.ChangeStatusCommand{
		BallotID: detail.Ballot.BallotID,
		To:       "scheduled",
	})
	if !errors.Is(err, domainerrors.ErrInvalidBallotInput) {
		t.Fatalf("error = %v, want ErrInvalidBallotInput", err)
	}
}

func TestChangeStatusBlocksEarlyActivationUnlessForced(t *testing.T) {
	module := NewInMemoryModule(nil, nil)
	cmd := validCreateCommand()
	start := time.Now().UTC().Add(24 * time.Hour)
	cmd.StartDate = &start
	detail, err := module.Handler.Create.Execute(context.Background(), cmd)
	if err != nil {
		t.Fatalf("create ballot: %v", err)
	}
	if _, err := module.Handler.Status.Execute(context.Background(), commands.ChangeStatusCommand{
		BallotID: detail.Ballot.BallotID,
		To:       "scheduled",
	}); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	_, err = module.Handler.Status.Execute(context.Background(), commands.ChangeStatusCommand{
		BallotID: detail.Ballot.BallotID,
		To:       "active",
	})
	if !errors.Is(err, domainerrors.ErrBallotNotStarted) {
		t.Fatalf("error = %v, want ErrBallotNotStarted", err)
	}

	ballot, err := module.Handler.Status.Execute(context.Background(), commands.ChangeStatusCommand{
		BallotID: detail.Ballot.BallotID,
		To:       "active",
		Force:    true,
	})
	if err != nil {
		t.Fatalf("forced activation: %v", err)
	}
	if ballot.Status != entities.BallotStatusActive {
		t.Fatalf("status = %q, want active", ballot.Status)
	}
}

func TestChangeStatusBallotNotFound(t *testing.T) {
	module := NewInMemoryModule(nil, nil)
	_, err := module.Handler.Status.Execute(context.Background(), commands.ChangeStatusCommand{
		BallotID: "missing",
		To:       "active",
	})
	if !errors.Is(err, domainerrors.ErrBallotNotFound) {
		t.Fatalf("error = %v, want ErrBallotNotFound", err)
	}
}

func TestListBallotsFiltersByStatus(t *testing.T) {
	module := NewInMemoryModule(nil, nil)
	for i := 0; i < 3; i++ {
		detail, err := module.Handler.Create.Execute(context.Background(), validCreateCommand())
		if err != nil {
			t.Fatalf("create ballot: %v", err)
		}
		if i == 0 {
			if _, err := module.Handler.Status.Execute(context.Background(), commands.ChangeStatusCommand{
				BallotID: detail.Ballot.BallotID,
				To:       "active",
			}); err != nil {
				t.Fatalf("activate: %v", err)
			}
		}
	}

	all, err := module.Handler.Queries.ListBallots(context.Background(), "")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("all ballots = %d, want 3", len(all))
	}
	drafts, err := module.Handler.Queries.ListBallots(context.Background(), "draft")
	if err != nil {
		t.Fatalf("list drafts: %v", err)
	}
	if len(drafts) != 2 {
		t.Fatalf("draft ballots = %d, want 2", len(drafts))
	}
}

func TestDeadlineCompleterSweepsLifecycle(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-2 * time.Hour)
	farFuture := now.Add(48 * time.Hour)
	module := NewInMemoryModule([]entities.Ballot{
		{BallotID: "due-to-start", Status: entities.BallotStatusScheduled, StartDate: &past},
		{BallotID: "not-yet-due", Status: entities.BallotStatusScheduled, StartDate: &farFuture},
		{BallotID: "past-deadline", Status: entities.BallotStatusActive, EndDate: &past},
		{BallotID: "still-open", Status: entities.BallotStatusActive, EndDate: &farFuture},
	}, nil)

	sweep := workers.DeadlineCompleter{
		Ballots:   module.Store,
		Clock:     module.Store,
		BatchSize: 10,
	}
	if err := sweep.RunOnce(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	want := map[string]entities.BallotStatus{
		"due-to-start":  entities.BallotStatusActive,
		"not-yet-due":   entities.BallotStatusScheduled,
		"past-deadline": entities.BallotStatusCompleted,
		"still-open":    entities.BallotStatusActive,
	}
	for ballotID, status := range want {
		ballot, err := module.Store.GetBallot(context.Background(), ballotID)
		if err != nil {
			t.Fatalf("get %s: %v", ballotID, err)
		}
		if ballot.Status != status {
			t.Fatalf("%s status = %q, want %q", ballotID, ballot.Status, status)
		}
	}
}
