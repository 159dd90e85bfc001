package votecasting

import (
	"context"
	"errors"
	"sync"
	"testing"

	"ballotbox/contexts/election-core/vote-casting/application/commands"
	"ballotbox/contexts/election-core/vote-casting/domain/entities"
	domainerrors "ballotbox/contexts/election-core/vote-casting/domain/errors"
	"ballotbox/contexts/election-core/vote-casting/ports"
)

func seedTwoQuestionBallot(module Module) {
	module.Store.SetBallot(ports.BallotProjection{
		BallotID:            "ballot-1",
		Status:              "active",
		CreatorEmail:        "creator@example.com",
		RequireVerification: false,
		TotalVoters:         3,
	})
	module.Store.SetQuestion(ports.QuestionProjection{
		QuestionID:    "q1",
		BallotID:      "ballot-1",
		Prompt:        "Chair",
		Type:          "single",
		MaxSelections: 1,
		Position:      0,
	})
	module.Store.SetQuestion(ports.QuestionProjection{
		QuestionID:    "q2",
		BallotID:      "ballot-1",
		Prompt:        "Treasurer",
		Type:          "single",
		MaxSelections: 1,
		Position:      1,
	})
	module.Store.SetChoice(ports.ChoiceProjection{ChoiceID: "q1c1", QuestionID: "q1", Label: "Ada"})
	module.Store.SetChoice(ports.ChoiceProjection{ChoiceID: "q1c2", QuestionID: "q1", Label: "Grace"})
	module.Store.SetChoice(ports.ChoiceProjection{ChoiceID: "q2c1", QuestionID: "q2", Label: "Alan"})
	module.Store.SetChoice(ports.ChoiceProjection{ChoiceID: "q2c2", QuestionID: "q2", Label: "Edsger"})
	module.Store.SetVoter(ports.VoterRecord{
		VoterID:  "voter-1",
		BallotID: "ballot-1",
		Email:    "voter1@example.com",
	})
}

func TestCastVoteRecordsFullSubmissionOnce(t *testing.T) {
	module := NewInMemoryModule(nil, nil)
	seedTwoQuestionBallot(module)

	receipt, err := module.Handler.Casting.Execute(context.Background(), commands.CastVoteCommand{
		BallotID: "ballot-1",
		VoterID:  "voter-1",
		Answers:  answers("q1", "q1c1", "q2", "q2c2"),
	})
	if err != nil {
		t.Fatalf("cast vote: %v", err)
	}
	if receipt.AnsweredCount != 2 {
		t.Fatalf("answered count = %d, want 2", receipt.AnsweredCount)
	}

	if got := len(module.Store.Votes()); got != 2 {
		t.Fatalf("vote rows = %d, want 2", got)
	}
	ballot, _ := module.Store.Ballot("ballot-1")
	if ballot.BallotsReceived != 1 {
		t.Fatalf("ballots received = %d, want 1 (one per submission, not per answer)", ballot.BallotsReceived)
	}
	voters := module.Store.Voters()
	if len(voters) != 1 || !voters[0].HasVoted {
		t.Fatalf("voter has_voted flag not set: %+v", voters)
	}

	_, err = module.Handler.Casting.Execute(context.Background(), commands.CastVoteCommand{
		BallotID: "ballot-1",
		VoterID:  "voter-1",
		Answers:  answers("q1", "q1c2", "q2", "q2c1"),
	})
	if !errors.Is(err, domainerrors.ErrVoterAlreadyVoted) {
		t.Fatalf("second cast error = %v, want ErrVoterAlreadyVoted", err)
	}
	if got := len(module.Store.Votes()); got != 2 {
		t.Fatalf("vote rows after rejected recast = %d, want 2", got)
	}
	ballot, _ = module.Store.Ballot("ballot-1")
	if ballot.BallotsReceived != 1 {
		t.Fatalf("ballots received after rejected recast = %d, want 1", ballot.BallotsReceived)
	}
}

func TestCastVoteRejectsInvalidAnswers(t *testing.T) {
	cases := []struct {
		name    string
		answers []struct{ q, c string }
		want    error
	}{
		{
			name:    "unknown question",
			answers: []struct{ q, c string }{{"q9", "q1c1"}},
			want:    domainerrors.ErrQuestionNotInBallot,
		},
		{
			name:    "choice from another question",
			answers: []struct{ q, c string }{{"q1", "q2c1"}},
			want:    domainerrors.ErrChoiceNotInQuestion,
		},
		{
			name:    "two answers on a single-choice question",
			answers: []struct{ q, c string }{{"q1", "q1c1"}, {"q1", "q1c2"}},
			want:    domainerrors.ErrInvalidAnswerSet,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			module := NewInMemoryModule(nil, nil)
			seedTwoQuestionBallot(module)

			cmd := commands.CastVoteCommand{BallotID: "ballot-1", VoterID: "voter-1"}
			for _, pair := range tc.answers {
				cmd.Answers = append(cmd.Answers, answerFor(pair.q, pair.c))
			}
			_, err := module.Handler.Casting.Execute(context.Background(), cmd)
			if !errors.Is(err, tc.want) {
				t.Fatalf("error = %v, want %v", err, tc.want)
			}
			// Rejected submissions must leave nothing behind.
			if got := len(module.Store.Votes()); got != 0 {
				t.Fatalf("vote rows after rejection = %d, want 0", got)
			}
			ballot, _ := module.Store.Ballot("ballot-1")
			if ballot.BallotsReceived != 0 {
				t.Fatalf("ballots received after rejection = %d, want 0", ballot.BallotsReceived)
			}
			voters := module.Store.Voters()
			if voters[0].HasVoted {
				t.Fatal("has_voted flipped by a rejected submission")
			}
		})
	}
}

func TestCastVoteRequiresActiveBallot(t *testing.T) {
	module := NewInMemoryModule(nil, nil)
	seedTwoQuestionBallot(module)
	module.Store.SetBallot(ports.BallotProjection{
		BallotID: "ballot-1",
		Status:   "draft",
	})

	_, err := module.Handler.Casting.Execute(context.Background(), commands.CastVoteCommand{
		BallotID: "ballot-1",
		VoterID:  "voter-1",
		Answers:  answers("q1", "q1c1"),
	})
	if !errors.Is(err, domainerrors.ErrBallotNotActive) {
		t.Fatalf("error = %v, want ErrBallotNotActive", err)
	}
}

func TestCastVoteRejectsVoterFromAnotherBallot(t *testing.T) {
	module := NewInMemoryModule(nil, nil)
	seedTwoQuestionBallot(module)
	module.Store.SetVoter(ports.VoterRecord{
		VoterID:  "outsider",
		BallotID: "ballot-2",
		Email:    "outsider@example.com",
	})

	_, err := module.Handler.Casting.Execute(context.Background(), commands.CastVoteCommand{
		BallotID: "ballot-1",
		VoterID:  "outsider",
		Answers:  answers("q1", "q1c1"),
	})
	if !errors.Is(err, domainerrors.ErrVoterNotInBallot) {
		t.Fatalf("error = %v, want ErrVoterNotInBallot", err)
	}
}

func TestCastVoteAutoVerifiesWhenBallotRequiresIt(t *testing.T) {
	module := NewInMemoryModule(nil, nil)
	seedTwoQuestionBallot(module)
	module.Store.SetBallot(ports.BallotProjection{
		BallotID:            "ballot-1",
		Status:              "active",
		RequireVerification: true,
		TotalVoters:         3,
	})

	receipt, err := module.Handler.Casting.Execute(context.Background(), commands.CastVoteCommand{
		BallotID: "ballot-1",
		VoterID:  "voter-1",
		Answers:  answers("q1", "q1c1", "q2", "q2c1"),
	})
	if err != nil {
		t.Fatalf("cast vote: %v", err)
	}
	if !receipt.AutoVerified {
		t.Fatal("expected auto-verified receipt for unverified voter")
	}
	voters := module.Store.Voters()
	if !voters[0].IsVerified {
		t.Fatal("voter not verified after auto-verify cast")
	}
}

func TestConcurrentCastsForSameVoterRecordExactlyOne(t *testing.T) {
	module := NewInMemoryModule(nil, nil)
	seedTwoQuestionBallot(module)

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			_, errs[slot] = module.Handler.Casting.Execute(context.Background(), commands.CastVoteCommand{
				BallotID: "ballot-1",
				VoterID:  "voter-1",
				Answers:  answers("q1", "q1c1", "q2", "q2c2"),
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		if !errors.Is(err, domainerrors.ErrVoterAlreadyVoted) {
			t.Fatalf("unexpected concurrent cast error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("successful casts = %d, want exactly 1", succeeded)
	}
	if got := len(module.Store.Votes()); got != 2 {
		t.Fatalf("vote rows = %d, want 2", got)
	}
	ballot, _ := module.Store.Ballot("ballot-1")
	if ballot.BallotsReceived != 1 {
		t.Fatalf("ballots received = %d, want 1", ballot.BallotsReceived)
	}
}

func TestBallotResultsTallyPerChoice(t *testing.T) {
	module := NewInMemoryModule(nil, nil)
	seedTwoQuestionBallot(module)
	module.Store.SetVoter(ports.VoterRecord{VoterID: "voter-2", BallotID: "ballot-1", Email: "voter2@example.com"})

	for voter, choice := range map[string]string{"voter-1": "q1c1", "voter-2": "q1c1"} {
		if _, err := module.Handler.Casting.Execute(context.Background(), commands.CastVoteCommand{
			BallotID: "ballot-1",
			VoterID:  voter,
			Answers:  answers("q1", choice, "q2", "q2c2"),
		}); err != nil {
			t.Fatalf("cast for %s: %v", voter, err)
		}
	}

	results, err := module.Handler.Results.BallotResults(context.Background(), "ballot-1")
	if err != nil {
		t.Fatalf("ballot results: %v", err)
	}
	if results.BallotsReceived != 2 {
		t.Fatalf("ballots received = %d, want 2", results.BallotsReceived)
	}
	if len(results.Questions) != 2 {
		t.Fatalf("question tallies = %d, want 2", len(results.Questions))
	}
	for _, choice := range results.Questions[0].Choices {
		switch choice.ChoiceID {
		case "q1c1":
			if choice.Votes != 2 {
				t.Fatalf("q1c1 votes = %d, want 2", choice.Votes)
			}
		case "q1c2":
			if choice.Votes != 0 {
				t.Fatalf("q1c2 votes = %d, want 0", choice.Votes)
			}
		}
	}
}

func TestOutboxRowWrittenWithCast(t *testing.T) {
	module := NewInMemoryModule(nil, nil)
	seedTwoQuestionBallot(module)

	if _, err := module.Handler.Casting.Execute(context.Background(), commands.CastVoteCommand{
		BallotID: "ballot-1",
		VoterID:  "voter-1",
		Answers:  answers("q1", "q1c1"),
	}); err != nil {
		t.Fatalf("cast vote: %v", err)
	}

	pending, err := module.Store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending outbox: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending outbox rows = %d, want 1", len(pending))
	}
	if pending[0].EventType != "ballot.vote.cast" {
		t.Fatalf("outbox event type = %q", pending[0].EventType)
	}
}

func TestCastVoteRankedAndMultipleQuestions(t *testing.T) {
	seed := func() Module {
		module := NewInMemoryModule(nil, nil)
		module.Store.SetBallot(ports.BallotProjection{
			BallotID: "ballot-1", Status: "active", TotalVoters: 1,
		})
		module.Store.SetQuestion(ports.QuestionProjection{
			QuestionID: "rank-q", BallotID: "ballot-1", Prompt: "Rank the venues", Type: "rank", MaxSelections: 2,
		})
		module.Store.SetQuestion(ports.QuestionProjection{
			QuestionID: "multi-q", BallotID: "ballot-1", Prompt: "Pick committee members", Type: "multiple", MaxSelections: 2,
		})
		for _, choice := range []string{"r1", "r2", "r3"} {
			module.Store.SetChoice(ports.ChoiceProjection{ChoiceID: choice, QuestionID: "rank-q", Label: choice})
		}
		for _, choice := range []string{"m1", "m2", "m3"} {
			module.Store.SetChoice(ports.ChoiceProjection{ChoiceID: choice, QuestionID: "multi-q", Label: choice})
		}
		module.Store.SetVoter(ports.VoterRecord{VoterID: "voter-1", BallotID: "ballot-1", Email: "v1@example.com"})
		return module
	}
	ranked := func(questionID string, choiceID string, rank int) entities.Answer {
		return entities.Answer{QuestionID: questionID, ChoiceID: choiceID, Rank: &rank}
	}

	module := seed()
	receipt, err := module.Handler.Casting.Execute(context.Background(), commands.CastVoteCommand{
		BallotID: "ballot-1",
		VoterID:  "voter-1",
		Answers: []entities.Answer{
			ranked("rank-q", "r1", 1),
			ranked("rank-q", "r3", 2),
			answerFor("multi-q", "m1"),
			answerFor("multi-q", "m2"),
		},
	})
	if err != nil {
		t.Fatalf("cast ranked submission: %v", err)
	}
	if receipt.AnsweredCount != 4 {
		t.Fatalf("answered count = %d, want 4", receipt.AnsweredCount)
	}

	rejected := []struct {
		name    string
		answers []entities.Answer
	}{
		{"ranked answer without a rank", []entities.Answer{answerFor("rank-q", "r1")}},
		{"duplicate rank", []entities.Answer{ranked("rank-q", "r1", 1), ranked("rank-q", "r2", 1)}},
		{"multiple beyond max selections", []entities.Answer{
			answerFor("multi-q", "m1"), answerFor("multi-q", "m2"), answerFor("multi-q", "m3"),
		}},
	}
	for _, tc := range rejected {
		t.Run(tc.name, func(t *testing.T) {
			module := seed()
			_, err := module.Handler.Casting.Execute(context.Background(), commands.CastVoteCommand{
				BallotID: "ballot-1",
				VoterID:  "voter-1",
				Answers:  tc.answers,
			})
			if !errors.Is(err, domainerrors.ErrInvalidAnswerSet) {
				t.Fatalf("error = %v, want ErrInvalidAnswerSet", err)
			}
		})
	}
}

func answers(pairs ...string) []entities.Answer {
	items := make([]entities.Answer, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		items = append(items, answerFor(pairs[i], pairs[i+1]))
	}
	return items
}

func answerFor(questionID string, choiceID string) entities.Answer {
	return entities.Answer{QuestionID: questionID, ChoiceID: choiceID}
}
