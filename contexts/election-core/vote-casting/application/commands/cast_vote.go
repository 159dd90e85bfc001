package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "ballotbox/contexts/election-core/vote-casting/application"
	"ballotbox/contexts/election-core/vote-casting/domain/entities"
	domainerrors "ballotbox/contexts/election-core/vote-casting/domain/errors"
	"ballotbox/contexts/election-core/vote-casting/ports"
)

// CastVoteCommand is the write-model input for one complete ballot submission.
type CastVoteCommand struct {
	BallotID string
	VoterID  string
	Answers  []entities.Answer
}

// CastVoteUseCase owns the vote casting transaction: it records one voter's
// complete answer set exactly once and advances the ballot's derived counters
// in the same transaction.
type CastVoteUseCase struct {
	Repo   ports.CastingRepository
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

// Execute runs the casting transaction. Preconditions are checked in order
// inside the transaction, after the voter row lock is taken, so two concurrent
// calls for the same voter serialize and exactly one succeeds. Any failure
// rolls the whole submission back; partial vote sets are never persisted.
func (uc CastVoteUseCase) Execute(ctx context.Context, cmd CastVoteCommand) (entities.CastReceipt, error) {
	logger := application.ResolveLogger(uc.Logger)
	ballotID := strings.TrimSpace(cmd.BallotID)
	voterID := strings.TrimSpace(cmd.VoterID)
	if ballotID == "" || voterID == "" || len(cmd.Answers) == 0 {
		return entities.CastReceipt{}, domainerrors.ErrInvalidAnswerSet
	}

	now := uc.now()
	var receipt entities.CastReceipt
	err := uc.Repo.WithinTx(ctx, func(tx ports.CastingRepository) error {
		ballot, err := tx.GetBallot(ctx, ballotID)
		if err != nil {
			return err
		}
		if !strings.EqualFold(ballot.Status, "active") {
			return domainerrors.ErrBallotNotActive
		}

		// Lock the voter row before the has-voted check. The lock is held to
		// commit, which closes the double-vote race.
		voter, err := tx.GetVoterForUpdate(ctx, voterID)
		if err != nil {
			return err
		}
		if voter.BallotID != ballotID {
			return domainerrors.ErrVoterNotInBallot
		}

		autoVerified := false
		if ballot.RequireVerification && !voter.IsVerified {
			// Inherited policy: casting implies verification. This weakens the
			// verification guarantee, so it is logged loudly.
			voter.IsVerified = true
			autoVerified = true
			logger.Warn("unverified voter auto-verified during cast",
				"event", "casting_voter_auto_verified",
				"module", "election-core/vote-casting",
				"layer", "application",
				"ballot_id", ballotID,
				"voter_id", voterID,
			)
		}

		if voter.HasVoted {
			return domainerrors.ErrVoterAlreadyVoted
		}

		questions, err := tx.ListQuestions(ctx, ballotID)
		if err != nil {
			return err
		}
		choices, err := tx.ListChoices(ctx, ballotID)
		if err != nil {
			return err
		}
		if err := validateAnswers(cmd.Answers, questions, choices); err != nil {
			return err
		}

		votes := make([]entities.Vote, 0, len(cmd.Answers))
		for _, answer := range cmd.Answers {
			voteID, err := uc.IDGen.NewID(ctx)
			if err != nil {
				return err
			}
			votes = append(votes, entities.Vote{
				VoteID:     voteID,
				BallotID:   ballotID,
				VoterID:    voterID,
				QuestionID: strings.TrimSpace(answer.QuestionID),
				ChoiceID:   strings.TrimSpace(answer.ChoiceID),
				Rank:       answer.Rank,
				CreatedAt:  now,
			})
		}
		if err := tx.InsertVotes(ctx, votes); err != nil {
			return err
		}

		voter.HasVoted = true
		if err := tx.SaveVoterFlags(ctx, voter, now); err != nil {
			return err
		}
		// One increment per casting call, not per answer: ballots_received is
		// a ballot-level counter of completed submissions.
		if err := tx.IncrementBallotsReceived(ctx, ballotID, now); err != nil {
			return err
		}

		envelope, err := newCastingEnvelope(votes[0].VoteID, "ballot.vote.cast", ballotID, now, map[string]any{
			"ballot_id":      ballotID,
			"voter_id":       voterID,
			"answered_count": len(votes),
			"auto_verified":  autoVerified,
		})
		if err != nil {
			return err
		}
		if err := tx.AppendOutbox(ctx, envelope); err != nil {
			return err
		}

		receipt = entities.CastReceipt{
			BallotID:      ballotID,
			VoterID:       voterID,
			AnsweredCount: len(votes),
			AutoVerified:  autoVerified,
			CastAt:        now,
		}
		return nil
	})
	if err != nil {
		if isCastingPrecondition(err) {
			logger.Warn("cast rejected",
				"event", "casting_rejected",
				"module", "election-core/vote-casting",
				"layer", "application",
				"ballot_id", ballotID,
				"voter_id", voterID,
				"reason", err.Error(),
			)
			return entities.CastReceipt{}, err
		}
		logger.Error("casting transaction rolled back",
			"event", "casting_tx_failed",
			"module", "election-core/vote-casting",
			"layer", "application",
			"ballot_id", ballotID,
			"voter_id", voterID,
			"error", err.Error(),
		)
		return entities.CastReceipt{}, fmt.Errorf("%w: %v", domainerrors.ErrTransactionFailure, err)
	}

	logger.Info("vote cast",
		"event", "casting_vote_cast",
		"module", "election-core/vote-casting",
		"layer", "application",
		"ballot_id", ballotID,
		"voter_id", voterID,
		"answered_count", receipt.AnsweredCount,
	)
	return receipt, nil
}

// validateAnswers checks every answer against the ballot's question/choice
// structure. Any violation aborts the whole casting call.
func validateAnswers(
	answers []entities.Answer,
	questions []ports.QuestionProjection,
	choices []ports.ChoiceProjection,
) error {
	questionByID := make(map[string]ports.QuestionProjection, len(questions))
	for _, question := range questions {
		questionByID[question.QuestionID] = question
	}
	choiceQuestion := make(map[string]string, len(choices))
	for _, choice := range choices {
		choiceQuestion[choice.ChoiceID] = choice.QuestionID
	}

	perQuestion := make(map[string]int, len(answers))
	seenPairs := make(map[string]struct{}, len(answers))
	seenRanks := make(map[string]map[int]struct{})

	for _, answer := range answers {
		questionID := strings.TrimSpace(answer.QuestionID)
		choiceID := strings.TrimSpace(answer.ChoiceID)
		question, ok := questionByID[questionID]
		if !ok {
			return domainerrors.ErrQuestionNotInBallot
		}
		if owner, ok := choiceQuestion[choiceID]; !ok || owner != questionID {
			return domainerrors.ErrChoiceNotInQuestion
		}

		pair := questionID + "\x00" + choiceID
		if _, dup := seenPairs[pair]; dup {
			return domainerrors.ErrInvalidAnswerSet
		}
		seenPairs[pair] = struct{}{}
		perQuestion[questionID]++

		switch question.Type {
		case entities.QuestionTypeSingle:
			if perQuestion[questionID] > 1 {
				return domainerrors.ErrInvalidAnswerSet
			}
		case entities.QuestionTypeMultiple:
			if perQuestion[questionID] > maxSelections(question) {
				return domainerrors.ErrInvalidAnswerSet
			}
		case entities.QuestionTypeRank:
			if perQuestion[questionID] > maxSelections(question) {
				return domainerrors.ErrInvalidAnswerSet
			}
			if answer.Rank == nil || *answer.Rank < 1 {
				return domainerrors.ErrInvalidAnswerSet
			}
			ranks, ok := seenRanks[questionID]
			if !ok {
				ranks = make(map[int]struct{})
				seenRanks[questionID] = ranks
			}
			if _, dup := ranks[*answer.Rank]; dup {
				return domainerrors.ErrInvalidAnswerSet
			}
			ranks[*answer.Rank] = struct{}{}
		default:
			return domainerrors.ErrInvalidAnswerSet
		}
	}
	return nil
}

func maxSelections(question ports.QuestionProjection) int {
	if question.MaxSelections < 1 {
		return 1
	}
	return question.MaxSelections
}

func isCastingPrecondition(err error) bool {
	for _, sentinel := range []error{
		domainerrors.ErrBallotNotFound,
		domainerrors.ErrBallotNotActive,
		domainerrors.ErrVoterNotFound,
		domainerrors.ErrVoterNotInBallot,
		domainerrors.ErrVoterAlreadyVoted,
		domainerrors.ErrQuestionNotInBallot,
		domainerrors.ErrChoiceNotInQuestion,
		domainerrors.ErrInvalidAnswerSet,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

func (uc CastVoteUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}
