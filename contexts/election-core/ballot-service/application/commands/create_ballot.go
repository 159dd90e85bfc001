package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "ballotbox/contexts/election-core/ballot-service/application"
	"ballotbox/contexts/election-core/ballot-service/domain/entities"
	domainerrors "ballotbox/contexts/election-core/ballot-service/domain/errors"
	"ballotbox/contexts/election-core/ballot-service/ports"
)

type ChoiceInput struct {
	Label string
}

type QuestionInput struct {
	Prompt        string
	Type          string
	MaxSelections int
	Choices       []ChoiceInput
}

type CreateBallotCommand struct {
	Title               string
	CreatorEmail        string
	StartDate           *time.Time
	EndDate             *time.Time
	RequireVerification bool
	Questions           []QuestionInput
}

type CreateBallotUseCase struct {
	Repo   ports.BallotRepository
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

// Execute creates a draft ballot with its full question tree in one
// transaction. Counters start at zero; the registry and the casting path are
// the only writers after this point.
func (uc CreateBallotUseCase) Execute(ctx context.Context, cmd CreateBallotCommand) (entities.BallotDetail, error) {
	logger := application.ResolveLogger(uc.Logger)
	now := uc.Clock.Now().UTC()

	ballotID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.BallotDetail{}, err
	}
	ballot := entities.Ballot{
		BallotID:            ballotID,
		Title:               strings.TrimSpace(cmd.Title),
		CreatorEmail:        strings.ToLower(strings.TrimSpace(cmd.CreatorEmail)),
		Status:              entities.BallotStatusDraft,
		StartDate:           cmd.StartDate,
		EndDate:             cmd.EndDate,
		RequireVerification: cmd.RequireVerification,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if !ballot.ValidateBasics() || len(cmd.Questions) == 0 {
		return entities.BallotDetail{}, domainerrors.ErrInvalidBallotInput
	}

	detail := entities.BallotDetail{Ballot: ballot}
	for position, input := range cmd.Questions {
		question, choices, err := uc.buildQuestion(ctx, ballotID, position, input)
		if err != nil {
			return entities.BallotDetail{}, err
		}
		detail.Questions = append(detail.Questions, entities.QuestionDetail{
			Question: question,
			Choices:  choices,
		})
	}

	err = uc.Repo.WithinTx(ctx, func(tx ports.BallotRepository) error {
		if err := tx.InsertBallot(ctx, ballot); err != nil {
			return err
		}
		questions := make([]entities.Question, 0, len(detail.Questions))
		choices := make([]entities.Choice, 0)
		for _, item := range detail.Questions {
			questions = append(questions, item.Question)
			choices = append(choices, item.Choices...)
		}
		if err := tx.InsertQuestions(ctx, questions); err != nil {
			return err
		}
		return tx.InsertChoices(ctx, choices)
	})
	if err != nil {
		return entities.BallotDetail{}, err
	}

	logger.Info("ballot created",
		"event", "ballot_created",
		"module", "election-core/ballot-service",
		"layer", "application",
		"ballot_id", ballot.BallotID,
		"question_count", len(detail.Questions),
	)
	return detail, nil
}

func (uc CreateBallotUseCase) buildQuestion(
	ctx context.Context,
	ballotID string,
	position int,
	input QuestionInput,
) (entities.Question, []entities.Choice, error) {
	questionType := entities.QuestionType(strings.TrimSpace(input.Type))
	if questionType == "" {
		questionType = entities.QuestionTypeSingle
	}
	prompt := strings.TrimSpace(input.Prompt)
	if prompt == "" || !entities.IsSupportedQuestionType(questionType) || len(input.Choices) < 2 {
		return entities.Question{}, nil, domainerrors.ErrInvalidBallotInput
	}

	maxSelections := input.MaxSelections
	switch questionType {
	case entities.QuestionTypeSingle:
		maxSelections = 1
	default:
		if maxSelections < 1 || maxSelections > len(input.Choices) {
			return entities.Question{}, nil, domainerrors.ErrInvalidBallotInput
		}
	}

	questionID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Question{}, nil, err
	}
	question := entities.Question{
		QuestionID:    questionID,
		BallotID:      ballotID,
		Prompt:        prompt,
		Type:          questionType,
		MaxSelections: maxSelections,
		Position:      position,
	}

	choices := make([]entities.Choice, 0, len(input.Choices))
	for choicePosition, choiceInput := range input.Choices {
		label := strings.TrimSpace(choiceInput.Label)
		if label == "" {
			return entities.Question{}, nil, domainerrors.ErrInvalidBallotInput
		}
		choiceID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return entities.Question{}, nil, err
		}
		choices = append(choices, entities.Choice{
			ChoiceID:   choiceID,
			QuestionID: questionID,
			Label:      label,
			Position:   choicePosition,
		})
	}
	return question, choices, nil
}
