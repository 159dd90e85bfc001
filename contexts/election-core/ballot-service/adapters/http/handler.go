package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"ballotbox/contexts/election-core/ballot-service/application/commands"
	"ballotbox/contexts/election-core/ballot-service/application/queries"
	"ballotbox/contexts/election-core/ballot-service/domain/entities"
	domainerrors "ballotbox/contexts/election-core/ballot-service/domain/errors"
	httptransport "ballotbox/contexts/election-core/ballot-service/transport/http"
)

type Handler struct {
	Create  commands.CreateBallotUseCase
	Status  commands.ChangeStatusUseCase
	Queries queries.BallotQueries
	Logger  *slog.Logger
}

func (h Handler) CreateBallotHandler(ctx context.Context, req httptransport.CreateBallotRequest) (httptransport.BallotDetailResponse, error) {
	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return httptransport.BallotDetailResponse{}, err
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return httptransport.BallotDetailResponse{}, err
	}
	questions := make([]commands.QuestionInput, 0, len(req.Questions))
	for _, question := range req.Questions {
		choices := make([]commands.ChoiceInput, 0, len(question.Choices))
		for _, choice := range question.Choices {
			choices = append(choices, commands.ChoiceInput{Label: choice.Label})
		}
		questions = append(questions, commands.QuestionInput{
			Prompt:        question.Prompt,
			Type:          question.Type,
			MaxSelections: question.MaxSelections,
			Choices:       choices,
		})
	}
	detail, err := h.Create.Execute(ctx, commands.CreateBallotCommand{
		Title:               req.Title,
		CreatorEmail:        req.CreatorEmail,
		StartDate:           startDate,
		EndDate:             endDate,
		RequireVerification: req.RequireVerification,
		Questions:           questions,
	})
	if err != nil {
		return httptransport.BallotDetailResponse{}, err
	}
	return toDetailResponse(detail), nil
}

func (h Handler) ChangeStatusHandler(
	ctx context.Context,
	ballotID string,
	req httptransport.ChangeStatusRequest,
) (httptransport.BallotResponse, error) {
	ballot, err := h.Status.Execute(ctx, commands.ChangeStatusCommand{
		BallotID: ballotID,
		To:       req.To,
		Force:    req.Force,
	})
	if err != nil {
		return httptransport.BallotResponse{}, err
	}
	return toBallotResponse(ballot), nil
}

func (h Handler) GetBallotHandler(ctx context.Context, ballotID string) (httptransport.BallotDetailResponse, error) {
	detail, err := h.Queries.GetBallot(ctx, ballotID)
	if err != nil {
		return httptransport.BallotDetailResponse{}, err
	}
	return toDetailResponse(detail), nil
}

func (h Handler) ListBallotsHandler(ctx context.Context, status string) (httptransport.BallotListResponse, error) {
	ballots, err := h.Queries.ListBallots(ctx, status)
	if err != nil {
		return httptransport.BallotListResponse{}, err
	}
	items := make([]httptransport.BallotResponse, 0, len(ballots))
	for _, ballot := range ballots {
		items = append(items, toBallotResponse(ballot))
	}
	return httptransport.BallotListResponse{Items: items}, nil
}

func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, domainerrors.ErrInvalidBallotInput
	}
	utc := parsed.UTC()
	return &utc, nil
}

func toBallotResponse(ballot entities.Ballot) httptransport.BallotResponse {
	out := httptransport.BallotResponse{
		BallotID:            ballot.BallotID,
		Title:               ballot.Title,
		CreatorEmail:        ballot.CreatorEmail,
		Status:              string(ballot.Status),
		RequireVerification: ballot.RequireVerification,
		TotalVoters:         ballot.TotalVoters,
		BallotsReceived:     ballot.BallotsReceived,
	}
	if ballot.StartDate != nil {
		out.StartDate = ballot.StartDate.UTC().Format(time.RFC3339)
	}
	if ballot.EndDate != nil {
		out.EndDate = ballot.EndDate.UTC().Format(time.RFC3339)
	}
	return out
}

func toDetailResponse(detail entities.BallotDetail) httptransport.BallotDetailResponse {
	out := httptransport.BallotDetailResponse{
		BallotResponse: toBallotResponse(detail.Ballot),
		Questions:      make([]httptransport.QuestionItem, 0, len(detail.Questions)),
	}
	for _, question := range detail.Questions {
		item := httptransport.QuestionItem{
			QuestionID:    question.Question.QuestionID,
			Prompt:        question.Question.Prompt,
			Type:          string(question.Question.Type),
			MaxSelections: question.Question.MaxSelections,
			Position:      question.Question.Position,
			Choices:       make([]httptransport.ChoiceItem, 0, len(question.Choices)),
		}
		for _, choice := range question.Choices {
			item.Choices = append(item.Choices, httptransport.ChoiceItem{
				ChoiceID: choice.ChoiceID,
				Label:    choice.Label,
				Position: choice.Position,
			})
		}
		out.Questions = append(out.Questions, item)
	}
	return out
}
