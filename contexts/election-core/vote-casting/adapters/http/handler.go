package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"ballotbox/contexts/election-core/vote-casting/application/commands"
	"ballotbox/contexts/election-core/vote-casting/application/queries"
	"ballotbox/contexts/election-core/vote-casting/domain/entities"
	httptransport "ballotbox/contexts/election-core/vote-casting/transport/http"
)

type Handler struct {
	Casting commands.CastVoteUseCase
	Results queries.ResultsUseCase
	Logger  *slog.Logger
}

func (h Handler) CastVoteHandler(
	ctx context.Context,
	ballotID string,
	req httptransport.CastVoteRequest,
) (httptransport.CastVoteResponse, error) {
	answers := make([]entities.Answer, 0, len(req.Answers))
	for _, answer := range req.Answers {
		answers = append(answers, entities.Answer{
			QuestionID: answer.QuestionID,
			ChoiceID:   answer.ChoiceID,
			Rank:       answer.Rank,
		})
	}
	receipt, err := h.Casting.Execute(ctx, commands.CastVoteCommand{
		BallotID: ballotID,
		VoterID:  req.VoterID,
		Answers:  answers,
	})
	if err != nil {
		return httptransport.CastVoteResponse{}, err
	}
	return httptransport.CastVoteResponse{
		BallotID:      receipt.BallotID,
		VoterID:       receipt.VoterID,
		AnsweredCount: receipt.AnsweredCount,
		AutoVerified:  receipt.AutoVerified,
		CastAt:        receipt.CastAt.Format(time.RFC3339),
	}, nil
}

func (h Handler) BallotResultsHandler(ctx context.Context, ballotID string) (httptransport.BallotResultsResponse, error) {
	results, err := h.Results.BallotResults(ctx, ballotID)
	if err != nil {
		return httptransport.BallotResultsResponse{}, err
	}
	questions := make([]httptransport.QuestionTallyItem, 0, len(results.Questions))
	for _, question := range results.Questions {
		item := httptransport.QuestionTallyItem{
			QuestionID: question.QuestionID,
			Prompt:     question.Prompt,
			Type:       string(question.Type),
		}
		for _, choice := range question.Choices {
			item.Choices = append(item.Choices, httptransport.ChoiceTallyItem{
				ChoiceID: choice.ChoiceID,
				Label:    choice.Label,
				Votes:    choice.Votes,
				RankSum:  choice.RankSum,
			})
		}
		questions = append(questions, item)
	}
	return httptransport.BallotResultsResponse{
		BallotID:        results.BallotID,
		TotalVoters:     results.TotalVoters,
		BallotsReceived: results.BallotsReceived,
		Questions:       questions,
	}, nil
}
