package queries

import (
	"context"
	"sort"
	"strings"

	"ballotbox/contexts/election-core/ballot-service/domain/entities"
	"ballotbox/contexts/election-core/ballot-service/ports"
)

type BallotQueries struct {
	Repo ports.BallotRepository
}

func (uc BallotQueries) GetBallot(ctx context.Context, ballotID string) (entities.BallotDetail, error) {
	ballotID = strings.TrimSpace(ballotID)
	ballot, err := uc.Repo.GetBallot(ctx, ballotID)
	if err != nil {
		return entities.BallotDetail{}, err
	}
	questions, err := uc.Repo.ListQuestions(ctx, ballotID)
	if err != nil {
		return entities.BallotDetail{}, err
	}
	choices, err := uc.Repo.ListChoices(ctx, ballotID)
	if err != nil {
		return entities.BallotDetail{}, err
	}

	choicesByQuestion := make(map[string][]entities.Choice, len(questions))
	for _, choice := range choices {
		choicesByQuestion[choice.QuestionID] = append(choicesByQuestion[choice.QuestionID], choice)
	}
	sort.Slice(questions, func(i, j int) bool {
		return questions[i].Position < questions[j].Position
	})

	detail := entities.BallotDetail{Ballot: ballot}
	for _, question := range questions {
		items := choicesByQuestion[question.QuestionID]
		sort.Slice(items, func(i, j int) bool {
			return items[i].Position < items[j].Position
		})
		detail.Questions = append(detail.Questions, entities.QuestionDetail{
			Question: question,
			Choices:  items,
		})
	}
	return detail, nil
}

func (uc BallotQueries) ListBallots(ctx context.Context, status string) ([]entities.Ballot, error) {
	return uc.Repo.ListBallots(ctx, ports.BallotFilter{
		Status: entities.BallotStatus(strings.TrimSpace(status)),
	})
}
