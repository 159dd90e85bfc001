package queries

import (
	"context"
	"sort"
	"strings"

	"ballotbox/contexts/election-core/vote-casting/domain/entities"
	"ballotbox/contexts/election-core/vote-casting/ports"
)

// ResultsUseCase is the tally read path: vote rows grouped by question and
// choice. It never mutates the store.
type ResultsUseCase struct {
	Repo ports.CastingRepository
}

func (uc ResultsUseCase) BallotResults(ctx context.Context, ballotID string) (entities.BallotResults, error) {
	ballotID = strings.TrimSpace(ballotID)
	ballot, err := uc.Repo.GetBallot(ctx, ballotID)
	if err != nil {
		return entities.BallotResults{}, err
	}
	questions, err := uc.Repo.ListQuestions(ctx, ballotID)
	if err != nil {
		return entities.BallotResults{}, err
	}
	choices, err := uc.Repo.ListChoices(ctx, ballotID)
	if err != nil {
		return entities.BallotResults{}, err
	}
	votes, err := uc.Repo.ListVotesByBallot(ctx, ballotID)
	if err != nil {
		return entities.BallotResults{}, err
	}

	voteCount := make(map[string]int, len(votes))
	rankSum := make(map[string]int, len(votes))
	for _, vote := range votes {
		voteCount[vote.ChoiceID]++
		if vote.Rank != nil {
			rankSum[vote.ChoiceID] += *vote.Rank
		}
	}

	choicesByQuestion := make(map[string][]ports.ChoiceProjection, len(questions))
	for _, choice := range choices {
		choicesByQuestion[choice.QuestionID] = append(choicesByQuestion[choice.QuestionID], choice)
	}

	tallies := make([]entities.QuestionTally, 0, len(questions))
	for _, question := range questions {
		tally := entities.QuestionTally{
			QuestionID: question.QuestionID,
			Prompt:     question.Prompt,
			Type:       question.Type,
			Position:   question.Position,
		}
		for _, choice := range choicesByQuestion[question.QuestionID] {
			tally.Choices = append(tally.Choices, entities.ChoiceTally{
				ChoiceID: choice.ChoiceID,
				Label:    choice.Label,
				Position: choice.Position,
				Votes:    voteCount[choice.ChoiceID],
				RankSum:  rankSum[choice.ChoiceID],
			})
		}
		sort.Slice(tally.Choices, func(i, j int) bool {
			return tally.Choices[i].Position < tally.Choices[j].Position
		})
		tallies = append(tallies, tally)
	}
	sort.Slice(tallies, func(i, j int) bool {
		return tallies[i].Position < tallies[j].Position
	})

	return entities.BallotResults{
		BallotID:        ballot.BallotID,
		TotalVoters:     ballot.TotalVoters,
		BallotsReceived: ballot.BallotsReceived,
		Questions:       tallies,
	}, nil
}
