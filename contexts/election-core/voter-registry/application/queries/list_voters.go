package queries

import (
	"context"
	"strings"

	"ballotbox/contexts/election-core/voter-registry/domain/entities"
	"ballotbox/contexts/election-core/voter-registry/ports"
)

type RosterUseCase struct {
	Repo ports.RegistryRepository
}

func (uc RosterUseCase) ListVoters(ctx context.Context, ballotID string) ([]entities.Voter, error) {
	ballotID = strings.TrimSpace(ballotID)
	if _, err := uc.Repo.GetBallot(ctx, ballotID); err != nil {
		return nil, err
	}
	return uc.Repo.ListVoters(ctx, ballotID)
}
