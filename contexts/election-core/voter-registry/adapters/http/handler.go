package httpadapter

import (
	"context"
	"log/slog"

	"ballotbox/contexts/election-core/voter-registry/application/commands"
	"ballotbox/contexts/election-core/voter-registry/application/queries"
	"ballotbox/contexts/election-core/voter-registry/domain/entities"
	httptransport "ballotbox/contexts/election-core/voter-registry/transport/http"
)

type Handler struct {
	Registry commands.RegistryUseCase
	Roster   queries.RosterUseCase
	Logger   *slog.Logger
}

func (h Handler) RegisterVoterHandler(
	ctx context.Context,
	ballotID string,
	req httptransport.RegisterVoterRequest,
) (httptransport.VoterResponse, error) {
	voter, err := h.Registry.RegisterVoter(ctx, ballotID, req.Email, req.Name)
	if err != nil {
		return httptransport.VoterResponse{}, err
	}
	return toVoterResponse(voter), nil
}

func (h Handler) ImportVotersHandler(
	ctx context.Context,
	ballotID string,
	req httptransport.ImportVotersRequest,
) (httptransport.ImportVotersResponse, error) {
	inputs := make([]commands.RegistrationInput, 0, len(req.Voters))
	for _, voter := range req.Voters {
		inputs = append(inputs, commands.RegistrationInput{
			Email: voter.Email,
			Name:  voter.Name,
		})
	}
	result, err := h.Registry.RegisterVoters(ctx, ballotID, inputs)
	if err != nil {
		return httptransport.ImportVotersResponse{}, err
	}
	added := make([]httptransport.VoterResponse, 0, len(result.Added))
	for _, voter := range result.Added {
		added = append(added, toVoterResponse(voter))
	}
	return httptransport.ImportVotersResponse{
		Added:         added,
		ExistingCount: result.ExistingCount,
		TotalVoters:   result.TotalVoters,
	}, nil
}

func (h Handler) VerifyVoterHandler(ctx context.Context, ballotID string, voterID string) (httptransport.VoterResponse, error) {
	voter, err := h.Registry.VerifyVoter(ctx, ballotID, voterID)
	if err != nil {
		return httptransport.VoterResponse{}, err
	}
	return toVoterResponse(voter), nil
}

func (h Handler) ListVotersHandler(ctx context.Context, ballotID string) (httptransport.VoterListResponse, error) {
	voters, err := h.Roster.ListVoters(ctx, ballotID)
	if err != nil {
		return httptransport.VoterListResponse{}, err
	}
	items := make([]httptransport.VoterResponse, 0, len(voters))
	for _, voter := range voters {
		items = append(items, toVoterResponse(voter))
	}
	return httptransport.VoterListResponse{Items: items}, nil
}

func toVoterResponse(voter entities.Voter) httptransport.VoterResponse {
	return httptransport.VoterResponse{
		VoterID:     voter.VoterID,
		BallotID:    voter.BallotID,
		Email:       voter.Email,
		Name:        voter.Name,
		HasVoted:    voter.HasVoted,
		IsVerified:  voter.IsVerified,
		Placeholder: voter.Placeholder,
	}
}
