package commands

import (
	"context"
	"log/slog"
	"strings"

	application "ballotbox/contexts/election-core/ballot-service/application"
	"ballotbox/contexts/election-core/ballot-service/domain/entities"
	domainerrors "ballotbox/contexts/election-core/ballot-service/domain/errors"
	"ballotbox/contexts/election-core/ballot-service/ports"
)

type ChangeStatusCommand struct {
	BallotID string
	To       string
	// Force lets an operator activate a scheduled ballot before its start
	// date.
	Force bool
}

type ChangeStatusUseCase struct {
	Repo   ports.BallotRepository
	Clock  ports.Clock
	Logger *slog.Logger
}

// Execute moves a ballot along its lifecycle. Legal transitions are
// draft->scheduled, draft->active, scheduled->active, active->completed;
// completed is terminal. Activating a scheduled ballot before its start date
// requires Force.
func (uc ChangeStatusUseCase) Execute(ctx context.Context, cmd ChangeStatusCommand) (entities.Ballot, error) {
	logger := application.ResolveLogger(uc.Logger)
	to := entities.BallotStatus(strings.TrimSpace(cmd.To))
	if !entities.IsSupportedStatus(to) {
		return entities.Ballot{}, domainerrors.ErrInvalidStatusTransition
	}

	ballot, err := uc.Repo.GetBallot(ctx, strings.TrimSpace(cmd.BallotID))
	if err != nil {
		return entities.Ballot{}, err
	}

	now := uc.Clock.Now().UTC()
	from := ballot.Status
	switch {
	case from == entities.BallotStatusDraft && to == entities.BallotStatusScheduled:
		if ballot.StartDate == nil {
			return entities.Ballot{}, domainerrors.ErrInvalidBallotInput
		}
	case from == entities.BallotStatusDraft && to == entities.BallotStatusActive:
	case from == entities.BallotStatusScheduled && to == entities.BallotStatusActive:
		if !cmd.Force && ballot.StartDate != nil && ballot.StartDate.UTC().After(now) {
			return entities.Ballot{}, domainerrors.ErrBallotNotStarted
		}
	case from == entities.BallotStatusActive && to == entities.BallotStatusCompleted:
	default:
		return entities.Ballot{}, domainerrors.ErrInvalidStatusTransition
	}

	ballot.Status = to
	ballot.UpdatedAt = now
	if err := uc.Repo.SaveBallot(ctx, ballot); err != nil {
		return entities.Ballot{}, err
	}

	logger.Info("ballot status changed",
		"event", "ballot_status_changed",
		"module", "election-core/ballot-service",
		"layer", "application",
		"ballot_id", ballot.BallotID,
		"from_status", string(from),
		"to_status", string(to),
	)
	return ballot, nil
}
