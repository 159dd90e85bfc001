package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "ballotbox/contexts/election-core/voter-registry/application"
	"ballotbox/contexts/election-core/voter-registry/domain/entities"
	domainerrors "ballotbox/contexts/election-core/voter-registry/domain/errors"
	"ballotbox/contexts/election-core/voter-registry/ports"
)

// RegistrationInput is one voter to add in a bulk call.
type RegistrationInput struct {
	Email string
	Name  string
}

// BulkRegistrationResult reports what a bulk call actually changed.
type BulkRegistrationResult struct {
	Added         []entities.Voter
	ExistingCount int
	TotalVoters   int
}

// RegistryUseCase maintains the voter roster and the total_voters counter.
// Both the single and the bulk path converge on the same invariant: the
// counter is always set from a fresh count taken inside the same transaction
// as the inserts. Blind increments are a source of drift and are not used.
type RegistryUseCase struct {
	Repo   ports.RegistryRepository
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

// RegisterVoter creates the voter or returns the existing row for the same
// (ballot, email) pair. Idempotent.
func (uc RegistryUseCase) RegisterVoter(ctx context.Context, ballotID string, email string, name string) (entities.Voter, error) {
	logger := application.ResolveLogger(uc.Logger)
	ballotID = strings.TrimSpace(ballotID)
	email = entities.NormalizeEmail(email)
	name = strings.TrimSpace(name)
	if ballotID == "" || !entities.IsPlausibleEmail(email) {
		return entities.Voter{}, domainerrors.ErrInvalidVoterInput
	}

	now := uc.now()
	var registered entities.Voter
	err := uc.Repo.WithinTx(ctx, func(tx ports.RegistryRepository) error {
		if _, err := tx.GetBallot(ctx, ballotID); err != nil {
			return err
		}
		if existing, found, err := tx.GetVoterByEmail(ctx, ballotID, email); err != nil {
			return err
		} else if found {
			registered = existing
			return nil
		}

		voterID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return err
		}
		voter := entities.Voter{
			VoterID:   voterID,
			BallotID:  ballotID,
			Email:     email,
			Name:      name,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.InsertVoter(ctx, voter); err != nil {
			return err
		}
		total, err := tx.CountVoters(ctx, ballotID)
		if err != nil {
			return err
		}
		if err := tx.SetTotalVoters(ctx, ballotID, total, now); err != nil {
			return err
		}
		registered = voter
		return nil
	})
	if err != nil {
		return entities.Voter{}, uc.classify(logger, "registry_register_failed", ballotID, err)
	}

	logger.Info("voter registered",
		"event", "registry_voter_registered",
		"module", "election-core/voter-registry",
		"layer", "application",
		"ballot_id", ballotID,
		"voter_id", registered.VoterID,
	)
	return registered, nil
}

// RegisterVoters adds a batch inside one transaction: existing (ballot, email)
// pairs are skipped, the rest inserted, and total_voters set to the recounted
// total before commit.
func (uc RegistryUseCase) RegisterVoters(ctx context.Context, ballotID string, inputs []RegistrationInput) (BulkRegistrationResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	ballotID = strings.TrimSpace(ballotID)
	if ballotID == "" || len(inputs) == 0 {
		return BulkRegistrationResult{}, domainerrors.ErrInvalidVoterInput
	}

	now := uc.now()
	var result BulkRegistrationResult
	err := uc.Repo.WithinTx(ctx, func(tx ports.RegistryRepository) error {
		if _, err := tx.GetBallot(ctx, ballotID); err != nil {
			return err
		}

		seen := make(map[string]bool, len(inputs))
		for _, input := range inputs {
			email := entities.NormalizeEmail(input.Email)
			if !entities.IsPlausibleEmail(email) {
				return domainerrors.ErrInvalidVoterInput
			}
			if seen[email] {
				result.ExistingCount++
				continue
			}
			seen[email] = true

			if _, found, err := tx.GetVoterByEmail(ctx, ballotID, email); err != nil {
				return err
			} else if found {
				result.ExistingCount++
				continue
			}

			voterID, err := uc.IDGen.NewID(ctx)
			if err != nil {
				return err
			}
			voter := entities.Voter{
				VoterID:   voterID,
				BallotID:  ballotID,
				Email:     email,
				Name:      strings.TrimSpace(input.Name),
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := tx.InsertVoter(ctx, voter); err != nil {
				return err
			}
			result.Added = append(result.Added, voter)
		}

		total, err := tx.CountVoters(ctx, ballotID)
		if err != nil {
			return err
		}
		if err := tx.SetTotalVoters(ctx, ballotID, total, now); err != nil {
			return err
		}
		result.TotalVoters = total
		return nil
	})
	if err != nil {
		return BulkRegistrationResult{}, uc.classify(logger, "registry_bulk_register_failed", ballotID, err)
	}

	logger.Info("voters imported",
		"event", "registry_voters_imported",
		"module", "election-core/voter-registry",
		"layer", "application",
		"ballot_id", ballotID,
		"added_count", len(result.Added),
		"existing_count", result.ExistingCount,
		"total_voters", result.TotalVoters,
	)
	return result, nil
}

// VerifyVoter marks a voter verified. Called by the identity-verification
// collaborator once its checks pass.
func (uc RegistryUseCase) VerifyVoter(ctx context.Context, ballotID string, voterID string) (entities.Voter, error) {
	logger := application.ResolveLogger(uc.Logger)
	ballotID = strings.TrimSpace(ballotID)
	voterID = strings.TrimSpace(voterID)
	if ballotID == "" || voterID == "" {
		return entities.Voter{}, domainerrors.ErrInvalidVoterInput
	}

	voter, err := uc.Repo.GetVoter(ctx, ballotID, voterID)
	if err != nil {
		return entities.Voter{}, err
	}
	if voter.IsVerified {
		return voter, nil
	}
	voter.IsVerified = true
	voter.UpdatedAt = uc.now()
	if err := uc.Repo.SaveVoter(ctx, voter); err != nil {
		return entities.Voter{}, err
	}

	logger.Info("voter verified",
		"event", "registry_voter_verified",
		"module", "election-core/voter-registry",
		"layer", "application",
		"ballot_id", ballotID,
		"voter_id", voterID,
	)
	return voter, nil
}

func (uc RegistryUseCase) classify(logger *slog.Logger, event string, ballotID string, err error) error {
	if errors.Is(err, domainerrors.ErrBallotNotFound) ||
		errors.Is(err, domainerrors.ErrInvalidVoterInput) ||
		errors.Is(err, domainerrors.ErrVoterNotFound) {
		return err
	}
	logger.Error("registration transaction rolled back",
		"event", event,
		"module", "election-core/voter-registry",
		"layer", "application",
		"ballot_id", ballotID,
		"error", err.Error(),
	)
	return fmt.Errorf("%w: %v", domainerrors.ErrRegistrationTx, err)
}

func (uc RegistryUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}
