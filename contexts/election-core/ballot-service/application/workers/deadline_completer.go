package workers

import (
	"context"
	"log/slog"
	"time"

	application "ballotbox/contexts/election-core/ballot-service/application"
	"ballotbox/contexts/election-core/ballot-service/ports"
)

// DeadlineCompleter sweeps the ballot lifecycle on the worker poll loop:
// scheduled ballots past their start date become active, active ballots past
// their end date complete.
type DeadlineCompleter struct {
	Ballots   ports.DeadlineRepository
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

func (j DeadlineCompleter) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(j.Logger)
	now := time.Now().UTC()
	if j.Clock != nil {
		now = j.Clock.Now().UTC()
	}

	limit := j.BatchSize
	if limit <= 0 {
		limit = 100
	}

	activated, err := j.Ballots.ActivateScheduledBallots(ctx, now, limit)
	if err != nil {
		logger.Error("ballot activation sweep failed",
			"event", "ballot_activation_sweep_failed",
			"module", "election-core/ballot-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	completed, err := j.Ballots.CompleteExpiredBallots(ctx, now, limit)
	if err != nil {
		logger.Error("ballot completion sweep failed",
			"event", "ballot_completion_sweep_failed",
			"module", "election-core/ballot-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if len(activated) > 0 || len(completed) > 0 {
		logger.Info("ballot lifecycle sweep completed",
			"event", "ballot_lifecycle_sweep_completed",
			"module", "election-core/ballot-service",
			"layer", "worker",
			"activated_count", len(activated),
			"completed_count", len(completed),
		)
	}
	return nil
}
