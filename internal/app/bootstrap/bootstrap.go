package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	ballotintegrity "ballotbox/contexts/election-core/ballot-integrity"
	integritypostgres "ballotbox/contexts/election-core/ballot-integrity/adapters/postgres"
	ballotservice "ballotbox/contexts/election-core/ballot-service"
	ballotpostgres "ballotbox/contexts/election-core/ballot-service/adapters/postgres"
	ballotworkers "ballotbox/contexts/election-core/ballot-service/application/workers"
	votecasting "ballotbox/contexts/election-core/vote-casting"
	castingpostgres "ballotbox/contexts/election-core/vote-casting/adapters/postgres"
	castingworkers "ballotbox/contexts/election-core/vote-casting/application/workers"
	voterregistry "ballotbox/contexts/election-core/voter-registry"
	registrypostgres "ballotbox/contexts/election-core/voter-registry/adapters/postgres"
	"ballotbox/internal/platform/config"
	"ballotbox/internal/platform/db"
	"ballotbox/internal/platform/httpserver"
	"ballotbox/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres *db.Postgres

	deadlines      ballotworkers.DeadlineCompleter
	outboxRelay    castingworkers.OutboxRelay
	enableDeadline bool
	enableRelay    bool

	pollInterval time.Duration
	logger       *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	ballotModule := ballotservice.NewModule(ballotservice.Dependencies{
		Repo:   ballotpostgres.NewRepository(pg.DB, logger),
		Clock:  ballotpostgres.SystemClock{},
		IDGen:  ballotpostgres.UUIDGenerator{},
		Logger: logger,
	})
	registryModule := voterregistry.NewModule(voterregistry.Dependencies{
		Repo:   registrypostgres.NewRepository(pg.DB, logger),
		Clock:  registrypostgres.SystemClock{},
		IDGen:  registrypostgres.UUIDGenerator{},
		Logger: logger,
	})
	castingModule := votecasting.NewModule(votecasting.Dependencies{
		Repo:   castingpostgres.NewRepository(pg.DB, logger),
		Clock:  castingpostgres.SystemClock{},
		IDGen:  castingpostgres.UUIDGenerator{},
		Logger: logger,
	})
	integrityModule := ballotintegrity.NewModule(ballotintegrity.Dependencies{
		Repo:   integritypostgres.NewRepository(pg.DB, logger),
		Clock:  integritypostgres.SystemClock{},
		Logger: logger,
	})

	server := httpserver.New(
		ballotModule,
		registryModule,
		castingModule,
		integrityModule,
		logger,
		normalizeAddr(cfg.HTTPPort),
	)
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	bus := messaging.NewBus(logger)
	castingRepo := castingpostgres.NewRepository(pg.DB, logger)
	ballotRepo := ballotpostgres.NewRepository(pg.DB, logger)

	return &WorkerApp{
		postgres: pg,
		deadlines: ballotworkers.DeadlineCompleter{
			Ballots:   ballotRepo,
			Clock:     ballotpostgres.SystemClock{},
			BatchSize: 100,
			Logger:    logger,
		},
		outboxRelay: castingworkers.OutboxRelay{
			Outbox:    castingRepo,
			Publisher: bus,
			Clock:     castingpostgres.SystemClock{},
			BatchSize: 100,
			Logger:    logger,
		},
		enableDeadline: cfg.EnableDeadlineCompletion,
		enableRelay:    cfg.EnableOutboxRelay,
		pollInterval:   2 * time.Second,
		logger:         logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
		"deadline_completion", w.enableDeadline,
		"outbox_relay", w.enableRelay,
	)

	for {
		if w.enableDeadline {
			if err := w.deadlines.RunOnce(ctx); err != nil {
				return err
			}
		}
		if w.enableRelay {
			if err := w.outboxRelay.RunOnce(ctx); err != nil {
				return err
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
