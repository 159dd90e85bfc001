package ballotservice

import (
	"log/slog"

	httpadapter "ballotbox/contexts/election-core/ballot-service/adapters/http"
	"ballotbox/contexts/election-core/ballot-service/adapters/memory"
	"ballotbox/contexts/election-core/ballot-service/application/commands"
	"ballotbox/contexts/election-core/ballot-service/application/queries"
	"ballotbox/contexts/election-core/ballot-service/domain/entities"
	"ballotbox/contexts/election-core/ballot-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Repo   ports.BallotRepository
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

func NewModule(deps Dependencies) Module {
	createUseCase := commands.CreateBallotUseCase{
		Repo:   deps.Repo,
		Clock:  deps.Clock,
		IDGen:  deps.IDGen,
		Logger: deps.Logger,
	}
	statusUseCase := commands.ChangeStatusUseCase{
		Repo:   deps.Repo,
		Clock:  deps.Clock,
		Logger: deps.Logger,
	}
	ballotQueries := queries.BallotQueries{
		Repo: deps.Repo,
	}
	return Module{
		Handler: httpadapter.Handler{
			Create:  createUseCase,
			Status:  statusUseCase,
			Queries: ballotQueries,
			Logger:  deps.Logger,
		},
	}
}

func NewInMemoryModule(seed []entities.Ballot, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Repo:   store,
		Clock:  store,
		IDGen:  store,
		Logger: logger,
	})
	module.Store = store
	return module
}
