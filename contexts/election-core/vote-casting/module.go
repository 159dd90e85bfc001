package votecasting

import (
	"log/slog"

	httpadapter "ballotbox/contexts/election-core/vote-casting/adapters/http"
	"ballotbox/contexts/election-core/vote-casting/adapters/memory"
	"ballotbox/contexts/election-core/vote-casting/application/commands"
	"ballotbox/contexts/election-core/vote-casting/application/queries"
	"ballotbox/contexts/election-core/vote-casting/domain/entities"
	"ballotbox/contexts/election-core/vote-casting/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Repo   ports.CastingRepository
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

func NewModule(deps Dependencies) Module {
	castUseCase := commands.CastVoteUseCase{
		Repo:   deps.Repo,
		Clock:  deps.Clock,
		IDGen:  deps.IDGen,
		Logger: deps.Logger,
	}
	resultsUseCase := queries.ResultsUseCase{
		Repo: deps.Repo,
	}
	return Module{
		Handler: httpadapter.Handler{
			Casting: castUseCase,
			Results: resultsUseCase,
			Logger:  deps.Logger,
		},
	}
}

func NewInMemoryModule(seed []entities.Vote, logger *slog.Logger) Module {
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
