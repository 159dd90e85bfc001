package voterregistry

import (
	"log/slog"

	httpadapter "ballotbox/contexts/election-core/voter-registry/adapters/http"
	"ballotbox/contexts/election-core/voter-registry/adapters/memory"
	"ballotbox/contexts/election-core/voter-registry/application/commands"
	"ballotbox/contexts/election-core/voter-registry/application/queries"
	"ballotbox/contexts/election-core/voter-registry/domain/entities"
	"ballotbox/contexts/election-core/voter-registry/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Repo   ports.RegistryRepository
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

func NewModule(deps Dependencies) Module {
	registryUseCase := commands.RegistryUseCase{
		Repo:   deps.Repo,
		Clock:  deps.Clock,
		IDGen:  deps.IDGen,
		Logger: deps.Logger,
	}
	rosterUseCase := queries.RosterUseCase{
		Repo: deps.Repo,
	}
	return Module{
		Handler: httpadapter.Handler{
			Registry: registryUseCase,
			Roster:   rosterUseCase,
			Logger:   deps.Logger,
		},
	}
}

func NewInMemoryModule(seed []entities.Voter, logger *slog.Logger) Module {
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
