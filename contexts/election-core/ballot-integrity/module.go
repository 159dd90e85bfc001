package ballotintegrity

import (
	"log/slog"

	httpadapter "ballotbox/contexts/election-core/ballot-integrity/adapters/http"
	"ballotbox/contexts/election-core/ballot-integrity/adapters/memory"
	"ballotbox/contexts/election-core/ballot-integrity/application/commands"
	"ballotbox/contexts/election-core/ballot-integrity/application/queries"
	"ballotbox/contexts/election-core/ballot-integrity/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Repo   ports.IntegrityRepository
	Clock  ports.Clock
	Logger *slog.Logger
}

func NewModule(deps Dependencies) Module {
	validatorUseCase := queries.ValidatorUseCase{
		Repo:   deps.Repo,
		Logger: deps.Logger,
	}
	repairUseCase := commands.RepairUseCase{
		Repo:   deps.Repo,
		Clock:  deps.Clock,
		Logger: deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Validator: validatorUseCase,
			Repair:    repairUseCase,
			Logger:    deps.Logger,
		},
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Repo:   store,
		Clock:  store,
		Logger: logger,
	})
	module.Store = store
	return module
}
