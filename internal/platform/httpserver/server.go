package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"

	ballotintegrity "ballotbox/contexts/election-core/ballot-integrity"
	ballotservice "ballotbox/contexts/election-core/ballot-service"
	votecasting "ballotbox/contexts/election-core/vote-casting"
	voterregistry "ballotbox/contexts/election-core/voter-registry"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "ballotbox/internal/platform/httpserver/docs"
)

type Server struct {
	mux       *http.ServeMux
	logger    *slog.Logger
	addr      string
	ballots   ballotservice.Module
	registry  voterregistry.Module
	casting   votecasting.Module
	integrity ballotintegrity.Module
}

func New(
	ballots ballotservice.Module,
	registry voterregistry.Module,
	casting votecasting.Module,
	integrity ballotintegrity.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:       http.NewServeMux(),
		logger:    logger,
		addr:      addr,
		ballots:   ballots,
		registry:  registry,
		casting:   casting,
		integrity: integrity,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the routed mux, used by httptest in server tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /api/v1/ballots", s.handleCreateBallot)
	s.mux.HandleFunc("GET /api/v1/ballots", s.handleListBallots)
	s.mux.HandleFunc("GET /api/v1/ballots/{ballot_id}", s.handleGetBallot)
	s.mux.HandleFunc("POST /api/v1/ballots/{ballot_id}/status", s.handleChangeBallotStatus)

	s.mux.HandleFunc("POST /api/v1/ballots/{ballot_id}/voters", s.handleRegisterVoter)
	s.mux.HandleFunc("POST /api/v1/ballots/{ballot_id}/voters/import", s.handleImportVoters)
	s.mux.HandleFunc("GET /api/v1/ballots/{ballot_id}/voters", s.handleListVoters)
	s.mux.HandleFunc("POST /api/v1/ballots/{ballot_id}/voters/{voter_id}/verify", s.handleVerifyVoter)

	s.mux.HandleFunc("POST /api/v1/ballots/{ballot_id}/votes", s.handleCastVote)
	s.mux.HandleFunc("GET /api/v1/ballots/{ballot_id}/results", s.handleBallotResults)

	s.mux.HandleFunc("GET /api/v1/admin/integrity", s.handleValidateAllBallots)
	s.mux.HandleFunc("GET /api/v1/admin/integrity/{ballot_id}", s.handleValidateBallot)
	s.mux.HandleFunc("POST /api/v1/admin/integrity/{ballot_id}/repair", s.handleRepairBallot)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
