package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	ballotdomainerrors "ballotbox/contexts/election-core/ballot-service/domain/errors"
	ballothttp "ballotbox/contexts/election-core/ballot-service/transport/http"
)

func (s *Server) handleCreateBallot(w http.ResponseWriter, r *http.Request) {
	var req ballothttp.CreateBallotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBallotError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.ballots.Handler.CreateBallotHandler(r.Context(), req)
	if err != nil {
		writeBallotDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListBallots(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ballots.Handler.ListBallotsHandler(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeBallotDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetBallot(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ballots.Handler.GetBallotHandler(r.Context(), r.PathValue("ballot_id"))
	if err != nil {
		writeBallotDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChangeBallotStatus(w http.ResponseWriter, r *http.Request) {
	var req ballothttp.ChangeStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBallotError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.ballots.Handler.ChangeStatusHandler(r.Context(), r.PathValue("ballot_id"), req)
	if err != nil {
		writeBallotDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeBallotDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ballotdomainerrors.ErrBallotNotFound):
		writeBallotError(w, http.StatusNotFound, "ballot_not_found", err.Error())
	case errors.Is(err, ballotdomainerrors.ErrInvalidBallotInput):
		writeBallotError(w, http.StatusBadRequest, "invalid_ballot_input", err.Error())
	case errors.Is(err, ballotdomainerrors.ErrInvalidStatusTransition):
		writeBallotError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	case errors.Is(err, ballotdomainerrors.ErrBallotNotStarted):
		writeBallotError(w, http.StatusConflict, "ballot_not_started", err.Error())
	default:
		writeBallotError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeBallotError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, ballothttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
