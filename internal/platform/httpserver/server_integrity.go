package httpserver

import (
	"errors"
	"net/http"

	integritydomainerrors "ballotbox/contexts/election-core/ballot-integrity/domain/errors"
	integrityhttp "ballotbox/contexts/election-core/ballot-integrity/transport/http"
)

func (s *Server) handleValidateAllBallots(w http.ResponseWriter, r *http.Request) {
	resp, err := s.integrity.Handler.ValidateAllBallotsHandler(r.Context())
	if err != nil {
		writeIntegrityDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleValidateBallot(w http.ResponseWriter, r *http.Request) {
	resp, err := s.integrity.Handler.ValidateBallotHandler(r.Context(), r.PathValue("ballot_id"))
	if err != nil {
		writeIntegrityDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRepairBallot(w http.ResponseWriter, r *http.Request) {
	resp, err := s.integrity.Handler.RepairBallotHandler(r.Context(), r.PathValue("ballot_id"))
	if err != nil {
		writeIntegrityDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeIntegrityDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, integritydomainerrors.ErrBallotNotFound):
		writeIntegrityError(w, http.StatusNotFound, "ballot_not_found", err.Error())
	case errors.Is(err, integritydomainerrors.ErrRepairTx):
		writeIntegrityError(w, http.StatusServiceUnavailable, "repair_unavailable", err.Error())
	default:
		writeIntegrityError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeIntegrityError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, integrityhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
