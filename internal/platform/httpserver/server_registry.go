package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	registrydomainerrors "ballotbox/contexts/election-core/voter-registry/domain/errors"
	registryhttp "ballotbox/contexts/election-core/voter-registry/transport/http"
)

func (s *Server) handleRegisterVoter(w http.ResponseWriter, r *http.Request) {
	var req registryhttp.RegisterVoterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRegistryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.registry.Handler.RegisterVoterHandler(r.Context(), r.PathValue("ballot_id"), req)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleImportVoters(w http.ResponseWriter, r *http.Request) {
	var req registryhttp.ImportVotersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRegistryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.registry.Handler.ImportVotersHandler(r.Context(), r.PathValue("ballot_id"), req)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListVoters(w http.ResponseWriter, r *http.Request) {
	resp, err := s.registry.Handler.ListVotersHandler(r.Context(), r.PathValue("ballot_id"))
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVerifyVoter(w http.ResponseWriter, r *http.Request) {
	resp, err := s.registry.Handler.VerifyVoterHandler(
		r.Context(),
		r.PathValue("ballot_id"),
		r.PathValue("voter_id"),
	)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeRegistryDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, registrydomainerrors.ErrBallotNotFound):
		writeRegistryError(w, http.StatusNotFound, "ballot_not_found", err.Error())
	case errors.Is(err, registrydomainerrors.ErrVoterNotFound):
		writeRegistryError(w, http.StatusNotFound, "voter_not_found", err.Error())
	case errors.Is(err, registrydomainerrors.ErrInvalidVoterInput):
		writeRegistryError(w, http.StatusUnprocessableEntity, "invalid_voter_input", err.Error())
	case errors.Is(err, registrydomainerrors.ErrRegistrationTx):
		writeRegistryError(w, http.StatusServiceUnavailable, "registration_unavailable", err.Error())
	default:
		writeRegistryError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeRegistryError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, registryhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
