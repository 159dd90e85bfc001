package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	castingdomainerrors "ballotbox/contexts/election-core/vote-casting/domain/errors"
	castinghttp "ballotbox/contexts/election-core/vote-casting/transport/http"
)

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	var req castinghttp.CastVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCastingError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.casting.Handler.CastVoteHandler(r.Context(), r.PathValue("ballot_id"), req)
	if err != nil {
		writeCastingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleBallotResults(w http.ResponseWriter, r *http.Request) {
	resp, err := s.casting.Handler.BallotResultsHandler(r.Context(), r.PathValue("ballot_id"))
	if err != nil {
		writeCastingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeCastingDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, castingdomainerrors.ErrBallotNotFound):
		writeCastingError(w, http.StatusNotFound, "ballot_not_found", err.Error())
	case errors.Is(err, castingdomainerrors.ErrVoterNotFound):
		writeCastingError(w, http.StatusNotFound, "voter_not_found", err.Error())
	case errors.Is(err, castingdomainerrors.ErrBallotNotActive):
		writeCastingError(w, http.StatusConflict, "ballot_not_active", err.Error())
	case errors.Is(err, castingdomainerrors.ErrVoterNotInBallot):
		writeCastingError(w, http.StatusForbidden, "voter_not_in_ballot", err.Error())
	case errors.Is(err, castingdomainerrors.ErrVoterAlreadyVoted):
		writeCastingError(w, http.StatusConflict, "voter_already_voted", err.Error())
	case errors.Is(err, castingdomainerrors.ErrQuestionNotInBallot):
		writeCastingError(w, http.StatusUnprocessableEntity, "question_not_in_ballot", err.Error())
	case errors.Is(err, castingdomainerrors.ErrChoiceNotInQuestion):
		writeCastingError(w, http.StatusUnprocessableEntity, "choice_not_in_question", err.Error())
	case errors.Is(err, castingdomainerrors.ErrInvalidAnswerSet):
		writeCastingError(w, http.StatusUnprocessableEntity, "invalid_answer_set", err.Error())
	case errors.Is(err, castingdomainerrors.ErrTransactionFailure):
		writeCastingError(w, http.StatusServiceUnavailable, "casting_unavailable", err.Error())
	default:
		writeCastingError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeCastingError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, castinghttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
