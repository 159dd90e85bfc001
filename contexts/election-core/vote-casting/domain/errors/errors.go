package errors

import "errors"

var (
	ErrBallotNotFound      = errors.New("ballot not found")
	ErrBallotNotActive     = errors.New("ballot is not active")
	ErrVoterNotFound       = errors.New("voter not found")
	ErrVoterNotInBallot    = errors.New("voter does not belong to ballot")
	ErrVoterAlreadyVoted   = errors.New("voter has already voted")
	ErrQuestionNotInBallot = errors.New("question does not belong to ballot")
	ErrChoiceNotInQuestion = errors.New("choice does not belong to question")
	ErrInvalidAnswerSet    = errors.New("invalid answer set")
	ErrTransactionFailure  = errors.New("casting transaction failed")
)
