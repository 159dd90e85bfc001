package errors

import "errors"

var (
	ErrBallotNotFound    = errors.New("ballot not found")
	ErrInvalidVoterInput = errors.New("invalid voter input")
	ErrVoterNotFound     = errors.New("voter not found")
	ErrRegistrationTx    = errors.New("registration transaction failed")
)
