package errors

import "errors"

var (
	ErrBallotNotFound = errors.New("ballot not found")
	ErrVoterNotFound  = errors.New("voter not found")
	ErrRepairTx       = errors.New("repair transaction failed")
)
