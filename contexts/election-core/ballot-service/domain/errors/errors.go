package errors

import "errors"

var (
	ErrBallotNotFound          = errors.New("ballot not found")
	ErrInvalidBallotInput      = errors.New("invalid ballot input")
	ErrInvalidStatusTransition = errors.New("invalid ballot status transition")
	ErrBallotNotStarted        = errors.New("ballot start date not reached")
)
