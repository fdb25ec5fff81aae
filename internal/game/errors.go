package game

import "errors"

var (
	ErrInvalidThrow    = errors.New("invalid_throw")
	ErrMatchNotStarted = errors.New("match_not_started")
	ErrMatchOver       = errors.New("match_over")
	ErrAlreadyStarted  = errors.New("already_started")
	ErrUnknownPlayer   = errors.New("unknown_player")
)
