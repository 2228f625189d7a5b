package game

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidOperation marks a precondition violation by the caller.
	ErrInvalidOperation = errors.New("invalid operation")
	ErrNotFound         = errors.New("not found")

	ErrRejected    = errors.New("rejected")
	ErrWrongPhase  = fmt.Errorf("%w: wrong phase", ErrRejected)
	ErrIllegalMove = fmt.Errorf("%w: illegal move", ErrRejected)

	// ErrSharedDeckExhausted is fatal to the game: no further damage can be issued.
	ErrSharedDeckExhausted = errors.New("shared deck exhausted")

	ErrInvalidRules = errors.New("invalid rules")
)

// RejectedError is a game-state violation with a human-readable reason.
// The game state is unchanged when one is returned.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string { return "rejected: " + e.Reason }

func (e *RejectedError) Unwrap() error { return ErrRejected }

func reject(format string, args ...any) error {
	return &RejectedError{Reason: fmt.Sprintf(format, args...)}
}

func wrongPhase(op string, phase Phase) error {
	return fmt.Errorf("%w: %s not allowed during %s", ErrWrongPhase, op, phase)
}
