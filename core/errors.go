package core

import (
	"errors"
	"fmt"
)

// ErrState is wrapped by errors describing an illegal state transition or
// an operation invalid for the scheduler's current state.
var ErrState = errors.New("priosched: invalid state")

// ErrShutdown is returned by Submit* calls once the scheduler has begun
// shutting down. It wraps ErrState: a shut-down scheduler refusing new
// work is a state violation, just a specific enough one to warrant its
// own sentinel for callers that only care about that one case.
var ErrShutdown = fmt.Errorf("priosched: scheduler is shut down: %w", ErrState)

// ErrArgument is wrapped by Option validation errors.
var ErrArgument = errors.New("priosched: invalid argument")

// ErrExecution is wrapped by the error a Future reports when the task it
// wraps panicked instead of returning normally.
var ErrExecution = errors.New("priosched: task execution failed")

// ErrNoCapacity is returned by TrySubmit when no worker is immediately
// available and the caller asked to fail fast rather than wait.
var ErrNoCapacity = errors.New("priosched: no worker capacity available")

// ArgumentError wraps ErrArgument with a description of which option and
// value were rejected.
type ArgumentError struct {
	Option string
	Reason string
}

func (e *ArgumentError) Error() string {
	return "priosched: invalid option " + e.Option + ": " + e.Reason
}

func (e *ArgumentError) Unwrap() error {
	return ErrArgument
}
