package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a session (or checkpoint) for the given
	// id does not exist in the underlying store.
	ErrNotFound = errors.New("session not found")

	// ErrDuplicateSession is returned by Create when the id is already in use.
	ErrDuplicateSession = errors.New("session already exists")

	// ErrQueueFull is returned by the bus when the delivery queue capacity
	// is exhausted. Senders may retry; the bus never drops silently.
	ErrQueueFull = errors.New("message queue full")
)

// InvalidTransitionError reports a lifecycle guard violation, carrying the
// session's actual status so callers can explain the conflict.
type InvalidTransitionError struct {
	SessionID string
	Event     string
	Current   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s session %q in status %q", e.Event, e.SessionID, e.Current)
}

// IsInvalidTransition reports whether err is an InvalidTransitionError.
func IsInvalidTransition(err error) bool {
	var ite *InvalidTransitionError
	return errors.As(err, &ite)
}
