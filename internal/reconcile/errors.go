package reconcile

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthRequired is returned before any write when no session is active.
	ErrAuthRequired = errors.New("authentication required")
	ErrInvalidInput = errors.New("invalid input")

	errAlreadyApplied = errors.New("event already applied")
)

// PendingError reports an operation that committed locally but has not
// reached the remote store yet. Local state is kept.
type PendingError struct {
	Op  string
	Err error
}

func (e *PendingError) Error() string {
	return fmt.Sprintf("%s saved locally, not synced yet: %v", e.Op, e.Err)
}

func (e *PendingError) Unwrap() error { return e.Err }

// IsPending reports whether err only means the remote copy is behind.
func IsPending(err error) bool {
	var pe *PendingError
	return errors.As(err, &pe)
}
