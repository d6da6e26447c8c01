package engine

import (
	"errors"
	"fmt"

	"habitquest/internal/model"
)

var (
	// ErrNotUsable is returned for item types that have no use action.
	ErrNotUsable = errors.New("item cannot be used")
	// ErrItemDepleted is returned when an item has no quantity left.
	ErrItemDepleted = errors.New("item has no quantity left")
	// ErrInvalidBoss is returned for a boss record without a health pool.
	ErrInvalidBoss = errors.New("boss has no health pool")
)

// TransitionError indicates a task status change that is not an
// active → completed/failed edge.
type TransitionError struct {
	TaskID string
	From   model.TaskStatus
	To     model.TaskStatus
}

func (e TransitionError) Error() string {
	return fmt.Sprintf("task %s cannot move from %s to %s", e.TaskID, e.From, e.To)
}
