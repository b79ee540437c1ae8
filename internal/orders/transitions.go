package orders

import (
	"fmt"

	"github.com/trattoria-erp/trattoria/internal/shared"
)

// ErrInvalidTransition is matched by every TransitionError.
var ErrInvalidTransition = fmt.Errorf("%w: invalid status transition", shared.ErrConflict)

// TransitionError reports a rejected status change.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid status transition: %s -> %s", e.From, e.To)
}

// Is lets callers match with errors.Is(err, ErrInvalidTransition).
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition || target == shared.ErrConflict
}

var workflowRank = map[Status]int{
	StatusPending:   0,
	StatusPreparing: 1,
	StatusReady:     2,
	StatusServed:    3,
	StatusCompleted: 4,
}

// CanTransition reports whether an order may move from one status to another.
// Moves go forward through the workflow, and CANCELLED is reachable from any
// non-terminal state. Terminal states are final.
func CanTransition(from, to Status) bool {
	if from.Terminal() || from == to || !to.Valid() {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	fromRank, ok := workflowRank[from]
	if !ok {
		return false
	}
	return workflowRank[to] > fromRank
}

// CheckTransition returns a TransitionError when the move is not allowed.
func CheckTransition(from, to Status) error {
	if !CanTransition(from, to) {
		return &TransitionError{From: from, To: to}
	}
	return nil
}
