package graph

import (
	"errors"
	"fmt"
)

var (
	// ErrCollaboratorUnavailable marks a failed or timed out call to a
	// retriever, grader, rewriter, refiner or generator.
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")

	// ErrStructuralViolation marks a broken orchestrator invariant. It
	// always indicates a defect, never bad input.
	ErrStructuralViolation = errors.New("structural violation")
)

// CollaboratorError wraps the failure of one external call.
type CollaboratorError struct {
	Collaborator string
	Step         Step
	Err          error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s failed during %s: %v", e.Collaborator, e.Step, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// Is reports a match against ErrCollaboratorUnavailable in addition to the
// wrapped cause.
func (e *CollaboratorError) Is(target error) bool {
	return target == ErrCollaboratorUnavailable
}

func structuralf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrStructuralViolation, fmt.Sprintf(format, args...))
}
