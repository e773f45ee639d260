package step

import (
	"errors"
	"fmt"
)

// Structural and semantic validation failures.
var (
	// ErrEmptySequence indicates a generator produced zero steps.
	ErrEmptySequence = errors.New("step: sequence is empty")

	// ErrIndexMismatch indicates steps[i].Index != i.
	ErrIndexMismatch = errors.New("step: index does not match position")

	// ErrMissingTerminal indicates the last step is not marked terminal.
	ErrMissingTerminal = errors.New("step: last step is not terminal")

	// ErrEarlyTerminal indicates a terminal flag before the last step.
	ErrEarlyTerminal = errors.New("step: terminal step before end of sequence")

	// ErrInvalidID indicates a step or algorithm id outside the allowed pattern.
	ErrInvalidID = errors.New("step: invalid id")

	// ErrMissingText indicates an empty title or explanation.
	ErrMissingText = errors.New("step: empty title or explanation")

	// ErrNonFinite indicates NaN or Inf somewhere inside a step's state.
	ErrNonFinite = errors.New("step: non-finite number in state")

	// ErrInvalidAction indicates a visual action with an inconsistent payload.
	ErrInvalidAction = errors.New("step: invalid visual action")

	// ErrFormatVersion indicates a document with an unsupported format version.
	ErrFormatVersion = errors.New("step: unsupported format version")
)

// ValidationError wraps a validation failure with the offending position.
// Index is -1 for sequence-level failures.
type ValidationError struct {
	Index   int
	ID      string
	Detail  string
	Wrapped error
}

func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: %s", e.Wrapped.Error(), e.Detail)
	}
	return fmt.Sprintf("step %d (%s): %s: %s", e.Index, e.ID, e.Wrapped.Error(), e.Detail)
}

func (e *ValidationError) Unwrap() error {
	return e.Wrapped
}

func invalid(index int, id string, wrapped error, format string, args ...any) *ValidationError {
	return &ValidationError{Index: index, ID: id, Wrapped: wrapped, Detail: fmt.Sprintf(format, args...)}
}
