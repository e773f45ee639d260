package generator

import (
	"errors"
	"fmt"
)

var (
	// ErrPrecondition indicates inputs that violate a structural precondition
	// the generator requires. It is user-correctable.
	ErrPrecondition = errors.New("generator: precondition violated")

	// ErrInvalidInput indicates an input record that does not match the
	// generator's declared shape or limits.
	ErrInvalidInput = errors.New("generator: invalid input")
)

// PreconditionError names the violated precondition.
type PreconditionError struct {
	Algorithm string
	Message   string
}

func (e *PreconditionError) Error() string {
	if e.Algorithm == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Algorithm, e.Message)
}

func (e *PreconditionError) Unwrap() error {
	return ErrPrecondition
}

// Preconditionf builds a PreconditionError. The algorithm id is filled in by
// the adapter returned from New.
func Preconditionf(format string, args ...any) error {
	return &PreconditionError{Message: fmt.Sprintf(format, args...)}
}

// InputError reports a malformed or out-of-range input field.
type InputError struct {
	Algorithm string
	Field     string
	Reason    string
}

func (e *InputError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: invalid input: %s", e.Algorithm, e.Reason)
	}
	return fmt.Sprintf("%s: invalid input %q: %s", e.Algorithm, e.Field, e.Reason)
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}
