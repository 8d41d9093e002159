package models

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by the repositories, services and controllers.
// Callers match with errors.Is; messages carry the details.
var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrPersistence       = errors.New("persistence failure")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrForbidden         = errors.New("forbidden")
)

// StepError names the step of a multi-step flow (submission, review) that failed.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// NewStepError wraps err as a persistence failure of the named step.
// Errors that already belong to the taxonomy keep their kind.
func NewStepError(step string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrPersistence) || errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrValidation) || errors.Is(err, ErrInvalidTransition) {
		return &StepError{Step: step, Err: err}
	}
	return &StepError{Step: step, Err: fmt.Errorf("%w: %v", ErrPersistence, err)}
}
