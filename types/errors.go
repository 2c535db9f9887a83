package types

import (
	"errors"
	"fmt"
)

var (
	// ErrNotPhysical marks a derived thermodynamic or flux quantity that is negative or NaN.
	ErrNotPhysical = errors.New("dgflow: non-physical state")
	// ErrUnsupportedConfiguration marks a combination of physics, flux, scheme or
	// function that is not implemented. Only ever returned at setup.
	ErrUnsupportedConfiguration = errors.New("dgflow: unsupported configuration")
	// ErrConvergenceFailure marks a nonlinear solve inside an exact solution that did not converge.
	ErrConvergenceFailure = errors.New("dgflow: convergence failure")
)

type NotPhysicalError struct {
	Quantity string
	Value    float64
	Where    string
}

func NotPhysical(quantity string, value float64) *NotPhysicalError {
	return &NotPhysicalError{Quantity: quantity, Value: value}
}

// At records the location (a function or boundary name) that produced the error.
func (e *NotPhysicalError) At(where string) *NotPhysicalError {
	e.Where = where
	return e
}

func (e *NotPhysicalError) Error() string {
	if e.Where != "" {
		return fmt.Sprintf("%v: %s = %g in %s", ErrNotPhysical, e.Quantity, e.Value, e.Where)
	}
	return fmt.Sprintf("%v: %s = %g", ErrNotPhysical, e.Quantity, e.Value)
}

func (e *NotPhysicalError) Unwrap() error { return ErrNotPhysical }

func Unsupported(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedConfiguration, fmt.Sprintf(format, args...))
}

type ConvergenceError struct {
	Solver     string
	Input      float64
	Iterations int
	Residual   float64
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("%v: %s did not converge for input %g after %d iterations (residual %g)",
		ErrConvergenceFailure, e.Solver, e.Input, e.Iterations, e.Residual)
}

func (e *ConvergenceError) Unwrap() error { return ErrConvergenceFailure }

// StepError tags a fatal error with the step and time at which the solve loop stopped.
type StepError struct {
	Step int
	Time float64
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t = %g): %v", e.Step, e.Time, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
