package acceptor

import (
	"errors"
	"fmt"
)

// RuntimeError represents an operational error that should lead to exit code 2
// Examples include configuration errors, a subordinate that could not be
// spawned, etc.
type RuntimeError struct {
	Err error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error: %v", e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// NewRuntimeError creates a new RuntimeError
func NewRuntimeError(err error) *RuntimeError {
	return &RuntimeError{Err: err}
}

// IsRuntimeError checks if the error is or wraps a RuntimeError
func IsRuntimeError(err error) bool {
	var runtimeErr *RuntimeError
	return err != nil && errors.As(err, &runtimeErr)
}

// VerdictFailureError represents a run that terminated without the passing
// verdict: a build failure, an explicit failure marker, a timeout, or a
// subordinate that exited with no marker (exit code 1).
type VerdictFailureError struct {
	Message string
}

func (e *VerdictFailureError) Error() string {
	return fmt.Sprintf("verdict failure: %s", e.Message)
}

// NewVerdictFailureError creates a new VerdictFailureError
func NewVerdictFailureError(message string) *VerdictFailureError {
	return &VerdictFailureError{Message: message}
}

// IsVerdictFailureError checks if the error is or wraps a VerdictFailureError
func IsVerdictFailureError(err error) bool {
	var verdictErr *VerdictFailureError
	return err != nil && errors.As(err, &verdictErr)
}
