// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrJourneyNotFound indicates a journey was not found by the given identifier.
	ErrJourneyNotFound = errors.New("journey not found")

	// ErrExecutionNotFound indicates an execution was not found.
	ErrExecutionNotFound = errors.New("execution not found")

	// ErrDuplicateExecution indicates the contact already has an active execution of the journey.
	ErrDuplicateExecution = errors.New("active execution already exists")

	// ErrLeaseLost indicates the caller no longer holds the execution lease.
	ErrLeaseLost = errors.New("execution lease lost")

	// ErrExecutionBusy indicates a runner currently holds the execution lease.
	ErrExecutionBusy = errors.New("execution is being processed")

	// ErrInvalidStatusTransition indicates the execution is not in the expected status.
	ErrInvalidStatusTransition = errors.New("invalid execution status transition")
)

// JourneyError wraps journey-related errors with additional context.
type JourneyError struct {
	Op        string // Operation being performed (e.g., "JourneyByID", "SaveJourney")
	JourneyID string
	Err       error
}

func (e *JourneyError) Error() string {
	return fmt.Sprintf("%s operation failed for journey %s: %v", e.Op, e.JourneyID, e.Err)
}

func (e *JourneyError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for journey errors.
func (e *JourneyError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewJourneyError creates a new journey error with context.
func NewJourneyError(op, journeyID string, err error) *JourneyError {
	return &JourneyError{Op: op, JourneyID: journeyID, Err: err}
}

// ExecutionError wraps execution-related errors with additional context.
type ExecutionError struct {
	Op          string
	ExecutionID string
	Err         error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s operation failed for execution %s: %v", e.Op, e.ExecutionID, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

func (e *ExecutionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewExecutionError creates a new execution error with context.
func NewExecutionError(op, executionID string, err error) *ExecutionError {
	return &ExecutionError{Op: op, ExecutionID: executionID, Err: err}
}

// IsJourneyNotFound checks if an error indicates a journey was not found.
func IsJourneyNotFound(err error) bool {
	return errors.Is(err, ErrJourneyNotFound)
}

// IsExecutionNotFound checks if an error indicates an execution was not found.
func IsExecutionNotFound(err error) bool {
	return errors.Is(err, ErrExecutionNotFound)
}

// IsDuplicateExecution checks if an error indicates an active execution already exists.
func IsDuplicateExecution(err error) bool {
	return errors.Is(err, ErrDuplicateExecution)
}

// IsLeaseLost checks if an error indicates the execution lease was lost.
func IsLeaseLost(err error) bool {
	return errors.Is(err, ErrLeaseLost)
}
