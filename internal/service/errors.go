package service

import (
	"errors"
	"fmt"
)

// ErrUnknownFailure replaces failure values that are not errors.
var ErrUnknownFailure = errors.New("Unknown error")

// TaskServiceError wraps unexpected errors from the task service with context.
// Classified domain errors are never wrapped in it.
type TaskServiceError struct {
	// Operation is the operation that failed (e.g., "create_task", "get_task")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for TaskServiceError.
func (e *TaskServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("task service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("task service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *TaskServiceError) Unwrap() error {
	return e.Err
}

// NewTaskServiceError creates a new TaskServiceError.
func NewTaskServiceError(operation, message string, err error) error {
	return &TaskServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// panicError converts a recovered value into an error. Only error values keep
// their message.
func panicError(p any) error {
	if err, ok := p.(error); ok {
		return err
	}
	return ErrUnknownFailure
}
