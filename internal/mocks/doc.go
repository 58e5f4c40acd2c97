// Package mocks provides centralized mock implementations for testing.
//
// It contains thread-safe in-memory implementations of the store interfaces
// and function-field fakes for the collaborators of the task service. They
// are shared by the test suites of several packages and are never wired into
// the running server.
//
// Usage:
//
//	tasks := mocks.NewTaskStore()
//	tasks.UpdateStatusFn = func(ctx context.Context, id string, s domain.TaskStatus, msg string) error {
//	    return errors.New("database unavailable")
//	}
//
// Every fake falls back to its in-memory behavior when the matching Fn field
// is nil.
package mocks
