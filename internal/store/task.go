package store

import (
	"context"

	"github.com/kenyilewis/imgtask/internal/domain"
)

// TaskStore defines the interface for task persistence.
type TaskStore interface {
	// Create persists a new task and returns it with its assigned ID.
	// Returns ErrInvalidEntity if the task fails domain validation.
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)

	// FindByID retrieves a task by its ID.
	// Returns ErrTaskNotFound if the task does not exist or the ID is malformed.
	FindByID(ctx context.Context, id string) (*domain.Task, error)

	// UpdateStatus sets the status of a task and bumps its update time.
	// An empty errMsg leaves any stored error message untouched.
	// Returns ErrTaskNotFound if the task does not exist.
	UpdateStatus(ctx context.Context, id string, status domain.TaskStatus, errMsg string) error

	// AddImages replaces the task's image summaries and marks it completed
	// in a single atomic update.
	// Returns ErrTaskNotFound if the task does not exist.
	AddImages(ctx context.Context, id string, images []domain.TaskImage) error
}
