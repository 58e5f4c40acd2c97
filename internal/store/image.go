package store

import (
	"context"

	"github.com/kenyilewis/imgtask/internal/domain"
)

// ImageStore defines the interface for persisting produced image variants.
type ImageStore interface {
	// Create persists a new image record and returns it with its assigned ID.
	// Returns ErrInvalidEntity if the image fails domain validation.
	Create(ctx context.Context, image *domain.Image) (*domain.Image, error)

	// FindByTaskID returns every image produced for a task, oldest first.
	// Returns an empty slice when there are none.
	FindByTaskID(ctx context.Context, taskID string) ([]*domain.Image, error)

	// FindByMD5 returns the most recent image with the given content hash.
	// Returns ErrImageNotFound if none exists.
	FindByMD5(ctx context.Context, md5 string) (*domain.Image, error)
}
