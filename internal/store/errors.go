package store

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by every backend. Implementations wrap them so
// callers can branch with errors.Is regardless of the database in use.
var (
	// ErrNotFound is the parent of all entity-specific not found errors.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate reports a write that collides with an existing key.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity reports an entity rejected before or by the backend,
	// including an image whose task does not exist.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrUpdateFailed reports an update that could not be applied even
	// though the entity exists.
	ErrUpdateFailed = errors.New("update failed")

	ErrTaskNotFound  = fmt.Errorf("%w: task", ErrNotFound)
	ErrImageNotFound = fmt.Errorf("%w: image", ErrNotFound)
)

// IsNotFoundError reports whether err is any kind of not found error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
