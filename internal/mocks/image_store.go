package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/kenyilewis/imgtask/internal/domain"
	"github.com/kenyilewis/imgtask/internal/store"
)

// ImageStore is an in-memory store.ImageStore with overridable behavior.
type ImageStore struct {
	CreateFn       func(ctx context.Context, image *domain.Image) (*domain.Image, error)
	FindByTaskIDFn func(ctx context.Context, taskID string) ([]*domain.Image, error)
	FindByMD5Fn    func(ctx context.Context, md5 string) (*domain.Image, error)

	mu     sync.Mutex
	images []*domain.Image
}

var _ store.ImageStore = (*ImageStore)(nil)

// NewImageStore creates an empty ImageStore.
func NewImageStore() *ImageStore {
	return &ImageStore{}
}

// Create implements store.ImageStore.
func (m *ImageStore) Create(ctx context.Context, image *domain.Image) (*domain.Image, error) {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, image)
	}

	if err := image.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	saved := *image
	saved.ID = uuid.NewString()
	m.images = append(m.images, &saved)
	out := saved
	return &out, nil
}

// FindByTaskID implements store.ImageStore.
func (m *ImageStore) FindByTaskID(ctx context.Context, taskID string) ([]*domain.Image, error) {
	if m.FindByTaskIDFn != nil {
		return m.FindByTaskIDFn(ctx, taskID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	found := make([]*domain.Image, 0)
	for _, img := range m.images {
		if img.TaskID == taskID {
			c := *img
			found = append(found, &c)
		}
	}
	return found, nil
}

// FindByMD5 implements store.ImageStore.
func (m *ImageStore) FindByMD5(ctx context.Context, md5 string) (*domain.Image, error) {
	if m.FindByMD5Fn != nil {
		return m.FindByMD5Fn(ctx, md5)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.images) - 1; i >= 0; i-- {
		if m.images[i].MD5 == md5 {
			c := *m.images[i]
			return &c, nil
		}
	}
	return nil, store.ErrImageNotFound
}

// All returns a copy of every stored image in insertion order.
func (m *ImageStore) All() []*domain.Image {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*domain.Image, 0, len(m.images))
	for _, img := range m.images {
		c := *img
		out = append(out, &c)
	}
	return out
}
