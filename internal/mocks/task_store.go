package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kenyilewis/imgtask/internal/domain"
	"github.com/kenyilewis/imgtask/internal/store"
)

// StatusUpdate records one UpdateStatus call.
type StatusUpdate struct {
	ID     string
	Status domain.TaskStatus
	Error  string
}

// TaskStore is an in-memory store.TaskStore with overridable behavior.
type TaskStore struct {
	CreateFn       func(ctx context.Context, task *domain.Task) (*domain.Task, error)
	FindByIDFn     func(ctx context.Context, id string) (*domain.Task, error)
	UpdateStatusFn func(ctx context.Context, id string, status domain.TaskStatus, errMsg string) error
	AddImagesFn    func(ctx context.Context, id string, images []domain.TaskImage) error

	mu            sync.Mutex
	tasks         map[string]*domain.Task
	statusUpdates []StatusUpdate
	addImageCalls int
}

var _ store.TaskStore = (*TaskStore)(nil)

// NewTaskStore creates an empty TaskStore.
func NewTaskStore() *TaskStore {
	return &TaskStore{tasks: make(map[string]*domain.Task)}
}

// Create implements store.TaskStore.
func (m *TaskStore) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, task)
	}

	if err := task.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	saved := cloneTask(task)
	saved.ID = uuid.NewString()
	m.tasks[saved.ID] = saved
	return cloneTask(saved), nil
}

// FindByID implements store.TaskStore.
func (m *TaskStore) FindByID(ctx context.Context, id string) (*domain.Task, error) {
	if m.FindByIDFn != nil {
		return m.FindByIDFn(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	task, ok := m.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	return cloneTask(task), nil
}

// UpdateStatus implements store.TaskStore.
func (m *TaskStore) UpdateStatus(ctx context.Context, id string, status domain.TaskStatus, errMsg string) error {
	m.mu.Lock()
	m.statusUpdates = append(m.statusUpdates, StatusUpdate{ID: id, Status: status, Error: errMsg})
	m.mu.Unlock()

	if m.UpdateStatusFn != nil {
		return m.UpdateStatusFn(ctx, id, status, errMsg)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	task, ok := m.tasks[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	task.Status = status
	if errMsg != "" {
		task.Error = errMsg
	}
	task.UpdatedAt = laterOf(task.UpdatedAt, time.Now().UTC())
	return nil
}

// AddImages implements store.TaskStore.
func (m *TaskStore) AddImages(ctx context.Context, id string, images []domain.TaskImage) error {
	m.mu.Lock()
	m.addImageCalls++
	m.mu.Unlock()

	if m.AddImagesFn != nil {
		return m.AddImagesFn(ctx, id, images)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	task, ok := m.tasks[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	task.Images = append([]domain.TaskImage{}, images...)
	task.Status = domain.TaskStatusCompleted
	task.UpdatedAt = laterOf(task.UpdatedAt, time.Now().UTC())
	return nil
}

// Put stores task as-is, keeping its ID. Useful to seed fixtures.
func (m *TaskStore) Put(task *domain.Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[task.ID] = cloneTask(task)
}

// StatusUpdates returns every UpdateStatus call in order.
func (m *TaskStore) StatusUpdates() []StatusUpdate {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]StatusUpdate(nil), m.statusUpdates...)
}

// AddImagesCalls returns how many times AddImages was called.
func (m *TaskStore) AddImagesCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addImageCalls
}

// Len returns the number of stored tasks.
func (m *TaskStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

func cloneTask(t *domain.Task) *domain.Task {
	c := *t
	c.Images = append([]domain.TaskImage{}, t.Images...)
	return &c
}

func laterOf(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
