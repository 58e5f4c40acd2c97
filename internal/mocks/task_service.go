package mocks

import (
	"context"
	"sync"

	"github.com/kenyilewis/imgtask/internal/domain"
)

// ProcessCall records one ProcessImage invocation.
type ProcessCall struct {
	TaskID    string
	ImagePath string
	Staged    bool
}

// MockTaskService is a function-field fake of service.TaskService.
// Unset functions return zero values.
type MockTaskService struct {
	CreateTaskFn   func(ctx context.Context, imagePath string) (*domain.Task, error)
	ProcessImageFn func(ctx context.Context, taskID, imagePath string, staged bool) error
	GetTaskFn      func(ctx context.Context, taskID string) (*domain.Task, error)
	TaskImagesFn   func(ctx context.Context, taskID string) ([]*domain.Image, error)

	mu           sync.Mutex
	createCalls  []string
	processCalls []ProcessCall
}

// CreateTask records imagePath and delegates to CreateTaskFn.
func (m *MockTaskService) CreateTask(ctx context.Context, imagePath string) (*domain.Task, error) {
	m.mu.Lock()
	m.createCalls = append(m.createCalls, imagePath)
	m.mu.Unlock()

	if m.CreateTaskFn != nil {
		return m.CreateTaskFn(ctx, imagePath)
	}
	return nil, nil
}

// ProcessImage records the call and delegates to ProcessImageFn.
func (m *MockTaskService) ProcessImage(ctx context.Context, taskID, imagePath string, staged bool) error {
	m.mu.Lock()
	m.processCalls = append(m.processCalls, ProcessCall{TaskID: taskID, ImagePath: imagePath, Staged: staged})
	m.mu.Unlock()

	if m.ProcessImageFn != nil {
		return m.ProcessImageFn(ctx, taskID, imagePath, staged)
	}
	return nil
}

// GetTask delegates to GetTaskFn.
func (m *MockTaskService) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	if m.GetTaskFn != nil {
		return m.GetTaskFn(ctx, taskID)
	}
	return nil, nil
}

// TaskImages delegates to TaskImagesFn.
func (m *MockTaskService) TaskImages(ctx context.Context, taskID string) ([]*domain.Image, error) {
	if m.TaskImagesFn != nil {
		return m.TaskImagesFn(ctx, taskID)
	}
	return nil, nil
}

// CreateCalls returns the image paths passed to CreateTask.
func (m *MockTaskService) CreateCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.createCalls...)
}

// ProcessCalls returns the recorded ProcessImage calls.
func (m *MockTaskService) ProcessCalls() []ProcessCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ProcessCall(nil), m.processCalls...)
}
