package mocks

import (
	"context"
	"sync"

	"github.com/kenyilewis/imgtask/internal/transform"
)

// MockTransformer is a function-field fake of the transform pipeline.
type MockTransformer struct {
	// TransformFn allows test cases to mock the Transform behavior
	TransformFn func(ctx context.Context, path string) ([]transform.Variant, error)

	// Default response values
	Variants []transform.Variant
	Err      error

	// Call tracking for verification
	TransformCalls struct {
		mu    sync.Mutex
		Count int
		Paths []string
	}
}

// Transform records the call and returns TransformFn's result or the defaults.
func (m *MockTransformer) Transform(ctx context.Context, path string) ([]transform.Variant, error) {
	m.TransformCalls.mu.Lock()
	m.TransformCalls.Count++
	m.TransformCalls.Paths = append(m.TransformCalls.Paths, path)
	m.TransformCalls.mu.Unlock()

	if m.TransformFn != nil {
		return m.TransformFn(ctx, path)
	}

	return m.Variants, m.Err
}

// Calls returns the number of Transform calls and the paths passed.
func (m *MockTransformer) Calls() (int, []string) {
	m.TransformCalls.mu.Lock()
	defer m.TransformCalls.mu.Unlock()
	return m.TransformCalls.Count, append([]string(nil), m.TransformCalls.Paths...)
}
