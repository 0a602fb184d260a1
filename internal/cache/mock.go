package cache

import (
	"context"
	"sync"
)

// MockInvalidator records invalidated paths for tests and stands in
// when Redis is not available.
type MockInvalidator struct {
	mu      sync.Mutex
	Paths   []string
	Flushed int
	Err     error // returned from Invalidate and Flush when set
}

func NewMockInvalidator() *MockInvalidator {
	return &MockInvalidator{}
}

func (m *MockInvalidator) Close() error {
	return nil
}

func (m *MockInvalidator) Invalidate(ctx context.Context, paths ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	m.Paths = append(m.Paths, paths...)
	return nil
}

// Flush drops everything recorded so far, like its Redis counterpart.
func (m *MockInvalidator) Flush(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	m.Flushed++
	m.Paths = nil
	return nil
}

// Invalidated reports whether a path has been invalidated.
func (m *MockInvalidator) Invalidated(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.Paths {
		if p == path {
			return true
		}
	}
	return false
}
