package blob

import (
	"context"
	"fmt"
	"sync"
)

// MockStore provides an in-memory Store for tests. It records every
// stored and deleted URL so tests can assert exactly which deletions
// were attempted.
type MockStore struct {
	mu         sync.Mutex
	publicHost string
	objects    map[string][]byte

	Deleted []string
	FailOn  map[string]error // URL -> error to return from Delete
}

func NewMockStore(publicHost string) *MockStore {
	return &MockStore{
		publicHost: publicHost,
		objects:    make(map[string][]byte),
		FailOn:     make(map[string]error),
	}
}

func (m *MockStore) Store(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	url := fmt.Sprintf("https://%s/%s", m.publicHost, key)
	m.objects[url] = data
	return url, nil
}

func (m *MockStore) Delete(ctx context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Deleted = append(m.Deleted, url)
	if err, ok := m.FailOn[url]; ok {
		return err
	}
	delete(m.objects, url)
	return nil
}

// Has reports whether an object is still stored under the given URL.
func (m *MockStore) Has(url string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[url]
	return ok
}
