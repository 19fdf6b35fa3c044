package storage

import (
	"context"
	"fmt"
	"sync"
)

// MockStorage is an in-memory ObjectStorage for tests and local development.
type MockStorage struct {
	mu      sync.Mutex
	objects map[string][]byte

	// FailUpload and FailRemove make the matching operation fail for a
	// given path, to exercise error isolation in callers.
	FailUpload map[string]bool
	FailRemove map[string]bool
}

// NewMockStorage creates an empty MockStorage.
func NewMockStorage() *MockStorage {
	return &MockStorage{
		objects:    make(map[string][]byte),
		FailUpload: make(map[string]bool),
		FailRemove: make(map[string]bool),
	}
}

func (m *MockStorage) Upload(_ context.Context, path string, data []byte, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailUpload[path] {
		return "", fmt.Errorf("mock storage: upload of %s failed", path)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	m.objects[path] = cp
	return path, nil
}

func (m *MockStorage) PublicURL(path string) string {
	return "https://storage.local/recipe-images/" + path
}

func (m *MockStorage) Remove(_ context.Context, paths []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range paths {
		if m.FailRemove[p] {
			return fmt.Errorf("mock storage: remove of %s failed", p)
		}
	}
	for _, p := range paths {
		delete(m.objects, p)
	}
	return nil
}

// Has reports whether an object exists at path.
func (m *MockStorage) Has(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[path]
	return ok
}

// Len returns the number of stored objects.
func (m *MockStorage) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
