package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"
)

// MemoryStore keeps objects in process memory. It backs local runs with
// STORAGE_DRIVER=memory and tests.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte

	// PutErr and DeleteErr, when set, fail the matching call for any path.
	PutErr    error
	DeleteErr error
	// FailDelete fails Delete for the listed paths only.
	FailDelete map[string]error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: map[string][]byte{}, FailDelete: map[string]error{}}
}

func (m *MemoryStore) Put(_ context.Context, path string, reader io.Reader, size int64, _ string) error {
	m.mu.Lock()
	putErr := m.PutErr
	_, exists := m.objects[path]
	m.mu.Unlock()
	if putErr != nil {
		return putErr
	}
	if exists {
		return ErrObjectExists
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	if size >= 0 && int64(len(data)) != size {
		return fmt.Errorf("short write: got %d bytes, want %d", len(data), size)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[path]; ok {
		return ErrObjectExists
	}
	m.objects[path] = data
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	if err, ok := m.FailDelete[path]; ok {
		return err
	}
	delete(m.objects, path)
	return nil
}

func (m *MemoryStore) SignedURL(_ context.Context, path string, ttl time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[path]; !ok {
		return "", ErrObjectNotFound
	}
	if ttl <= 0 {
		return "", errors.New("ttl must be positive")
	}
	expires := time.Now().Add(ttl).Unix()
	return fmt.Sprintf("memory://objects/%s?expires=%d", url.PathEscape(path), expires), nil
}

// Has reports whether path is stored.
func (m *MemoryStore) Has(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[path]
	return ok
}

// Len returns the number of stored objects.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
