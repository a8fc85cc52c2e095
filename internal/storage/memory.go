package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory implementation of Store, useful for tests.
// This implementation is safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte

	// FailDelete, when set, is returned by Delete instead of removing the object.
	FailDelete error
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

// Upload copies data under a fresh key.
func (m *MemoryStore) Upload(_ context.Context, data []byte, fileName, path string) (*Object, error) {
	key := uuid.NewString() + "-" + fileName
	if path != "" {
		key = path + "/" + key
	}

	buf := make([]byte, len(data))
	copy(buf, data)

	m.mu.Lock()
	m.objects[key] = buf
	m.mu.Unlock()

	return &Object{
		Key:      key,
		Name:     fileName,
		Size:     int64(len(buf)),
		MimeType: DetectMimeType(fileName, buf),
	}, nil
}

// Delete removes key. Returns ErrNotFound for unknown keys.
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailDelete != nil {
		return m.FailDelete
	}
	if _, ok := m.objects[key]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	delete(m.objects, key)
	return nil
}

// Stream returns a reader over a snapshot of the object.
func (m *MemoryStore) Stream(_ context.Context, key string, _ url.Values) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Len reports how many objects are stored.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

var _ Store = (*MemoryStore)(nil)
