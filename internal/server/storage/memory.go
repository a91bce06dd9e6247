package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/encryptshare/encryptshare/internal/common"
)

// MemoryStore is an in-memory ObjectStore used by tests and local runs
// without an S3 backend.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
	deletes map[string]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: make(map[string][]byte),
		deletes: make(map[string]int),
	}
}

func (m *MemoryStore) Put(ctx context.Context, key string, body io.Reader, size int64) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: object %s", common.ErrNotFound, key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes[key]++
	delete(m.objects, key)
	return nil
}

// Exists reports whether the object is currently stored.
func (m *MemoryStore) Exists(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[key]
	return ok
}

// DeleteCount returns how many times Delete was called for key.
func (m *MemoryStore) DeleteCount(key string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.deletes[key]
}

// Len returns the number of objects currently stored.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

// TotalDeletes returns the number of Delete calls across all keys.
func (m *MemoryStore) TotalDeletes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, c := range m.deletes {
		n += c
	}
	return n
}
