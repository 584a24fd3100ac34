package storage

import (
	"context"
	"sync"

	"courtyard/pkg/platform/sentinel"
)

// Memory is the in-memory KV used by tests and single-process development
// runs. It intentionally favors clarity over performance.
type Memory struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.values[namespaced(key)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[namespaced(key)] = clone(value)
	return nil
}

func (m *Memory) SetMulti(_ context.Context, values map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, value := range values {
		m.values[namespaced(key)] = clone(value)
	}
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, namespaced(key))
	return nil
}

func clone(value []byte) []byte {
	out := make([]byte, len(value))
	copy(out, value)
	return out
}
