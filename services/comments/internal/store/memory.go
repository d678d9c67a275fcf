package store

import (
	"context"
	"sync"
)

// MemoryRecords is a development-only backend; state is lost on restart.
type MemoryRecords struct {
	mu      sync.RWMutex
	records map[string][]byte
}

func NewMemoryRecords() *MemoryRecords {
	return &MemoryRecords{records: make(map[string][]byte)}
}

func (m *MemoryRecords) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.records[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (m *MemoryRecords) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	m.records[key] = v
	return nil
}
