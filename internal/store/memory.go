package store

import (
	"context"
	"encoding/json"
	"sync"
)

// Memory is an in-memory Store used by tests.
type Memory struct {
	mu          sync.Mutex
	collections map[string][]json.RawMessage
	// SetCalls counts writes per collection, letting tests assert that
	// self-healing reads skip the write when nothing changed.
	SetCalls map[string]int
	// FailWrites forces Set to report an I/O failure.
	FailWrites bool
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		collections: map[string][]json.RawMessage{},
		SetCalls:    map[string]int{},
	}
}

func (m *Memory) Get(ctx context.Context, collection string) ([]json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	records := m.collections[collection]
	out := make([]json.RawMessage, len(records))
	copy(out, records)
	return out, nil
}

func (m *Memory) Set(ctx context.Context, collection string, records []json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return ErrIO
	}
	m.SetCalls[collection]++
	stored := make([]json.RawMessage, len(records))
	copy(stored, records)
	m.collections[collection] = stored
	return nil
}

func (m *Memory) Close() error { return nil }
