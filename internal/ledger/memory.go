package ledger

import (
	"context"
	"maps"
	"sync"
)

// MemoryStore keeps balances in process memory. Used for throwaway tables
// and tests.
type MemoryStore struct {
	mu       sync.Mutex
	balances map[string]int64
	saves    int
	saveErr  error
}

// NewMemoryStore returns a store seeded with initial balances
func NewMemoryStore(initial map[string]int64) *MemoryStore {
	return &MemoryStore{balances: maps.Clone(initial)}
}

// Load returns a copy of the stored balances
func (m *MemoryStore) Load(ctx context.Context) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.balances == nil {
		return map[string]int64{}, nil
	}
	return maps.Clone(m.balances), nil
}

// Save replaces the stored balances
func (m *MemoryStore) Save(ctx context.Context, balances map[string]int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.balances = maps.Clone(balances)
	m.saves++
	return nil
}

// Close is a no-op
func (m *MemoryStore) Close() error {
	return nil
}

// Saves returns the number of successful saves
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// FailSaves makes every later Save return err; nil restores normal saves
func (m *MemoryStore) FailSaves(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErr = err
}
