package memory

import (
	"context"
	"sync"

	"github.com/hupe1980/genmesh/core"
)

// InMemoryStore is a process‑local LongTermStore. Records are kept in append
// order and lost on restart. Suitable only for tests / demos.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []core.GenerationRecord
}

// NewInMemoryStore creates an empty in-memory ledger.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: []core.GenerationRecord{}}
}

// Load returns a copy of all records in append order.
func (m *InMemoryStore) Load(_ context.Context) ([]core.GenerationRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]core.GenerationRecord, len(m.records))
	copy(out, m.records)
	return out, nil
}

// Append adds a record to the end of the ledger.
func (m *InMemoryStore) Append(ctx context.Context, record core.GenerationRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, record)
	return nil
}
