package store

import (
	"context"
	"sync"

	"github.com/maturity-diagnostic/internal/domain"
)

// MemoryStore keeps records in process memory. Records are lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]domain.StoredRecord
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]domain.StoredRecord)}
}

// Create stores rec. An existing record with the same id is kept.
func (m *MemoryStore) Create(_ context.Context, rec domain.StoredRecord) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[rec.ID]; !ok {
		m.records[rec.ID] = rec
	}
	return "", nil
}

// GetByID returns the record with the given id.
func (m *MemoryStore) GetByID(_ context.Context, id string) (*domain.StoredRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return &rec, nil
}

// List returns all records, newest first.
func (m *MemoryStore) List(_ context.Context) ([]domain.StoredRecord, error) {
	m.mu.RLock()
	out := make([]domain.StoredRecord, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, rec)
	}
	m.mu.RUnlock()

	SortNewestFirst(out)
	return out, nil
}

// Ping always succeeds.
func (m *MemoryStore) Ping(context.Context) error { return nil }

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }
