package service

import (
	"sync"

	"github.com/maturity-diagnostic/internal/domain"
)

// DefaultCacheSize is the number of records kept in process memory.
const DefaultCacheSize = 1000

// recordCache keeps recent records in insertion order and evicts the
// oldest entry once full.
type recordCache struct {
	mu      sync.RWMutex
	max     int
	order   []string
	records map[string]domain.DiagnosticRecord
}

func newRecordCache(max int) *recordCache {
	if max <= 0 {
		max = DefaultCacheSize
	}
	return &recordCache{
		max:     max,
		records: make(map[string]domain.DiagnosticRecord),
	}
}

// put stores a copy of rec, replacing any entry with the same id.
func (c *recordCache) put(rec *domain.DiagnosticRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.records[rec.ID]; !ok {
		c.order = append(c.order, rec.ID)
	}
	c.records[rec.ID] = *rec

	for len(c.order) > c.max {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.records, oldest)
	}
}

func (c *recordCache) get(id string) (*domain.DiagnosticRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rec, ok := c.records[id]
	if !ok {
		return nil, false
	}
	return &rec, true
}

func (c *recordCache) all() []domain.DiagnosticRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.DiagnosticRecord, 0, len(c.records))
	for _, id := range c.order {
		out = append(out, c.records[id])
	}
	return out
}

func (c *recordCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}
