// Package auth implements the single-credential admin gate: per-address
// lockout after repeated failures, opaque session tokens and their
// validation. All mutable state lives behind the State interface so the
// process-local map can be swapped for a shared store.
package auth

import (
	"context"
	"sync"
	"time"
)

// State stores keyed entries with a time to live. A zero TTL means the
// entry never expires.
type State interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryState is a process-local State. Expired entries are dropped lazily
// on access.
type MemoryState struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryState creates an empty MemoryState. A nil clock uses time.Now.
func NewMemoryState(now func() time.Time) *MemoryState {
	if now == nil {
		now = time.Now
	}
	return &MemoryState{
		entries: make(map[string]memoryEntry),
		now:     now,
	}
}

// Get returns the value for key, if present and not expired.
func (m *MemoryState) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && m.now().After(e.expiresAt) {
		delete(m.entries, key)
		return nil, false, nil
	}
	return append([]byte(nil), e.value...), true, nil
}

// Set stores value under key.
func (m *MemoryState) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.entries[key] = e
	return nil
}

// Delete removes key. Missing keys are not an error.
func (m *MemoryState) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
	return nil
}

// Len returns the number of stored entries, expired or not.
func (m *MemoryState) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
