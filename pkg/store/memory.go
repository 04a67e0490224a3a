package store

import (
	"context"
	"strconv"
	"sync"
)

// Memory is an in-process Store. It backs tests and lets the service run
// without a database.
type Memory struct {
	mu      sync.Mutex
	records []Record
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Append stores the record and returns its 1-based position as the id.
func (m *Memory) Append(_ context.Context, rec Record) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = append(m.records, rec)
	return strconv.Itoa(len(m.records)), nil
}

// Records returns a copy of everything appended so far.
func (m *Memory) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out
}

var _ Store = (*Memory)(nil)
