package journal

import (
	"context"
	"sync"

	"AgentKit-Chain/internal/invocation"
)

const defaultCapacity = 1000

// Memory keeps the most recent records in a bounded ring.
type Memory struct {
	mu      sync.RWMutex
	records []invocation.Record
	next    int
	full    bool
}

// NewMemory creates a ring holding at most capacity records.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Memory{records: make([]invocation.Record, capacity)}
}

// Record 实现 invocation.Recorder。
func (m *Memory) Record(_ context.Context, rec invocation.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[m.next] = rec
	m.next = (m.next + 1) % len(m.records)
	if m.next == 0 {
		m.full = true
	}
	return nil
}

// ListLatest returns up to limit records, newest first.
func (m *Memory) ListLatest(_ context.Context, limit int) ([]invocation.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	size := m.next
	if m.full {
		size = len(m.records)
	}
	limit = clampLimit(limit, size)
	out := make([]invocation.Record, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (m.next - i + len(m.records)) % len(m.records)
		out = append(out, m.records[idx])
	}
	return out, nil
}

// Close 实现 Journal。
func (m *Memory) Close() error { return nil }
