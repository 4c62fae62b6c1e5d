package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/spinpick/internal/ir"
)

// MemoryStore keeps the encoded snapshot in memory.
// It stores bytes rather than the Outcome so the codec and corruption
// handling behave exactly as in the durable backends.
type MemoryStore struct {
	mu      sync.Mutex
	payload []byte
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save replaces the held snapshot with the given outcome.
func (m *MemoryStore) Save(_ context.Context, o ir.Outcome) error {
	payload, err := encodeSnapshot(o)
	if err != nil {
		return fmt.Errorf("save outcome: %w", err)
	}
	m.mu.Lock()
	m.payload = payload
	m.mu.Unlock()
	return nil
}

// Load decodes the held snapshot. A corrupt snapshot is discarded.
func (m *MemoryStore) Load(ctx context.Context) (ir.Outcome, bool, error) {
	m.mu.Lock()
	data := m.payload
	m.mu.Unlock()

	if data == nil {
		return ir.Outcome{}, false, nil
	}
	o, err := decodeSnapshot(data)
	if err != nil {
		return ir.Outcome{}, false, discardCorrupt(ctx, "memory", err, m.Clear)
	}
	return o, true, nil
}

// Clear drops the held snapshot.
func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	m.payload = nil
	m.mu.Unlock()
	return nil
}

// Close implements Backend. It is a no-op.
func (m *MemoryStore) Close() error { return nil }

// Raw returns a copy of the stored payload, or nil when empty.
func (m *MemoryStore) Raw() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.payload == nil {
		return nil
	}
	out := make([]byte, len(m.payload))
	copy(out, m.payload)
	return out
}

// SetRaw replaces the stored payload verbatim, bypassing encoding.
// Used by the scenario harness to seed corrupt or legacy slots.
func (m *MemoryStore) SetRaw(payload []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payload = append([]byte(nil), payload...)
}
