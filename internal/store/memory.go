package store

import (
	"context"
	"sync"
)

// MemoryEngine keeps snapshots in a map. Intended for tests and
// ephemeral runs.
type MemoryEngine struct {
	mu        sync.Mutex
	snapshots map[string]Snapshot
}

func NewMemoryEngine() *MemoryEngine {
	return &MemoryEngine{snapshots: make(map[string]Snapshot)}
}

func (e *MemoryEngine) Load(_ context.Context, name string) (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap, ok := e.snapshots[name]
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	return snap, nil
}

func (e *MemoryEngine) Save(_ context.Context, name string, expectedVersion int64, data []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if cur := e.snapshots[name].Version; cur != expectedVersion {
		return ErrVersionConflict
	}
	e.snapshots[name] = Snapshot{
		Version: expectedVersion + 1,
		Data:    append([]byte(nil), data...),
	}
	return nil
}
