package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// fileSnapshot is the on-disk envelope of one collection file.
type fileSnapshot struct {
	Version int64           `json:"version"`
	Records json.RawMessage `json:"records"`
}

// FileEngine persists one JSON snapshot file per collection. Writes go
// to a temp file first and are moved into place with a rename, so a
// crash mid-write cannot leave a truncated snapshot behind.
type FileEngine struct {
	dir string
	mu  sync.Mutex
}

func NewFileEngine(dir string) (*FileEngine, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileEngine{dir: dir}, nil
}

func (e *FileEngine) path(name string) string {
	return filepath.Join(e.dir, name+".json")
}

func (e *FileEngine) Load(_ context.Context, name string) (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.load(name)
}

func (e *FileEngine) load(name string) (Snapshot, error) {
	raw, err := os.ReadFile(e.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return Snapshot{}, ErrNotFound
		}
		return Snapshot{}, fmt.Errorf("read snapshot file: %w", err)
	}

	var env fileSnapshot
	if err := codec.Unmarshal(raw, &env); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot file: %w", err)
	}
	return Snapshot{Version: env.Version, Data: env.Records}, nil
}

func (e *FileEngine) Save(_ context.Context, name string, expectedVersion int64, data []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	cur, err := e.load(name)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if cur.Version != expectedVersion {
		return ErrVersionConflict
	}

	raw, err := codec.Marshal(fileSnapshot{
		Version: expectedVersion + 1,
		Records: json.RawMessage(data),
	})
	if err != nil {
		return fmt.Errorf("encode snapshot file: %w", err)
	}

	tmp, err := os.CreateTemp(e.dir, name+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), e.path(name)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace snapshot file: %w", err)
	}
	return nil
}
