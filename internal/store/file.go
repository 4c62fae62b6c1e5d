package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/roach88/spinpick/internal/ir"
)

// FileStore keeps the slot in a single JSON file.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore returns a store writing to path. The parent directory is
// created on first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the snapshot file location.
func (f *FileStore) Path() string { return f.path }

// Save atomically replaces the snapshot file.
func (f *FileStore) Save(_ context.Context, o ir.Outcome) error {
	payload, err := encodeSnapshot(o)
	if err != nil {
		return fmt.Errorf("save outcome: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("save outcome: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".spinpick-*.json")
	if err != nil {
		return fmt.Errorf("save outcome: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return fmt.Errorf("save outcome: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save outcome: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("save outcome: %w", err)
	}
	return nil
}

// Load reads the snapshot file. A missing file means no prior result.
func (f *FileStore) Load(ctx context.Context) (ir.Outcome, bool, error) {
	f.mu.Lock()
	data, err := os.ReadFile(f.path)
	f.mu.Unlock()

	if errors.Is(err, fs.ErrNotExist) {
		return ir.Outcome{}, false, nil
	}
	if err != nil {
		return ir.Outcome{}, false, fmt.Errorf("load outcome: %w", err)
	}

	o, err := decodeSnapshot(data)
	if err != nil {
		return ir.Outcome{}, false, discardCorrupt(ctx, "file", err, f.Clear)
	}
	return o, true, nil
}

// Clear deletes the snapshot file.
func (f *FileStore) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clear outcome: %w", err)
	}
	return nil
}

// Close implements Backend. FileStore holds no open handles.
func (f *FileStore) Close() error { return nil }
