// Package snapshot provides registry snapshot persistence.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/artpar/llmgate/domain/registry"
	"github.com/artpar/llmgate/ports"
)

// FileStore persists the model registry as a JSON file. Entries are stored
// as an ordered array so alias resolution stays deterministic across a
// save/load cycle.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed snapshot store.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Save writes the full entry list, replacing any prior snapshot. The write
// goes through a temp file and rename so a crash cannot leave a torn
// snapshot behind.
func (s *FileStore) Save(ctx context.Context, entries []registry.Entry) error {
	if entries == nil {
		entries = []registry.Entry{}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode snapshot: %v", ports.ErrPersistence, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create snapshot dir: %v", ports.ErrPersistence, err)
	}

	tmp, err := os.CreateTemp(dir, ".registry-*.json")
	if err != nil {
		return fmt.Errorf("%w: create temp snapshot: %v", ports.ErrPersistence, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: write snapshot: %v", ports.ErrPersistence, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: close snapshot: %v", ports.ErrPersistence, err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: replace snapshot: %v", ports.ErrPersistence, err)
	}
	return nil
}

// Load reads the snapshot. A missing file is reported as ok=false with a
// nil error so callers can treat first start as a no-op.
func (s *FileStore) Load(ctx context.Context) ([]registry.Entry, bool, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: read snapshot: %v", ports.ErrPersistence, err)
	}

	var entries []registry.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, false, fmt.Errorf("%w: decode snapshot: %v", ports.ErrPersistence, err)
	}
	return entries, true, nil
}

// Ensure interface compliance.
var _ ports.SnapshotStore = (*FileStore)(nil)
