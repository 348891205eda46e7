// Package app provides application services that orchestrate domain logic.
package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/artpar/llmgate/domain/registry"
	"github.com/artpar/llmgate/ports"
)

// RegistryService holds the model registry: an ordered list of entries so
// name/alias resolution is deterministic in insertion order. It is guarded
// by its own lock and owned by whoever constructs it; there is no
// process-wide instance.
type RegistryService struct {
	mu       sync.RWMutex
	entries  []registry.Entry
	snapshot ports.SnapshotStore
}

// NewRegistryService creates an empty registry backed by the given snapshot
// store.
func NewRegistryService(snapshot ports.SnapshotStore) *RegistryService {
	return &RegistryService{snapshot: snapshot}
}

// Register upserts a model entry. An existing entry with the same name is
// replaced in place, keeping its position; a new entry is appended. The
// alias defaults to the name. Register never fails for valid input.
func (s *RegistryService) Register(name, version, alias string) error {
	if name == "" {
		return fmt.Errorf("model name must not be empty")
	}

	entry := registry.Normalize(registry.Entry{Name: name, Version: version, Alias: alias})

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.entries {
		if e.Name == name {
			s.entries[i] = entry
			return nil
		}
	}
	s.entries = append(s.entries, entry)
	return nil
}

// Resolve looks up an entry by name or alias. A miss is reported as
// ok=false, not an error.
func (s *RegistryService) Resolve(nameOrAlias string) (registry.Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return registry.Resolve(s.entries, nameOrAlias)
}

// List returns a copy of all entries in insertion order.
func (s *RegistryService) List() []registry.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]registry.Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of registered models.
func (s *RegistryService) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Save snapshots the full registry to the persistence store.
func (s *RegistryService) Save(ctx context.Context) error {
	entries := s.List()
	if err := s.snapshot.Save(ctx, entries); err != nil {
		return fmt.Errorf("save registry: %w", err)
	}
	return nil
}

// Load replaces the in-memory registry wholesale from the snapshot. It is a
// no-op when no snapshot exists.
func (s *RegistryService) Load(ctx context.Context) error {
	entries, ok, err := s.snapshot.Load(ctx)
	if err != nil {
		return fmt.Errorf("load registry: %w", err)
	}
	if !ok {
		return nil
	}

	for i := range entries {
		entries[i] = registry.Normalize(entries[i])
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = entries
	return nil
}
