// Package memory provides in-memory implementations of storage ports.
// They are used by tests and by development mode without a database file.
package memory

import (
	"context"
	"sync"

	"github.com/artpar/llmgate/domain/record"
	"github.com/artpar/llmgate/ports"
)

const (
	defaultRecentLimit = 10
	maxRecentLimit     = 100
)

// LedgerStore is an in-memory implementation of ports.Ledger.
type LedgerStore struct {
	mu      sync.RWMutex
	nextID  int64
	records []record.Record
}

// NewLedgerStore creates a new in-memory usage ledger.
func NewLedgerStore() *LedgerStore {
	return &LedgerStore{nextID: 1}
}

// Append stores a record and returns the assigned ID.
func (s *LedgerStore) Append(ctx context.Context, r record.Record) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r.ID = s.nextID
	s.nextID++
	s.records = append(s.records, r)
	return r.ID, nil
}

// Recent returns up to limit records, newest first by ID.
func (s *LedgerStore) Recent(ctx context.Context, limit int) ([]record.Record, error) {
	if limit < 1 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []record.Record
	for i := len(s.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.records[i])
	}
	return out, nil
}

// ByModel returns all records for an exact model name.
func (s *LedgerStore) ByModel(ctx context.Context, model string) ([]record.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []record.Record
	for _, r := range s.records {
		if r.Model == model {
			out = append(out, r)
		}
	}
	return out, nil
}

// ByClient returns all records for an exact client ID.
func (s *LedgerStore) ByClient(ctx context.Context, clientID string) ([]record.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []record.Record
	for _, r := range s.records {
		if r.ClientID == clientID {
			out = append(out, r)
		}
	}
	return out, nil
}

// Len returns the number of stored records (for testing).
func (s *LedgerStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Ensure interface compliance.
var _ ports.Ledger = (*LedgerStore)(nil)
