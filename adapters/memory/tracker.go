package memory

import (
	"sync"

	"github.com/artpar/llmgate/domain/tracker"
	"github.com/artpar/llmgate/ports"
)

// Tracker is an in-memory implementation of ports.Tracker. State is
// process-lifetime only; the durable ledger remains authoritative.
type Tracker struct {
	mu      sync.RWMutex
	entries map[string][]tracker.Entry
}

// NewTracker creates a new in-memory usage tracker.
func NewTracker() *Tracker {
	return &Tracker{entries: make(map[string][]tracker.Entry)}
}

// Record appends a usage entry to the client's history, creating it on
// first use.
func (t *Tracker) Record(clientID, model string, tokens int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[clientID] = append(t.entries[clientID], tracker.Entry{Model: model, Tokens: tokens})
}

// Summary returns a copy of the client's full history, empty for unknown
// clients.
func (t *Tracker) Summary(clientID string) []tracker.Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	entries := t.entries[clientID]
	out := make([]tracker.Entry, len(entries))
	copy(out, entries)
	return out
}

// Stats returns aggregate statistics for the client.
func (t *Tracker) Stats(clientID string) tracker.Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return tracker.Compute(t.entries[clientID])
}

// Ensure interface compliance.
var _ ports.Tracker = (*Tracker)(nil)
