// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"errors"
	"time"

	"github.com/artpar/llmgate/domain/policy"
	"github.com/artpar/llmgate/domain/record"
	"github.com/artpar/llmgate/domain/registry"
	"github.com/artpar/llmgate/domain/tracker"
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers (trace IDs).
type IDGenerator interface {
	New() string
}

// -----------------------------------------------------------------------------
// Data Store Ports
// -----------------------------------------------------------------------------

// ErrStorageUnavailable wraps ledger failures. A failed append means the
// invocation is unaccounted; the pipeline must fail closed.
var ErrStorageUnavailable = errors.New("storage unavailable")

// Ledger is the durable, append-only usage record store. Appends never
// update or delete prior records; queries are read-only projections.
type Ledger interface {
	// Append durably inserts a record and returns the assigned ID.
	// IDs increase monotonically and are never reused.
	Append(ctx context.Context, r record.Record) (int64, error)

	// Recent returns up to limit records, newest first by ID.
	// Limits below 1 clamp to the default of 10; limits above 100 clamp to 100.
	Recent(ctx context.Context, limit int) ([]record.Record, error)

	// ByModel returns all records for an exact model name.
	ByModel(ctx context.Context, model string) ([]record.Record, error)

	// ByClient returns all records for an exact client ID.
	ByClient(ctx context.Context, clientID string) ([]record.Record, error)
}

// PolicyStore holds per-client admission policies. The "default" policy
// exists from construction and cannot be removed; Resolve falls back to it
// for unknown clients.
type PolicyStore interface {
	// Set upserts a client policy, replacing any prior one wholesale.
	Set(ctx context.Context, p policy.Policy) error

	// Resolve returns the policy for a client, or the default policy when
	// the client has none of its own.
	Resolve(ctx context.Context, clientID string) (policy.Policy, error)

	// List returns all stored policies.
	List(ctx context.Context) ([]policy.Policy, error)
}

// Tracker accumulates per-client usage in memory for fast diagnostics.
// It is process-lifetime only and explicitly lossy across restarts; the
// Ledger remains authoritative for audit.
type Tracker interface {
	// Record appends a usage entry to the client's history.
	Record(clientID, model string, tokens int)

	// Summary returns the client's full history, empty for unknown clients.
	Summary(clientID string) []tracker.Entry

	// Stats returns aggregate statistics for the client.
	Stats(clientID string) tracker.Stats
}

// ErrPersistence wraps registry snapshot I/O failures.
var ErrPersistence = errors.New("persistence error")

// SnapshotStore persists the model registry as a single ordered blob.
type SnapshotStore interface {
	// Save writes the full entry list, replacing any prior snapshot.
	Save(ctx context.Context, entries []registry.Entry) error

	// Load reads the snapshot. A missing snapshot returns ok=false with a
	// nil error so callers can treat it as a no-op.
	Load(ctx context.Context) (entries []registry.Entry, ok bool, err error)
}

// -----------------------------------------------------------------------------
// External Service Ports
// -----------------------------------------------------------------------------

// Completion is the opaque result of a backend invocation.
type Completion struct {
	Text string
}

// Backend invokes an LLM backend with a prompt. Implementations must honor
// context cancellation and deadlines; the pipeline applies the timeout.
type Backend interface {
	Invoke(ctx context.Context, model, prompt string) (Completion, error)
}

// BackendSelector chooses the backend model for an invocation. It replaces
// hidden randomness with an injectable decision so tests can pin both the
// primary and fallback branches.
type BackendSelector interface {
	// Choose picks the model to invoke from the primary and the ordered
	// fallback candidates. Must return primary when candidates is empty.
	Choose(primary string, candidates []string) string
}
