package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/artpar/llmgate/domain/record"
	"github.com/artpar/llmgate/ports"
)

const (
	defaultRecentLimit = 10
	maxRecentLimit     = 100
)

// LedgerStore implements ports.Ledger using SQLite.
type LedgerStore struct {
	db *DB
}

// NewLedgerStore creates a new SQLite-backed usage ledger.
func NewLedgerStore(db *DB) *LedgerStore {
	return &LedgerStore{db: db}
}

// Append durably inserts a usage record and returns the assigned ID.
func (s *LedgerStore) Append(ctx context.Context, r record.Record) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO usage_records (timestamp, client_id, prompt, model, latency_seconds, tokens)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.Timestamp.UTC().Format(time.RFC3339Nano), r.ClientID, r.Prompt, r.Model, r.LatencySeconds, r.Tokens)
	if err != nil {
		return 0, fmt.Errorf("%w: append usage record: %v", ports.ErrStorageUnavailable, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: last insert id: %v", ports.ErrStorageUnavailable, err)
	}
	return id, nil
}

// Recent returns up to limit records, newest first by ID.
func (s *LedgerStore) Recent(ctx context.Context, limit int) ([]record.Record, error) {
	limit = clampLimit(limit)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, client_id, prompt, model, latency_seconds, tokens
		FROM usage_records
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: query recent: %v", ports.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// ByModel returns all records for an exact model name.
func (s *LedgerStore) ByModel(ctx context.Context, model string) ([]record.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, client_id, prompt, model, latency_seconds, tokens
		FROM usage_records
		WHERE model = ?
	`, model)
	if err != nil {
		return nil, fmt.Errorf("%w: query by model: %v", ports.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// ByClient returns all records for an exact client ID.
func (s *LedgerStore) ByClient(ctx context.Context, clientID string) ([]record.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, client_id, prompt, model, latency_seconds, tokens
		FROM usage_records
		WHERE client_id = ?
	`, clientID)
	if err != nil {
		return nil, fmt.Errorf("%w: query by client: %v", ports.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]record.Record, error) {
	var records []record.Record
	for rows.Next() {
		var r record.Record
		var ts string
		if err := rows.Scan(&r.ID, &ts, &r.ClientID, &r.Prompt, &r.Model, &r.LatencySeconds, &r.Tokens); err != nil {
			return nil, fmt.Errorf("%w: scan record: %v", ports.ErrStorageUnavailable, err)
		}
		parsed, err := time.Parse(time.RFC3339Nano, ts)
		if err == nil {
			r.Timestamp = parsed
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate records: %v", ports.ErrStorageUnavailable, err)
	}
	return records, nil
}

func clampLimit(limit int) int {
	if limit < 1 {
		return defaultRecentLimit
	}
	if limit > maxRecentLimit {
		return maxRecentLimit
	}
	return limit
}

// Ensure interface compliance.
var _ ports.Ledger = (*LedgerStore)(nil)
