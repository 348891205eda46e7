// Package record provides usage record value types and pure accounting
// functions. This package has no dependencies on I/O or external packages.
package record

import (
	"strings"
	"time"
)

// AnonymousClient is the identity assigned to requests without a caller ID.
const AnonymousClient = "anonymous"

// Record represents one completed LLM invocation (immutable value type).
// The ID is assigned by the ledger on append and is never reused.
type Record struct {
	ID             int64     `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	ClientID       string    `json:"client_id"`
	Prompt         string    `json:"prompt"`
	Model          string    `json:"model"`
	LatencySeconds float64   `json:"latency_seconds"`
	Tokens         int       `json:"tokens"`
}

// New builds a record for a completed invocation. Blank client identities
// collapse to AnonymousClient; negative latency and token values clamp to
// zero so a record is always well-formed.
func New(clientID, prompt, model string, latency float64, tokens int, at time.Time) Record {
	if strings.TrimSpace(clientID) == "" {
		clientID = AnonymousClient
	}
	if latency < 0 {
		latency = 0
	}
	if tokens < 0 {
		tokens = 0
	}
	return Record{
		Timestamp:      at.UTC(),
		ClientID:       clientID,
		Prompt:         prompt,
		Model:          model,
		LatencySeconds: latency,
		Tokens:         tokens,
	}
}

// TokenCount returns the token measure for a prompt: the number of
// whitespace-delimited fields. It is a proxy metric, not a tokenizer, and is
// reproducible for the same prompt.
func TokenCount(prompt string) int {
	return len(strings.Fields(prompt))
}
