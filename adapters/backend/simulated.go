package backend

import (
	"context"
	"fmt"

	"github.com/artpar/llmgate/ports"
)

// Simulated is a deterministic backend for development and tests. It echoes
// the prompt back with model attribution and never performs network I/O.
type Simulated struct{}

// NewSimulated creates a simulated backend.
func NewSimulated() Simulated {
	return Simulated{}
}

// Invoke returns a canned answer attributing the model.
func (Simulated) Invoke(ctx context.Context, model, prompt string) (ports.Completion, error) {
	if err := ctx.Err(); err != nil {
		return ports.Completion{}, err
	}
	return ports.Completion{Text: fmt.Sprintf("[%s] Answer to: %s", model, prompt)}, nil
}

// Ensure interface compliance.
var _ ports.Backend = Simulated{}
