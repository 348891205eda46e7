// Package selector provides backend selection strategies. The fallback
// decision is injectable so tests can pin both branches.
package selector

import (
	"math/rand"
	"sync"

	"github.com/artpar/llmgate/ports"
)

// Primary always chooses the primary model. Useful as a no-fallback
// strategy and in tests.
type Primary struct{}

// Choose returns the primary model.
func (Primary) Choose(primary string, candidates []string) string {
	return primary
}

// Static always chooses a fixed model, falling back to the primary when
// unset. Useful for pinning the fallback branch in tests.
type Static struct {
	Model string
}

// Choose returns the static model.
func (s Static) Choose(primary string, candidates []string) string {
	if s.Model == "" {
		return primary
	}
	return s.Model
}

// Weighted substitutes the first fallback candidate with a fixed
// probability, otherwise keeps the primary.
type Weighted struct {
	mu          sync.Mutex
	probability float64
	rng         *rand.Rand
}

// NewWeighted creates a weighted selector. The probability clamps to [0, 1].
// A seed makes the sequence reproducible; pass a time-derived seed in
// production wiring.
func NewWeighted(probability float64, seed int64) *Weighted {
	if probability < 0 {
		probability = 0
	}
	if probability > 1 {
		probability = 1
	}
	return &Weighted{
		probability: probability,
		rng:         rand.New(rand.NewSource(seed)),
	}
}

// Choose picks the first candidate with the configured probability.
func (w *Weighted) Choose(primary string, candidates []string) string {
	if len(candidates) == 0 || w.probability == 0 {
		return primary
	}

	w.mu.Lock()
	roll := w.rng.Float64()
	w.mu.Unlock()

	if roll < w.probability {
		return candidates[0]
	}
	return primary
}

// Ensure interface compliance.
var (
	_ ports.BackendSelector = Primary{}
	_ ports.BackendSelector = Static{}
	_ ports.BackendSelector = (*Weighted)(nil)
)
