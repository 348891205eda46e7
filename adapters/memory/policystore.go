package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/artpar/llmgate/domain/policy"
	"github.com/artpar/llmgate/ports"
)

// PolicyStore is an in-memory implementation of ports.PolicyStore.
// The "default" policy is seeded at construction and cannot be removed.
type PolicyStore struct {
	mu       sync.RWMutex
	policies map[string]policy.Policy
}

// NewPolicyStore creates a policy store seeded with the given default policy.
// The default's client ID is forced to policy.DefaultClientID.
func NewPolicyStore(def policy.Policy) *PolicyStore {
	def.ClientID = policy.DefaultClientID
	return &PolicyStore{
		policies: map[string]policy.Policy{
			policy.DefaultClientID: clonePolicy(def),
		},
	}
}

// Set upserts a client policy, replacing any prior one wholesale. Stored
// policies are copied so callers cannot mutate them after the fact and
// readers never observe a partially-updated entry.
func (s *PolicyStore) Set(ctx context.Context, p policy.Policy) error {
	if p.ClientID == "" {
		return fmt.Errorf("policy client id must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies[p.ClientID] = clonePolicy(p)
	return nil
}

// Resolve returns the policy for a client, falling back to the default
// policy for unknown clients.
func (s *PolicyStore) Resolve(ctx context.Context, clientID string) (policy.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.policies[clientID]; ok {
		return clonePolicy(p), nil
	}
	return clonePolicy(s.policies[policy.DefaultClientID]), nil
}

// List returns all stored policies.
func (s *PolicyStore) List(ctx context.Context) ([]policy.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]policy.Policy, 0, len(s.policies))
	for _, p := range s.policies {
		out = append(out, clonePolicy(p))
	}
	return out, nil
}

func clonePolicy(p policy.Policy) policy.Policy {
	if len(p.BlockedModels) > 0 {
		blocked := make([]string, len(p.BlockedModels))
		copy(blocked, p.BlockedModels)
		p.BlockedModels = blocked
	}
	return p
}

// Ensure interface compliance.
var _ ports.PolicyStore = (*PolicyStore)(nil)
