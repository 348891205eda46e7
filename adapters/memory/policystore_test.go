package memory_test

import (
	"context"
	"testing"

	"github.com/artpar/llmgate/adapters/memory"
	"github.com/artpar/llmgate/domain/policy"
)

func newPolicyStore() *memory.PolicyStore {
	return memory.NewPolicyStore(policy.Policy{MaxTokens: 100000})
}

func TestResolveUnknownClientUsesDefault(t *testing.T) {
	store := newPolicyStore()
	ctx := context.Background()

	p, err := store.Resolve(ctx, "never-seen")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if p.ClientID != policy.DefaultClientID {
		t.Errorf("ClientID = %q, want %q", p.ClientID, policy.DefaultClientID)
	}
	if p.MaxTokens != 100000 {
		t.Errorf("MaxTokens = %d, want 100000", p.MaxTokens)
	}
}

func TestSetReplacesWholesale(t *testing.T) {
	store := newPolicyStore()
	ctx := context.Background()

	if err := store.Set(ctx, policy.Policy{ClientID: "acme", MaxTokens: 50, BlockedModels: []string{"local-llm"}}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, policy.Policy{ClientID: "acme", MaxTokens: 75}); err != nil {
		t.Fatalf("set: %v", err)
	}

	p, err := store.Resolve(ctx, "acme")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if p.MaxTokens != 75 {
		t.Errorf("MaxTokens = %d, want 75", p.MaxTokens)
	}
	if len(p.BlockedModels) != 0 {
		t.Errorf("BlockedModels = %v, want empty after wholesale replace", p.BlockedModels)
	}
}

func TestSetRejectsEmptyClientID(t *testing.T) {
	store := newPolicyStore()
	if err := store.Set(context.Background(), policy.Policy{MaxTokens: 1}); err == nil {
		t.Error("Set with empty client id should fail")
	}
}

func TestStoredPolicyIsIsolatedFromCaller(t *testing.T) {
	store := newPolicyStore()
	ctx := context.Background()

	blocked := []string{"local-llm"}
	store.Set(ctx, policy.Policy{ClientID: "acme", MaxTokens: 50, BlockedModels: blocked})
	blocked[0] = "mutated"

	p, _ := store.Resolve(ctx, "acme")
	if p.BlockedModels[0] != "local-llm" {
		t.Errorf("stored policy shares caller slice: %v", p.BlockedModels)
	}

	// Mutating the resolved copy must not affect the store either.
	p.BlockedModels[0] = "mutated-again"
	p2, _ := store.Resolve(ctx, "acme")
	if p2.BlockedModels[0] != "local-llm" {
		t.Errorf("resolved policy shares store slice: %v", p2.BlockedModels)
	}
}

func TestAcmeScenario(t *testing.T) {
	store := newPolicyStore()
	ctx := context.Background()

	store.Set(ctx, policy.Policy{ClientID: "acme", MaxTokens: 50, BlockedModels: []string{"local-llm"}})

	p, _ := store.Resolve(ctx, "acme")

	if d := policy.Evaluate(p, "local-llm", 1); d.Allowed || d.Reason != policy.ReasonModelBlocked {
		t.Errorf("blocked model: got (%v, %q)", d.Allowed, d.Reason)
	}
	if d := policy.Evaluate(p, "gpt-x", 51); d.Allowed || d.Reason != policy.ReasonTokenLimitExceeded {
		t.Errorf("over limit: got (%v, %q)", d.Allowed, d.Reason)
	}
	if d := policy.Evaluate(p, "gpt-x", 50); !d.Allowed || d.Reason != policy.ReasonAllowed {
		t.Errorf("at limit: got (%v, %q)", d.Allowed, d.Reason)
	}
}

func TestListIncludesDefault(t *testing.T) {
	store := newPolicyStore()
	ctx := context.Background()

	store.Set(ctx, policy.Policy{ClientID: "acme", MaxTokens: 50})

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}
	found := false
	for _, p := range list {
		if p.ClientID == policy.DefaultClientID {
			found = true
		}
	}
	if !found {
		t.Error("default policy missing from List")
	}
}
