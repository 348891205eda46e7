// Package policy provides per-client admission policy types and pure
// evaluation functions. All functions are deterministic with no side effects.
package policy

// DefaultClientID is the reserved fallback policy key. A policy store must
// hold a policy under this key at all times; it is applied to any client
// without an explicit policy of its own.
const DefaultClientID = "default"

// Policy represents a per-client quota and model restriction (value type).
type Policy struct {
	ClientID      string   `json:"client_id"`
	MaxTokens     int      `json:"max_tokens"`
	BlockedModels []string `json:"blocked_models,omitempty"`
}

// Reason explains an admission decision.
type Reason string

const (
	ReasonAllowed            Reason = "allowed"
	ReasonModelBlocked       Reason = "model_blocked"
	ReasonTokenLimitExceeded Reason = "token_limit_exceeded"
)

// Decision is the outcome of evaluating a request against a policy.
type Decision struct {
	Allowed bool
	Reason  Reason
}

// Blocks reports whether the policy blocks the given model.
func (p Policy) Blocks(model string) bool {
	for _, m := range p.BlockedModels {
		if m == model {
			return true
		}
	}
	return false
}

// Evaluate checks a request against a policy. The check order is fixed:
// blocklist before quota, so a blocked model is rejected even at zero tokens
// and the surfaced reason is deterministic. Token count equal to MaxTokens is
// allowed; only a strictly greater count exceeds the limit.
func Evaluate(p Policy, model string, tokens int) Decision {
	if p.Blocks(model) {
		return Decision{Allowed: false, Reason: ReasonModelBlocked}
	}
	if tokens > p.MaxTokens {
		return Decision{Allowed: false, Reason: ReasonTokenLimitExceeded}
	}
	return Decision{Allowed: true, Reason: ReasonAllowed}
}
