package app

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/artpar/llmgate/adapters/metrics"
	"github.com/artpar/llmgate/domain/policy"
	"github.com/artpar/llmgate/domain/record"
	"github.com/artpar/llmgate/ports"
	"github.com/rs/zerolog"
)

// State is the terminal state of a prompt request.
type State string

const (
	StateCompleted State = "completed"
	StateRejected  State = "rejected"
	StateFailed    State = "failed"
)

// FailureKind classifies a failed request.
type FailureKind string

const (
	FailureBackendUnavailable FailureKind = "backend_unavailable"
	FailureBackendTimeout     FailureKind = "backend_timeout"
	FailureStorageUnavailable FailureKind = "storage_unavailable"
)

// Request is an inbound prompt request. ClientID arrives already verified
// by the authentication collaborator; a blank value is treated as anonymous.
// Model is optional; unset requests use the configured default model.
type Request struct {
	Prompt   string
	ClientID string
	Model    string
}

// Result is the outcome of handling a prompt request.
type Result struct {
	State          State
	TraceID        string
	Text           string
	Model          string
	Tokens         int
	LatencySeconds float64
	RecordID       int64

	// Rejected only
	Reason policy.Reason
	// Logged reports whether a usage record was written despite rejection.
	Logged bool

	// Failed only
	Failure FailureKind
	Err     error
}

// PromptDeps contains dependencies for PromptService.
type PromptDeps struct {
	Ledger   ports.Ledger
	Policies ports.PolicyStore
	Tracker  ports.Tracker
	Registry *RegistryService
	Backend  ports.Backend
	Selector ports.BackendSelector
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Logger   zerolog.Logger
	Metrics  *metrics.Collector
}

// PromptConfig contains configuration for PromptService.
type PromptConfig struct {
	// DefaultModel is used when a request names no model known to the
	// registry.
	DefaultModel string

	// FallbackModel is offered to the selector as the substitution
	// candidate. Empty disables fallback.
	FallbackModel string

	// BackendTimeout bounds a single backend invocation.
	BackendTimeout time.Duration
}

// DynamicPromptConfig is the hot-reloadable part of the pipeline config.
type DynamicPromptConfig struct {
	DefaultModel   string
	FallbackModel  string
	BackendTimeout time.Duration
}

// PromptService runs the request admission and usage accounting pipeline:
// identity, pre-check, backend selection and invocation, token accounting,
// post-check, durable recording.
type PromptService struct {
	ledger   ports.Ledger
	policies ports.PolicyStore
	tracker  ports.Tracker
	registry *RegistryService
	backend  ports.Backend
	selector ports.BackendSelector
	clock    ports.Clock
	idGen    ports.IDGenerator
	logger   zerolog.Logger
	metrics  *metrics.Collector

	dynamicCfg atomic.Pointer[DynamicPromptConfig]
}

// NewPromptService creates the pipeline service.
func NewPromptService(deps PromptDeps, cfg PromptConfig) *PromptService {
	s := &PromptService{
		ledger:   deps.Ledger,
		policies: deps.Policies,
		tracker:  deps.Tracker,
		registry: deps.Registry,
		backend:  deps.Backend,
		selector: deps.Selector,
		clock:    deps.Clock,
		idGen:    deps.IDGen,
		logger:   deps.Logger,
		metrics:  deps.Metrics,
	}
	s.UpdateConfig(cfg.DefaultModel, cfg.FallbackModel, cfg.BackendTimeout)
	return s
}

// UpdateConfig updates the hot-reloadable configuration. It is safe to call
// while requests are in flight.
func (s *PromptService) UpdateConfig(defaultModel, fallbackModel string, backendTimeout time.Duration) {
	if backendTimeout <= 0 {
		backendTimeout = 30 * time.Second
	}
	s.dynamicCfg.Store(&DynamicPromptConfig{
		DefaultModel:   defaultModel,
		FallbackModel:  fallbackModel,
		BackendTimeout: backendTimeout,
	})
}

// Handle processes one prompt request through the full pipeline.
func (s *PromptService) Handle(ctx context.Context, req Request) Result {
	cfg := s.dynamicCfg.Load()
	traceID := s.idGen.New()

	// 1. Identity: blank callers collapse to anonymous. Verification
	// happened upstream; the identity is trusted as-is.
	clientID := req.ClientID
	if clientID == "" {
		clientID = record.AnonymousClient
	}

	clientPolicy, err := s.policies.Resolve(ctx, clientID)
	if err != nil {
		// The in-memory store cannot fail; treat a failure from an
		// alternative implementation as a storage fault.
		return s.fail(traceID, clientID, "", FailureStorageUnavailable, err)
	}

	// 2. Resolve the requested model through the registry (name or alias).
	// Unknown names are kept literally; absence is not a fault here.
	requested := req.Model
	if requested == "" {
		requested = cfg.DefaultModel
	}
	if entry, ok := s.registry.Resolve(requested); ok {
		requested = entry.Name
	}

	// 3. Pre-check: a blocked primary model is rejected before any
	// backend cost is incurred. Nothing is recorded for these.
	if clientPolicy.Blocks(requested) {
		s.observeRejection(policy.ReasonModelBlocked)
		s.logger.Info().
			Str("trace_id", traceID).
			Str("client", clientID).
			Str("model", requested).
			Msg("request rejected before invocation")
		return Result{
			State:   StateRejected,
			TraceID: traceID,
			Model:   requested,
			Reason:  policy.ReasonModelBlocked,
		}
	}

	// 4. Select and invoke the backend, measuring wall-clock latency.
	var candidates []string
	if cfg.FallbackModel != "" && cfg.FallbackModel != requested {
		candidates = []string{cfg.FallbackModel}
	}
	used := s.selector.Choose(requested, candidates)

	invokeCtx, cancel := context.WithTimeout(ctx, cfg.BackendTimeout)
	defer cancel()

	start := s.clock.Now()
	completion, err := s.backend.Invoke(invokeCtx, used, req.Prompt)
	latency := s.clock.Now().Sub(start).Seconds()

	if err != nil {
		kind := FailureBackendUnavailable
		if errors.Is(err, context.DeadlineExceeded) || invokeCtx.Err() == context.DeadlineExceeded {
			kind = FailureBackendTimeout
		}
		if s.metrics != nil {
			s.metrics.BackendErrors.WithLabelValues(string(kind)).Inc()
		}
		return s.fail(traceID, clientID, used, kind, err)
	}
	if s.metrics != nil {
		s.metrics.BackendDuration.WithLabelValues(used).Observe(latency)
	}

	// 5. Account: the token measure is a deterministic function of the
	// prompt.
	tokens := record.TokenCount(req.Prompt)

	// 6. Post-check against the realized model and token count.
	decision := policy.Evaluate(clientPolicy, used, tokens)

	// 7. Persist. The backend cost was incurred either way, so the record
	// is written regardless of the decision. A failed append fails the
	// request closed: the answer is withheld rather than returned
	// unaccounted.
	rec := record.New(clientID, req.Prompt, used, latency, tokens, s.clock.Now())
	recordID, err := s.ledger.Append(ctx, rec)
	if err != nil {
		if s.metrics != nil {
			s.metrics.LedgerAppendErrors.Inc()
		}
		return s.fail(traceID, clientID, used, FailureStorageUnavailable, err)
	}
	s.tracker.Record(clientID, used, tokens)

	if !decision.Allowed {
		s.observeRejection(decision.Reason)
		s.logger.Info().
			Str("trace_id", traceID).
			Str("client", clientID).
			Str("model", used).
			Int("tokens", tokens).
			Str("reason", string(decision.Reason)).
			Int64("record_id", recordID).
			Msg("request rejected after invocation")
		return Result{
			State:          StateRejected,
			TraceID:        traceID,
			Model:          used,
			Tokens:         tokens,
			LatencySeconds: latency,
			RecordID:       recordID,
			Reason:         decision.Reason,
			Logged:         true,
		}
	}

	s.logger.Info().
		Str("trace_id", traceID).
		Str("client", clientID).
		Str("model", used).
		Int("tokens", tokens).
		Float64("latency_seconds", latency).
		Int64("record_id", recordID).
		Msg("request completed")

	return Result{
		State:          StateCompleted,
		TraceID:        traceID,
		Text:           completion.Text,
		Model:          used,
		Tokens:         tokens,
		LatencySeconds: latency,
		RecordID:       recordID,
		Reason:         policy.ReasonAllowed,
		Logged:         true,
	}
}

func (s *PromptService) fail(traceID, clientID, model string, kind FailureKind, err error) Result {
	s.logger.Error().
		Str("trace_id", traceID).
		Str("client", clientID).
		Str("model", model).
		Str("kind", string(kind)).
		Err(err).
		Msg("request failed")
	return Result{
		State:   StateFailed,
		TraceID: traceID,
		Model:   model,
		Failure: kind,
		Err:     err,
	}
}

func (s *PromptService) observeRejection(reason policy.Reason) {
	if s.metrics != nil {
		s.metrics.PolicyRejections.WithLabelValues(string(reason)).Inc()
	}
}
