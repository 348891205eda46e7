// Package http provides the HTTP surface of the gateway.
package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/artpar/llmgate/adapters/auth"
	"github.com/artpar/llmgate/adapters/metrics"
	"github.com/artpar/llmgate/app"
	"github.com/artpar/llmgate/domain/record"
	"github.com/artpar/llmgate/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

type ctxKey int

const clientIDKey ctxKey = iota

// PromptRequest is the body of a prompt request.
type PromptRequest struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model,omitempty"`
}

// PromptResponse is the body of a completed prompt request.
type PromptResponse struct {
	TraceID        string  `json:"trace_id"`
	Model          string  `json:"model"`
	Response       string  `json:"response"`
	Tokens         int     `json:"tokens"`
	LatencySeconds float64 `json:"latency_seconds"`
	RecordID       int64   `json:"record_id"`
}

// TokenRequest is the body of a token minting request.
type TokenRequest struct {
	Subject string `json:"subject"`
}

// TokenResponse carries a freshly minted bearer token.
type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

// Handler serves the gateway API.
type Handler struct {
	pipeline  *app.PromptService
	ledger    ports.Ledger
	policies  ports.PolicyStore
	tracker   ports.Tracker
	registry  *app.RegistryService
	backend   ports.Backend
	verifier  *auth.Verifier
	issuer    *auth.Issuer
	tokenTTL  time.Duration
	logger    zerolog.Logger
	metrics   *metrics.Collector
	allowlist []string

	metricsHandler http.Handler
}

// Deps contains dependencies for the HTTP handler.
type Deps struct {
	Pipeline *app.PromptService
	Ledger   ports.Ledger
	Policies ports.PolicyStore
	Tracker  ports.Tracker
	Registry *app.RegistryService
	Backend  ports.Backend
	Verifier *auth.Verifier
	Issuer   *auth.Issuer
	TokenTTL time.Duration
	Logger   zerolog.Logger
	Metrics  *metrics.Collector

	// ClientAllowlist bounds the client label on request metrics.
	ClientAllowlist []string

	// MetricsHandler, when set, is mounted at GET /metrics.
	MetricsHandler http.Handler
}

// NewHandler creates the gateway HTTP handler.
func NewHandler(deps Deps) *Handler {
	ttl := deps.TokenTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Handler{
		pipeline:       deps.Pipeline,
		ledger:         deps.Ledger,
		policies:       deps.Policies,
		tracker:        deps.Tracker,
		registry:       deps.Registry,
		backend:        deps.Backend,
		verifier:       deps.Verifier,
		issuer:         deps.Issuer,
		tokenTTL:       ttl,
		logger:         deps.Logger,
		metrics:        deps.Metrics,
		allowlist:      deps.ClientAllowlist,
		metricsHandler: deps.MetricsHandler,
	}
}

// Router builds the full route tree.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(h.instrument)

	r.Get("/", h.Root)
	r.Get("/healthz", h.Health)
	if h.metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", h.metricsHandler)
	}

	r.Post("/auth/token", h.IssueToken)
	r.Post("/llm/echo", h.Echo)
	r.Get("/logs", h.Logs)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Post("/llm", h.Prompt)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Get("/models", h.ListModels)
		r.Post("/models", h.RegisterModel)
		r.Get("/models/{name}", h.GetModel)
		r.Get("/policies", h.ListPolicies)
		r.Post("/policies", h.SetPolicy)
		r.Get("/usage/recent", h.RecentUsage)
		r.Get("/usage/model/{model}", h.UsageByModel)
		r.Get("/usage/client/{clientID}", h.UsageByClient)
		r.Get("/clients/{clientID}/stats", h.ClientStats)
	})

	return r
}

// Root reports the service name and status.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "llmgate",
		"status":  "ok",
	})
}

// Health is the liveness probe.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// IssueToken mints a bearer token for the given subject. Credential checks
// happen outside the gateway; this endpoint exists for local development and
// trusted internal callers.
func (h *Handler) IssueToken(w http.ResponseWriter, r *http.Request) {
	if h.issuer == nil {
		writeError(w, http.StatusNotImplemented, "token_minting_disabled", "No token issuer configured")
		return
	}

	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Subject == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "Body must carry a non-empty subject")
		return
	}

	token, err := h.issuer.Issue(req.Subject, h.tokenTTL)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to mint token")
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to mint token")
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{
		Token:     token,
		ExpiresIn: int(h.tokenTTL.Seconds()),
	})
}

// Prompt runs a prompt through the full admission and accounting pipeline.
func (h *Handler) Prompt(w http.ResponseWriter, r *http.Request) {
	var req PromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid JSON body")
		return
	}
	if req.Prompt == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "Prompt must not be empty")
		return
	}

	clientID, _ := r.Context().Value(clientIDKey).(string)
	result := h.pipeline.Handle(r.Context(), app.Request{
		Prompt:   req.Prompt,
		ClientID: clientID,
		Model:    req.Model,
	})

	switch result.State {
	case app.StateCompleted:
		writeJSON(w, http.StatusOK, PromptResponse{
			TraceID:        result.TraceID,
			Model:          result.Model,
			Response:       result.Text,
			Tokens:         result.Tokens,
			LatencySeconds: result.LatencySeconds,
			RecordID:       result.RecordID,
		})
	case app.StateRejected:
		writeError(w, http.StatusForbidden, string(result.Reason), "Request rejected by usage policy")
	default:
		status := http.StatusBadGateway
		switch result.Failure {
		case app.FailureBackendTimeout:
			status = http.StatusGatewayTimeout
		case app.FailureStorageUnavailable:
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, string(result.Failure), "Request could not be completed")
	}
}

// Echo forwards a prompt straight to the backend, bypassing identity,
// policy, and the usage ledger. Meant for connectivity checks.
func (h *Handler) Echo(w http.ResponseWriter, r *http.Request) {
	var req PromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Prompt == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "Body must carry a non-empty prompt")
		return
	}

	model := req.Model
	if model == "" {
		model = "echo"
	}
	completion, err := h.backend.Invoke(r.Context(), model, req.Prompt)
	if err != nil {
		h.logger.Error().Err(err).Str("model", model).Msg("echo backend failure")
		writeError(w, http.StatusBadGateway, "backend_unavailable", "Backend did not answer")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"model":    model,
		"response": completion.Text,
	})
}

// Logs returns the most recent usage records, newest first.
func (h *Handler) Logs(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 10)
	records, err := h.ledger.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to read usage ledger")
		writeError(w, http.StatusServiceUnavailable, "storage_unavailable", "Usage ledger unavailable")
		return
	}
	writeRecords(w, records)
}

// requireAuth extracts and verifies the bearer token, placing the caller
// identity in the request context.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing_token", "Authorization bearer token required")
			return
		}
		clientID, err := h.verifier.ClientID(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_token", "Bearer token rejected")
			return
		}
		ctx := context.WithValue(r.Context(), clientIDKey, clientID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// instrument records per-request counters and latency. The client label is
// normalized against the allowlist so cardinality stays bounded.
func (h *Handler) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.metrics == nil {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		next.ServeHTTP(w, r)

		endpoint := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			endpoint = rctx.RoutePattern()
		}
		client := metrics.NormalizeClient(h.clientHint(r), h.allowlist)
		h.metrics.RequestsTotal.WithLabelValues(endpoint, r.Method, client).Inc()
		h.metrics.RequestLatency.WithLabelValues(endpoint, client).Observe(time.Since(start).Seconds())
	})
}

// clientHint extracts a best-effort caller identity for metric labels. It
// never fails a request; unidentifiable callers label as anonymous.
func (h *Handler) clientHint(r *http.Request) string {
	if h.verifier != nil {
		if token := bearerToken(r); token != "" {
			if clientID, err := h.verifier.ClientID(token); err == nil {
				return clientID
			}
		}
	}
	return r.Header.Get("X-User-Id")
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimPrefix(header, prefix)
}

func writeRecords(w http.ResponseWriter, records []record.Record) {
	if records == nil {
		records = []record.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(records),
		"records": records,
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

func parseIntQuery(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}
