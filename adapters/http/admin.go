package http

import (
	"encoding/json"
	"net/http"

	"github.com/artpar/llmgate/domain/policy"
	"github.com/artpar/llmgate/domain/registry"
	"github.com/go-chi/chi/v5"
)

// RegisterModelRequest is the body of a model registration request.
type RegisterModelRequest struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Alias   string `json:"alias,omitempty"`
}

// ListModels returns all registered models in insertion order.
func (h *Handler) ListModels(w http.ResponseWriter, r *http.Request) {
	entries := h.registry.List()
	if entries == nil {
		entries = []registry.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":  len(entries),
		"models": entries,
	})
}

// RegisterModel upserts a model entry and persists the registry snapshot.
func (h *Handler) RegisterModel(w http.ResponseWriter, r *http.Request) {
	var req RegisterModelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid JSON body")
		return
	}
	if err := h.registry.Register(req.Name, req.Version, req.Alias); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if h.metrics != nil {
		h.metrics.RegistryModels.Set(float64(h.registry.Len()))
	}
	if err := h.registry.Save(r.Context()); err != nil {
		// The in-memory registry already holds the entry; a failed
		// snapshot only loses durability across restarts.
		h.logger.Error().Err(err).Msg("failed to persist registry snapshot")
	}

	entry, _ := h.registry.Resolve(req.Name)
	writeJSON(w, http.StatusCreated, entry)
}

// GetModel resolves one model by name or alias.
func (h *Handler) GetModel(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	entry, ok := h.registry.Resolve(name)
	if !ok {
		writeError(w, http.StatusNotFound, "model_not_found", "No model registered under that name or alias")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// ListPolicies returns every stored policy, the default included.
func (h *Handler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	policies, err := h.policies.List(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list policies")
		writeError(w, http.StatusServiceUnavailable, "storage_unavailable", "Policy store unavailable")
		return
	}
	if policies == nil {
		policies = []policy.Policy{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(policies),
		"policies": policies,
	})
}

// SetPolicy creates or replaces a client policy.
func (h *Handler) SetPolicy(w http.ResponseWriter, r *http.Request) {
	var p policy.Policy
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid JSON body")
		return
	}
	if err := h.policies.Set(r.Context(), p); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// RecentUsage returns the newest usage records.
func (h *Handler) RecentUsage(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 10)
	records, err := h.ledger.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to read usage ledger")
		writeError(w, http.StatusServiceUnavailable, "storage_unavailable", "Usage ledger unavailable")
		return
	}
	writeRecords(w, records)
}

// UsageByModel returns all usage records for one model.
func (h *Handler) UsageByModel(w http.ResponseWriter, r *http.Request) {
	model := chi.URLParam(r, "model")
	records, err := h.ledger.ByModel(r.Context(), model)
	if err != nil {
		h.logger.Error().Err(err).Str("model", model).Msg("failed to read usage ledger")
		writeError(w, http.StatusServiceUnavailable, "storage_unavailable", "Usage ledger unavailable")
		return
	}
	writeRecords(w, records)
}

// UsageByClient returns all usage records for one client.
func (h *Handler) UsageByClient(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")
	records, err := h.ledger.ByClient(r.Context(), clientID)
	if err != nil {
		h.logger.Error().Err(err).Str("client", clientID).Msg("failed to read usage ledger")
		writeError(w, http.StatusServiceUnavailable, "storage_unavailable", "Usage ledger unavailable")
		return
	}
	writeRecords(w, records)
}

// ClientStats returns in-memory per-client aggregates for the current
// process lifetime.
func (h *Handler) ClientStats(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")
	stats := h.tracker.Stats(clientID)
	usage := h.tracker.Summary(clientID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"client_id":     clientID,
		"total_tokens":  stats.TotalTokens,
		"request_count": stats.RequestCount,
		"avg_tokens":    stats.AvgTokens,
		"usage":         usage,
	})
}
