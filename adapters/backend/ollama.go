// Package backend provides LLM backend invocation adapters.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/artpar/llmgate/ports"
)

// OllamaConfig configures the Ollama client.
type OllamaConfig struct {
	BaseURL         string
	MaxIdleConns    int
	IdleConnTimeout time.Duration
}

// Ollama invokes a local Ollama instance over its generate API.
// Timeouts and cancellation come from the caller's context; the underlying
// http.Client carries no timeout of its own.
type Ollama struct {
	baseURL string
	client  *http.Client
}

// NewOllama creates an Ollama backend client.
func NewOllama(cfg OllamaConfig) *Ollama {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 100
	}
	if cfg.IdleConnTimeout == 0 {
		cfg.IdleConnTimeout = 90 * time.Second
	}

	return &Ollama{
		baseURL: cfg.BaseURL,
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:    cfg.MaxIdleConns,
				IdleConnTimeout: cfg.IdleConnTimeout,
			},
		},
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Invoke sends the prompt to Ollama and returns the generated text.
func (o *Ollama) Invoke(ctx context.Context, model, prompt string) (ports.Completion, error) {
	body, err := json.Marshal(generateRequest{Model: model, Prompt: prompt, Stream: false})
	if err != nil {
		return ports.Completion{}, fmt.Errorf("encode generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return ports.Completion{}, fmt.Errorf("build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return ports.Completion{}, fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ports.Completion{}, fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return ports.Completion{}, fmt.Errorf("decode generate response: %w", err)
	}

	return ports.Completion{Text: out.Response}, nil
}

// Close releases idle connections.
func (o *Ollama) Close() {
	o.client.CloseIdleConnections()
}

// Ensure interface compliance.
var _ ports.Backend = (*Ollama)(nil)
