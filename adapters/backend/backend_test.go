package backend_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/artpar/llmgate/adapters/backend"
)

func TestSimulatedEchoesWithAttribution(t *testing.T) {
	b := backend.NewSimulated()

	got, err := b.Invoke(context.Background(), "llama3", "hello")
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	want := "[llama3] Answer to: hello"
	if got.Text != want {
		t.Errorf("Text = %q, want %q", got.Text, want)
	}
}

func TestSimulatedHonorsCancellation(t *testing.T) {
	b := backend.NewSimulated()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := b.Invoke(ctx, "m", "p"); err == nil {
		t.Error("invoke with cancelled context should fail")
	}
}

func TestOllamaInvoke(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("path = %q, want /api/generate", r.URL.Path)
		}
		var req struct {
			Model  string `json:"model"`
			Prompt string `json:"prompt"`
			Stream bool   `json:"stream"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "llama3" || req.Prompt != "hi" || req.Stream {
			t.Errorf("unexpected request: %+v", req)
		}
		json.NewEncoder(w).Encode(map[string]string{"response": "hello back"})
	}))
	defer srv.Close()

	b := backend.NewOllama(backend.OllamaConfig{BaseURL: srv.URL})
	defer b.Close()

	got, err := b.Invoke(context.Background(), "llama3", "hi")
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if got.Text != "hello back" {
		t.Errorf("Text = %q, want %q", got.Text, "hello back")
	}
}

func TestOllamaErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	b := backend.NewOllama(backend.OllamaConfig{BaseURL: srv.URL})
	defer b.Close()

	if _, err := b.Invoke(context.Background(), "m", "p"); err == nil {
		t.Error("invoke against failing upstream should error")
	}
}

func TestOllamaRespectsDeadline(t *testing.T) {
	blocked := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	}))
	defer srv.Close()
	defer close(blocked)

	b := backend.NewOllama(backend.OllamaConfig{BaseURL: srv.URL})
	defer b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := b.Invoke(ctx, "m", "p")
	if err == nil {
		t.Fatal("invoke should time out")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("invoke blocked for %v despite deadline", elapsed)
	}
}
