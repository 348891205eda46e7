package config

import (
	"os"
	"testing"

	"github.com/rs/zerolog"
)

func TestHolderGet(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")

	h, err := NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("new holder: %v", err)
	}
	defer h.Stop()

	if h.Get().Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", h.Get().Server.Port)
	}
}

func TestHolderReload(t *testing.T) {
	path := writeConfig(t, "backend:\n  default_model: openai-gpt\n")

	h, err := NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("new holder: %v", err)
	}
	defer h.Stop()

	var notified *Config
	h.OnChange(func(cfg *Config) { notified = cfg })

	if err := os.WriteFile(path, []byte("backend:\n  default_model: local-llama\n"), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	if err := h.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}

	if h.Get().Backend.DefaultModel != "local-llama" {
		t.Errorf("default model = %q after reload", h.Get().Backend.DefaultModel)
	}
	if notified == nil || notified.Backend.DefaultModel != "local-llama" {
		t.Error("OnChange listener must receive the new config")
	}
}

func TestHolderReloadKeepsOldConfigOnError(t *testing.T) {
	path := writeConfig(t, "backend:\n  default_model: openai-gpt\n")

	h, err := NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("new holder: %v", err)
	}
	defer h.Stop()

	if err := os.WriteFile(path, []byte("backend:\n  kind: carrier-pigeon\n"), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	if err := h.Reload(); err == nil {
		t.Fatal("reload of invalid config must fail")
	}

	if h.Get().Backend.DefaultModel != "openai-gpt" {
		t.Error("failed reload must keep the previous config")
	}
}
