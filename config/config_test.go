package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "llmgate.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "backend:\n  kind: simulated\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 8080 {
		t.Errorf("server = %+v, want defaults", cfg.Server)
	}
	if cfg.Backend.Timeout != 30*time.Second {
		t.Errorf("backend timeout = %v, want 30s", cfg.Backend.Timeout)
	}
	if cfg.Backend.DefaultModel != "openai-gpt" {
		t.Errorf("default model = %q", cfg.Backend.DefaultModel)
	}
	if cfg.Policy.DefaultMaxTokens != 100 {
		t.Errorf("default max tokens = %d, want 100", cfg.Policy.DefaultMaxTokens)
	}
	if cfg.Database.DSN != "llmgate.db" {
		t.Errorf("dsn = %q", cfg.Database.DSN)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("logging = %+v, want defaults", cfg.Logging)
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("metrics path = %q", cfg.Metrics.Path)
	}
}

func TestLoadFullFile(t *testing.T) {
	path := writeConfig(t, `
server:
  host: 127.0.0.1
  port: 9090
backend:
  kind: ollama
  url: http://localhost:11434
  timeout: 10s
  default_model: openai-gpt
  fallback_model: local-llama
  fallback_probability: 0.3
auth:
  jwt_secret: sekret
  token_ttl: 30m
policy:
  default_max_tokens: 50
  clients:
    - id: acme
      max_tokens: 200
      blocked_models: [expensive-model]
registry:
  snapshot_path: /var/lib/llmgate/registry.json
database:
  dsn: /var/lib/llmgate/usage.db
models:
  - name: openai-gpt
    version: "4"
    alias: gpt
logging:
  level: debug
  format: console
metrics:
  enabled: true
  client_allowlist: [acme, beta]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Backend.Kind != "ollama" || cfg.Backend.URL != "http://localhost:11434" {
		t.Errorf("backend = %+v", cfg.Backend)
	}
	if cfg.Backend.FallbackProbability != 0.3 {
		t.Errorf("fallback probability = %v", cfg.Backend.FallbackProbability)
	}
	if cfg.Auth.JWTSecret != "sekret" || cfg.Auth.TokenTTL != 30*time.Minute {
		t.Errorf("auth = %+v", cfg.Auth)
	}
	if len(cfg.Policy.Clients) != 1 || cfg.Policy.Clients[0].MaxTokens != 200 {
		t.Errorf("clients = %+v", cfg.Policy.Clients)
	}
	if len(cfg.Models) != 1 || cfg.Models[0].Alias != "gpt" {
		t.Errorf("models = %+v", cfg.Models)
	}
	if len(cfg.Metrics.ClientAllowlist) != 2 {
		t.Errorf("allowlist = %+v", cfg.Metrics.ClientAllowlist)
	}
}

func TestLoadRejectsBadBackendKind(t *testing.T) {
	path := writeConfig(t, "backend:\n  kind: carrier-pigeon\n")
	if _, err := Load(path); err == nil {
		t.Error("unknown backend kind must fail validation")
	}
}

func TestLoadRequiresOllamaURL(t *testing.T) {
	path := writeConfig(t, "backend:\n  kind: ollama\n")
	if _, err := Load(path); err == nil {
		t.Error("ollama backend without url must fail validation")
	}
}

func TestLoadRejectsBadProbability(t *testing.T) {
	path := writeConfig(t, "backend:\n  kind: simulated\n  fallback_probability: 1.5\n")
	if _, err := Load(path); err == nil {
		t.Error("probability outside [0,1] must fail validation")
	}
}

func TestLoadRejectsClientWithoutID(t *testing.T) {
	path := writeConfig(t, "policy:\n  clients:\n    - max_tokens: 5\n")
	if _, err := Load(path); err == nil {
		t.Error("policy client without id must fail validation")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LLMGATE_SERVER_PORT", "7070")
	t.Setenv("LLMGATE_DEFAULT_MODEL", "local-llama")
	t.Setenv("LLMGATE_FALLBACK_PROBABILITY", "0.5")
	t.Setenv("LLMGATE_METRICS_ENABLED", "yes")

	path := writeConfig(t, "server:\n  port: 9090\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("port = %d, env must override file", cfg.Server.Port)
	}
	if cfg.Backend.DefaultModel != "local-llama" {
		t.Errorf("default model = %q", cfg.Backend.DefaultModel)
	}
	if cfg.Backend.FallbackProbability != 0.5 {
		t.Errorf("fallback probability = %v", cfg.Backend.FallbackProbability)
	}
	if !cfg.Metrics.Enabled {
		t.Error("metrics must be enabled by env override")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("LLMGATE_BACKEND_KIND", "simulated")
	t.Setenv("LLMGATE_JWT_SECRET", "sekret")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("load from env: %v", err)
	}
	if cfg.Auth.JWTSecret != "sekret" {
		t.Errorf("secret = %q", cfg.Auth.JWTSecret)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want default", cfg.Server.Port)
	}
}

func TestLoadWithFallbackPrefersFile(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9191\n")

	cfg, err := LoadWithFallback(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 9191 {
		t.Errorf("port = %d, want file value", cfg.Server.Port)
	}
}

func TestLoadWithFallbackMissingFile(t *testing.T) {
	cfg, err := LoadWithFallback(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Backend.Kind != "simulated" {
		t.Errorf("kind = %q, want env defaults", cfg.Backend.Kind)
	}
}

func TestExpandsEnvInFile(t *testing.T) {
	t.Setenv("TEST_SECRET", "from-env")
	path := writeConfig(t, "auth:\n  jwt_secret: ${TEST_SECRET}\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Auth.JWTSecret != "from-env" {
		t.Errorf("secret = %q, want expansion from environment", cfg.Auth.JWTSecret)
	}
}
