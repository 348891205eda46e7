// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Backend  BackendConfig  `yaml:"backend"`
	Auth     AuthConfig     `yaml:"auth"`
	Policy   PolicyConfig   `yaml:"policy"`
	Registry RegistryConfig `yaml:"registry"`
	Database DatabaseConfig `yaml:"database"`
	Models   []ModelConfig  `yaml:"models"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// BackendConfig configures the LLM backend.
// Kind selects "simulated" for a deterministic in-process backend or
// "ollama" for a local Ollama server.
type BackendConfig struct {
	Kind                string        `yaml:"kind"`
	URL                 string        `yaml:"url"`
	Timeout             time.Duration `yaml:"timeout"`
	DefaultModel        string        `yaml:"default_model"`
	FallbackModel       string        `yaml:"fallback_model"`
	FallbackProbability float64       `yaml:"fallback_probability"`
	MaxIdleConns        int           `yaml:"max_idle_conns"`
	IdleConnTimeout     time.Duration `yaml:"idle_conn_timeout"`
}

// AuthConfig configures bearer token authentication.
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// PolicyConfig configures the fallback usage policy applied to clients
// without a policy of their own.
type PolicyConfig struct {
	DefaultMaxTokens int      `yaml:"default_max_tokens"`
	Clients          []Client `yaml:"clients"`
}

// Client is a per-client policy seeded at startup.
type Client struct {
	ID            string   `yaml:"id"`
	MaxTokens     int      `yaml:"max_tokens"`
	BlockedModels []string `yaml:"blocked_models,omitempty"`
}

// RegistryConfig configures the model registry snapshot.
type RegistryConfig struct {
	SnapshotPath string `yaml:"snapshot_path"`
}

// DatabaseConfig configures the usage ledger database.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// ModelConfig seeds a registry entry at startup.
type ModelConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Alias   string `yaml:"alias,omitempty"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	// ClientAllowlist bounds the client label on request metrics.
	ClientAllowlist []string `yaml:"client_allowlist,omitempty"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// LoadFromEnv creates configuration entirely from environment variables.
// Useful for container deployments where no config file is mounted.
//
// Environment variables:
//
//	LLMGATE_SERVER_HOST          - Server host (default: 0.0.0.0)
//	LLMGATE_SERVER_PORT          - Server port (default: 8080)
//	LLMGATE_BACKEND_KIND         - Backend kind: simulated or ollama (default: simulated)
//	LLMGATE_BACKEND_URL          - Ollama base URL (required for ollama)
//	LLMGATE_BACKEND_TIMEOUT      - Backend invocation timeout (default: 30s)
//	LLMGATE_DEFAULT_MODEL        - Primary model name (default: openai-gpt)
//	LLMGATE_FALLBACK_MODEL       - Fallback model name
//	LLMGATE_FALLBACK_PROBABILITY - Chance of fallback substitution (default: 0)
//	LLMGATE_JWT_SECRET           - Shared secret for bearer tokens
//	LLMGATE_DATABASE_DSN         - Ledger database path (default: llmgate.db)
//	LLMGATE_SNAPSHOT_PATH        - Registry snapshot path (default: registry.json)
//	LLMGATE_DEFAULT_MAX_TOKENS   - Default policy token quota (default: 100)
//	LLMGATE_LOG_LEVEL            - Log level (default: info)
//	LLMGATE_LOG_FORMAT           - Log format: json or console (default: json)
//	LLMGATE_METRICS_ENABLED      - Enable /metrics endpoint (default: true)
func LoadFromEnv() (*Config, error) {
	var cfg Config

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// LoadWithFallback tries to load from file, falling back to environment
// variables when the file does not exist.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return LoadFromEnv()
}

// applyEnvOverrides applies LLMGATE_* environment variables to the config.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LLMGATE_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("LLMGATE_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("LLMGATE_SERVER_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if v := os.Getenv("LLMGATE_SERVER_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}

	if v := os.Getenv("LLMGATE_BACKEND_KIND"); v != "" {
		cfg.Backend.Kind = v
	}
	if v := os.Getenv("LLMGATE_BACKEND_URL"); v != "" {
		cfg.Backend.URL = v
	}
	if v := os.Getenv("LLMGATE_BACKEND_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Backend.Timeout = d
		}
	}
	if v := os.Getenv("LLMGATE_DEFAULT_MODEL"); v != "" {
		cfg.Backend.DefaultModel = v
	}
	if v := os.Getenv("LLMGATE_FALLBACK_MODEL"); v != "" {
		cfg.Backend.FallbackModel = v
	}
	if v := os.Getenv("LLMGATE_FALLBACK_PROBABILITY"); v != "" {
		if p, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Backend.FallbackProbability = p
		}
	}

	if v := os.Getenv("LLMGATE_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("LLMGATE_TOKEN_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Auth.TokenTTL = d
		}
	}

	if v := os.Getenv("LLMGATE_DEFAULT_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Policy.DefaultMaxTokens = n
		}
	}

	if v := os.Getenv("LLMGATE_SNAPSHOT_PATH"); v != "" {
		cfg.Registry.SnapshotPath = v
	}
	if v := os.Getenv("LLMGATE_DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}

	if v := os.Getenv("LLMGATE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LLMGATE_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	if v := os.Getenv("LLMGATE_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv("LLMGATE_METRICS_PATH"); v != "" {
		cfg.Metrics.Path = v
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}

	if cfg.Backend.Kind == "" {
		cfg.Backend.Kind = "simulated"
	}
	if cfg.Backend.Timeout == 0 {
		cfg.Backend.Timeout = 30 * time.Second
	}
	if cfg.Backend.DefaultModel == "" {
		cfg.Backend.DefaultModel = "openai-gpt"
	}
	if cfg.Backend.MaxIdleConns == 0 {
		cfg.Backend.MaxIdleConns = 10
	}
	if cfg.Backend.IdleConnTimeout == 0 {
		cfg.Backend.IdleConnTimeout = 90 * time.Second
	}

	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = time.Hour
	}

	if cfg.Policy.DefaultMaxTokens == 0 {
		cfg.Policy.DefaultMaxTokens = 100
	}

	if cfg.Registry.SnapshotPath == "" {
		cfg.Registry.SnapshotPath = "registry.json"
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "llmgate.db"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

func validate(cfg *Config) error {
	validKinds := map[string]bool{"simulated": true, "ollama": true}
	if !validKinds[cfg.Backend.Kind] {
		return fmt.Errorf("backend.kind must be 'simulated' or 'ollama', got %q", cfg.Backend.Kind)
	}
	if cfg.Backend.Kind == "ollama" && cfg.Backend.URL == "" {
		return fmt.Errorf("backend.url is required when backend.kind is 'ollama'")
	}
	if cfg.Backend.FallbackProbability < 0 || cfg.Backend.FallbackProbability > 1 {
		return fmt.Errorf("backend.fallback_probability must be within [0, 1], got %v", cfg.Backend.FallbackProbability)
	}
	if cfg.Policy.DefaultMaxTokens < 0 {
		return fmt.Errorf("policy.default_max_tokens must not be negative")
	}
	for i, c := range cfg.Policy.Clients {
		if c.ID == "" {
			return fmt.Errorf("policy.clients[%d].id is required", i)
		}
	}
	for i, m := range cfg.Models {
		if m.Name == "" {
			return fmt.Errorf("models[%d].name is required", i)
		}
	}
	return nil
}
