// Package bootstrap wires adapters, services, and the HTTP server into a
// runnable application.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/artpar/llmgate/adapters/auth"
	"github.com/artpar/llmgate/adapters/backend"
	"github.com/artpar/llmgate/adapters/clock"
	gatehttp "github.com/artpar/llmgate/adapters/http"
	"github.com/artpar/llmgate/adapters/idgen"
	"github.com/artpar/llmgate/adapters/memory"
	"github.com/artpar/llmgate/adapters/metrics"
	"github.com/artpar/llmgate/adapters/selector"
	"github.com/artpar/llmgate/adapters/snapshot"
	"github.com/artpar/llmgate/adapters/sqlite"
	"github.com/artpar/llmgate/app"
	"github.com/artpar/llmgate/config"
	"github.com/artpar/llmgate/domain/policy"
	"github.com/artpar/llmgate/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// App is the assembled application.
type App struct {
	Config     *config.Config
	Logger     zerolog.Logger
	DB         *sqlite.DB
	Ledger     ports.Ledger
	Policies   ports.PolicyStore
	Tracker    ports.Tracker
	Registry   *app.RegistryService
	Pipeline   *app.PromptService
	Metrics    *metrics.Collector
	HTTPServer *http.Server

	backend       ports.Backend
	backendCloser func()
}

// New assembles the application from configuration.
func New(cfg *config.Config) (*App, error) {
	logger := SetupLogger(cfg.Logging)

	a := &App{
		Config: cfg,
		Logger: logger,
	}

	db, err := sqlite.Open(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	a.DB = db
	a.Ledger = sqlite.NewLedgerStore(db)
	logger.Info().Str("dsn", cfg.Database.DSN).Msg("usage ledger ready")

	a.Policies = memory.NewPolicyStore(policy.Policy{MaxTokens: cfg.Policy.DefaultMaxTokens})
	if err := seedPolicies(a.Policies, cfg.Policy.Clients); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed policies: %w", err)
	}
	a.Tracker = memory.NewTracker()

	a.Registry = app.NewRegistryService(snapshot.NewFileStore(cfg.Registry.SnapshotPath))
	if err := a.Registry.Load(context.Background()); err != nil {
		logger.Warn().Err(err).Msg("registry snapshot load failed, starting empty")
	}
	for _, m := range cfg.Models {
		if err := a.Registry.Register(m.Name, m.Version, m.Alias); err != nil {
			db.Close()
			return nil, fmt.Errorf("register model %q: %w", m.Name, err)
		}
	}
	logger.Info().Int("models", a.Registry.Len()).Msg("model registry ready")

	if cfg.Metrics.Enabled {
		a.Metrics = metrics.New()
		a.Metrics.RegistryModels.Set(float64(a.Registry.Len()))
	}

	if err := a.initBackend(); err != nil {
		db.Close()
		return nil, err
	}

	a.Pipeline = app.NewPromptService(app.PromptDeps{
		Ledger:   a.Ledger,
		Policies: a.Policies,
		Tracker:  a.Tracker,
		Registry: a.Registry,
		Backend:  a.backend,
		Selector: buildSelector(cfg.Backend),
		Clock:    clock.Real{},
		IDGen:    idgen.UUID{},
		Logger:   logger,
		Metrics:  a.Metrics,
	}, app.PromptConfig{
		DefaultModel:   cfg.Backend.DefaultModel,
		FallbackModel:  cfg.Backend.FallbackModel,
		BackendTimeout: cfg.Backend.Timeout,
	})

	a.initHTTPServer()
	return a, nil
}

func (a *App) initBackend() error {
	cfg := a.Config.Backend
	switch cfg.Kind {
	case "ollama":
		ollama := backend.NewOllama(backend.OllamaConfig{
			BaseURL:         cfg.URL,
			MaxIdleConns:    cfg.MaxIdleConns,
			IdleConnTimeout: cfg.IdleConnTimeout,
		})
		a.backend = ollama
		a.backendCloser = ollama.Close
		a.Logger.Info().Str("url", cfg.URL).Msg("ollama backend configured")
	default:
		a.backend = backend.NewSimulated()
		a.Logger.Info().Msg("simulated backend configured")
	}
	return nil
}

func (a *App) initHTTPServer() {
	cfg := a.Config

	if cfg.Auth.JWTSecret == "" {
		a.Logger.Warn().Msg("auth.jwt_secret is empty, tokens are trivially forgeable")
	}

	var metricsHandler http.Handler
	if a.Metrics != nil {
		metricsHandler = promhttp.HandlerFor(
			prometheus.DefaultGatherer,
			promhttp.HandlerOpts{},
		)
	}

	handler := gatehttp.NewHandler(gatehttp.Deps{
		Pipeline:        a.Pipeline,
		Ledger:          a.Ledger,
		Policies:        a.Policies,
		Tracker:         a.Tracker,
		Registry:        a.Registry,
		Backend:         a.backend,
		Verifier:        auth.NewVerifier(cfg.Auth.JWTSecret),
		Issuer:          auth.NewIssuer(cfg.Auth.JWTSecret),
		TokenTTL:        cfg.Auth.TokenTTL,
		Logger:          a.Logger,
		Metrics:         a.Metrics,
		ClientAllowlist: cfg.Metrics.ClientAllowlist,
		MetricsHandler:  metricsHandler,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	a.HTTPServer = &http.Server{
		Addr:         addr,
		Handler:      handler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	a.Logger.Info().Str("addr", addr).Msg("http server configured")
}

// ApplyDynamic applies the hot-reloadable parts of a fresh configuration to
// the running application. Non-reloadable fields are ignored.
func (a *App) ApplyDynamic(cfg *config.Config) {
	a.Pipeline.UpdateConfig(cfg.Backend.DefaultModel, cfg.Backend.FallbackModel, cfg.Backend.Timeout)

	ctx := context.Background()
	if err := a.Policies.Set(ctx, policy.Policy{
		ClientID:  policy.DefaultClientID,
		MaxTokens: cfg.Policy.DefaultMaxTokens,
	}); err != nil {
		a.Logger.Error().Err(err).Msg("failed to update default policy")
	}
	if err := seedPolicies(a.Policies, cfg.Policy.Clients); err != nil {
		a.Logger.Error().Err(err).Msg("failed to update client policies")
	}

	if level, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
		zerolog.SetGlobalLevel(level)
	}
	a.Logger.Info().Msg("dynamic configuration applied")
}

// Run starts the HTTP server and blocks until shutdown.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().
			Str("addr", a.HTTPServer.Addr).
			Msg("starting http server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the application.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
		}
	}

	// The registry lives in memory; persist it so restarts keep the
	// model catalog.
	if a.Registry != nil {
		if err := a.Registry.Save(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("registry snapshot save error")
		}
	}

	if a.backendCloser != nil {
		a.backendCloser()
	}

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("database close error")
		}
	}

	a.Logger.Info().Msg("shutdown complete")
	return nil
}

func seedPolicies(store ports.PolicyStore, clients []config.Client) error {
	ctx := context.Background()
	for _, c := range clients {
		if err := store.Set(ctx, policy.Policy{
			ClientID:      c.ID,
			MaxTokens:     c.MaxTokens,
			BlockedModels: c.BlockedModels,
		}); err != nil {
			return fmt.Errorf("policy for %q: %w", c.ID, err)
		}
	}
	return nil
}

func buildSelector(cfg config.BackendConfig) ports.BackendSelector {
	if cfg.FallbackModel != "" && cfg.FallbackProbability > 0 {
		return selector.NewWeighted(cfg.FallbackProbability, time.Now().UnixNano())
	}
	return selector.Primary{}
}

// SetupLogger builds the process logger from logging configuration.
func SetupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}
