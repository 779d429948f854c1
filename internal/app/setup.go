package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/firebase/genkit/go/plugins/ollama"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kolmobuild/kolmo/db"
	"github.com/kolmobuild/kolmo/internal/config"
	"github.com/kolmobuild/kolmo/internal/embed"
	"github.com/kolmobuild/kolmo/internal/fact"
	"github.com/kolmobuild/kolmo/internal/observability"
)

// Setup creates and initializes the application.
// Returns an App with embedded cleanup state; call Close() to release.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, retErr error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	a := &App{Config: cfg, Logger: logger}

	// On error, release everything already initialized.
	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	// Tracing must be registered before Genkit initialization so the
	// TracerProvider picks up the exporter.
	a.otelCleanup = provideTracing(ctx, cfg, logger)

	pool, err := provideDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.Pool = pool

	g, err := provideGenkit(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	embedder := provideEmbedder(g, cfg)
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not found for provider %q", cfg.EmbedderModel, cfg.Provider)
	}
	a.Embedder = embedder

	facts, err := provideFactService(pool, embedder, logger)
	if err != nil {
		return nil, err
	}
	a.Facts = facts

	_, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	return a, nil
}

// provideTracing wires the OTLP exporter and returns a flush function.
// Exporter failure downgrades to no-op tracing rather than failing startup.
func provideTracing(ctx context.Context, cfg *config.Config, logger *slog.Logger) func() {
	shutdown, err := observability.Setup(ctx, observability.Config{
		AgentHost:   cfg.Tracing.AgentHost,
		Environment: cfg.Tracing.Environment,
		ServiceName: cfg.Tracing.ServiceName,
	})
	if err != nil || shutdown == nil {
		return func() {}
	}

	//nolint:contextcheck // Shutdown runs during teardown when the parent context is canceled
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.Warn("shutting down tracer provider", "error", err)
		}
	}
}

// provideDBPool runs migrations and creates a PostgreSQL connection pool.
func provideDBPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, nil
}

// provideGenkit initializes Genkit with the configured embedding provider.
// Supports gemini (default) and ollama.
func provideGenkit(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*genkit.Genkit, error) {
	switch cfg.Provider {
	case config.ProviderOllama:
		ollamaPlugin := &ollama.Ollama{ServerAddress: cfg.OllamaHost}
		g := genkit.Init(ctx, genkit.WithPlugins(ollamaPlugin))
		if g == nil {
			return nil, errors.New("initializing genkit with ollama provider")
		}
		// Ollama requires explicit embedder registration (no auto-discovery)
		ollamaPlugin.DefineEmbedder(g, cfg.OllamaHost, cfg.EmbedderModel, nil)
		logger.Info("initialized genkit with ollama provider",
			"embedder", cfg.EmbedderModel, "host", cfg.OllamaHost)
		return g, nil

	default: // gemini
		g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with gemini provider")
		}
		logger.Info("initialized genkit with gemini provider", "embedder", cfg.EmbedderModel)
		return g, nil
	}
}

// provideEmbedder looks up the embedder registered by the provider plugin.
// Ollama keys embedders by server address; gemini by model name.
func provideEmbedder(g *genkit.Genkit, cfg *config.Config) ai.Embedder {
	switch cfg.Provider {
	case config.ProviderOllama:
		return ollama.Embedder(g, cfg.OllamaHost)
	default:
		return googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	}
}

// provideFactService builds the fact memory stack: store, embedding
// provider behind a circuit breaker, search engine, resolver, facade.
func provideFactService(pool *pgxpool.Pool, embedder ai.Embedder, logger *slog.Logger) (*fact.Service, error) {
	genkitProvider, err := embed.NewGenkit(embedder)
	if err != nil {
		return nil, fmt.Errorf("creating embedding provider: %w", err)
	}
	provider := embed.NewBreaker(genkitProvider, "embedder", logger.With("component", "breaker"))

	store, err := fact.NewStore(pool, logger.With("component", "store"))
	if err != nil {
		return nil, fmt.Errorf("creating fact store: %w", err)
	}

	engine, err := fact.NewEngine(store, provider, logger.With("component", "search"))
	if err != nil {
		return nil, fmt.Errorf("creating search engine: %w", err)
	}

	resolver, err := fact.NewResolver(store, provider, logger.With("component", "resolver"))
	if err != nil {
		return nil, fmt.Errorf("creating resolver: %w", err)
	}

	svc, err := fact.NewService(store, resolver, engine)
	if err != nil {
		return nil, fmt.Errorf("creating fact service: %w", err)
	}
	return svc, nil
}
