// Package app provides application initialization and dependency wiring.
//
// App is the container that holds every long-lived component: the
// database pool, the Genkit runtime with its embedder, and the fact
// service built on top of them. Setup constructs it in dependency
// order; Close releases resources in reverse.
package app

import (
	"context"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kolmobuild/kolmo/internal/config"
	"github.com/kolmobuild/kolmo/internal/fact"
)

// App is the core application container.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	Genkit   *genkit.Genkit
	Embedder ai.Embedder
	Pool     *pgxpool.Pool

	// Facts is the fact memory facade served by the HTTP API.
	Facts *fact.Service

	otelCleanup func()
	cancel      context.CancelFunc
}

// Close gracefully shuts down all resources.
func (a *App) Close() error {
	a.logger().Info("shutting down application")

	if a.cancel != nil {
		a.cancel()
	}

	if a.Pool != nil {
		a.Pool.Close()
		a.logger().Info("database pool closed")
	}

	// Flush pending spans last so shutdown itself is traced.
	if a.otelCleanup != nil {
		a.otelCleanup()
	}

	return nil
}

func (a *App) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}
