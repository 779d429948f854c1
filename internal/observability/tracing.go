// Package observability wires OpenTelemetry tracing into the service.
//
// Spans are exported over OTLP HTTP to a local collector agent (the
// Datadog Agent with its OTLP receiver enabled, or any OTLP-compatible
// collector listening on the same endpoint). The agent buffers, retries,
// and authenticates; the application never holds backend credentials.
//
// Configuration (~/.kolmo/config.yaml):
//
//	tracing:
//	  agent_host: "localhost:4318"
//	  environment: "dev"
//	  service_name: "kolmo"
//
// Environment overrides: KOLMO_TRACE_AGENT_HOST, KOLMO_TRACE_ENV.
package observability

import (
	"context"
	"log/slog"
	"os"

	"github.com/firebase/genkit/go/core/tracing"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Config for the OTLP trace exporter.
type Config struct {
	// AgentHost is the collector's OTLP HTTP endpoint (default: localhost:4318)
	AgentHost string
	// Environment is the deployment environment (dev, staging, prod)
	Environment string
	// ServiceName is the service name shown in the APM backend
	ServiceName string
}

// DefaultAgentHost is the default OTLP HTTP endpoint of a local agent.
const DefaultAgentHost = "localhost:4318"

// Setup registers an OTLP HTTP exporter with Genkit's TracerProvider,
// so both Genkit flow spans and our own spans reach the agent.
//
// Returns a shutdown function that flushes pending spans. Exporter
// construction failure disables tracing instead of failing startup.
func Setup(ctx context.Context, cfg Config) (shutdown func(context.Context) error, err error) {
	agentHost := cfg.AgentHost
	if agentHost == "" {
		agentHost = DefaultAgentHost
	}

	// Genkit's TracerProvider reads the standard OTEL env vars for its
	// resource attributes.
	if cfg.ServiceName != "" {
		_ = os.Setenv("OTEL_SERVICE_NAME", cfg.ServiceName)
	}
	if cfg.Environment != "" {
		_ = os.Setenv("OTEL_RESOURCE_ATTRIBUTES", "deployment.environment="+cfg.Environment)
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(agentHost),
		otlptracehttp.WithInsecure(), // localhost agent, no TLS
	)
	if err != nil {
		slog.Warn("failed to create trace exporter, tracing disabled", "error", err)
		return func(context.Context) error { return nil }, nil
	}

	processor := sdktrace.NewBatchSpanProcessor(exporter)
	tracing.TracerProvider().RegisterSpanProcessor(processor)

	slog.Debug("tracing enabled",
		"agent", agentHost,
		"service", cfg.ServiceName,
		"environment", cfg.Environment,
	)

	return tracing.TracerProvider().Shutdown, nil
}
