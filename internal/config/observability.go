package config

// TracingConfig holds OTLP trace export configuration.
//
// Traces are exported over OTLP/HTTP to a local collector agent.
// See internal/observability/tracing.go for detailed setup instructions.
type TracingConfig struct {
	// AgentHost is the OTLP/HTTP collector endpoint (default: localhost:4318)
	AgentHost string `mapstructure:"agent_host"`
	// Environment is the deployment environment tag (default: dev)
	Environment string `mapstructure:"environment"`
	// ServiceName is the service name reported on spans (default: kolmo)
	ServiceName string `mapstructure:"service_name"`
}
