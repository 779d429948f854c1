package observability

import (
	"context"
	"testing"
)

func TestSetupDefaultAgentHost(t *testing.T) {
	ctx := context.Background()

	shutdown, err := Setup(ctx, Config{
		Environment: "test",
		ServiceName: "kolmo-test",
	})
	if err != nil {
		t.Fatalf("Setup() error: %v", err)
	}
	if shutdown == nil {
		t.Fatal("Setup() returned nil shutdown")
	}

	// No agent is listening in tests; shutdown must still not hang or panic.
	shutdownCtx, cancel := context.WithCancel(ctx)
	cancel()
	_ = shutdown(shutdownCtx)
}

func TestSetupCustomHost(t *testing.T) {
	ctx := context.Background()

	shutdown, err := Setup(ctx, Config{
		AgentHost:   "localhost:14318",
		Environment: "test",
		ServiceName: "kolmo-test",
	})
	if err != nil {
		t.Fatalf("Setup() error: %v", err)
	}

	shutdownCtx, cancel := context.WithCancel(ctx)
	cancel()
	_ = shutdown(shutdownCtx)
}
