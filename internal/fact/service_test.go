package fact

import (
	"context"
	"testing"

	"github.com/kolmobuild/kolmo/internal/embed"
	"github.com/kolmobuild/kolmo/internal/log"
)

func TestConstructorsRequireDeps(t *testing.T) {
	logger := log.NewNop()
	provider := embed.ProviderFunc(func(context.Context, string) ([]float32, error) {
		return nil, nil
	})

	if _, err := NewStore(nil, logger); err == nil {
		t.Error("NewStore(nil pool) expected error")
	}
	if _, err := NewEngine(nil, provider, logger); err == nil {
		t.Error("NewEngine(nil store) expected error")
	}
	if _, err := NewResolver(nil, provider, logger); err == nil {
		t.Error("NewResolver(nil store) expected error")
	}
	if _, err := NewService(nil, nil, nil); err == nil {
		t.Error("NewService(nil deps) expected error")
	}
}
