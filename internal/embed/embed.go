// Package embed abstracts the external embedding provider. The fact
// engine treats every provider failure uniformly as ErrUnavailable and
// degrades to keyword retrieval; it never inspects failure subtypes.
package embed

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is the uniform failure reported by providers. Auth,
// quota, network, timeout and malformed-response errors all wrap it.
var ErrUnavailable = errors.New("embedding provider unavailable")

// Dimension is the fixed vector size stored in the facts table. Must
// match the pgvector column; see db/migrations.
const Dimension = 768

// Timeout bounds a single embedding call.
const Timeout = 10 * time.Second

// Provider turns text into a fixed-length vector.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, text string) ([]float32, error)

// Embed implements Provider.
func (f ProviderFunc) Embed(ctx context.Context, text string) ([]float32, error) {
	return f(ctx, text)
}
