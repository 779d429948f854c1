package embed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// Breaker wraps a Provider with a circuit breaker so a flapping
// provider trips open and search degrades to keyword mode immediately
// instead of paying the timeout on every request. An open circuit
// reports ErrUnavailable like any other provider failure.
type Breaker struct {
	provider Provider
	cb       *gobreaker.CircuitBreaker
}

// NewBreaker creates a circuit-breaking provider. The breaker trips
// when at least 3 requests in the rolling window have failed at a 60%
// ratio, and probes again after 30 seconds.
func NewBreaker(provider Provider, name string, logger *slog.Logger) *Breaker {
	if logger == nil {
		logger = slog.Default()
	}

	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("embedding circuit breaker state change",
				"name", name, "from", from.String(), "to", to.String())
		},
	}

	return &Breaker{provider: provider, cb: gobreaker.NewCircuitBreaker(st)}
}

// Embed implements Provider.
func (b *Breaker) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := b.cb.Execute(func() (any, error) {
		return b.provider.Embed(ctx, text)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("circuit open: %w", ErrUnavailable)
		}
		return nil, err
	}
	return vec.([]float32), nil
}
