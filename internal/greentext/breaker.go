package greentext

import (
	"context"

	"github.com/edgard/diary/internal/resilience"
)

// BreakerGenerator skips the wrapped generator while its circuit is open, so
// a dead upstream costs submissions nothing but the fallback.
type BreakerGenerator struct {
	next    Generator
	breaker *resilience.CircuitBreaker
}

// NewBreakerGenerator wraps next in breaker.
func NewBreakerGenerator(next Generator, breaker *resilience.CircuitBreaker) *BreakerGenerator {
	return &BreakerGenerator{next: next, breaker: breaker}
}

// Generate calls the wrapped generator at most once.
func (g *BreakerGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return g.breaker.Execute(ctx, func(ctx context.Context) (string, error) {
		return g.next.Generate(ctx, prompt)
	})
}
