package llmport

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimited wraps a Port with an in-process token bucket, bounding how
// often investigator stages can call out to a hosted model. This replaces
// the original system's Redis-backed proactive limiter: Redis in this
// module is reserved for mesh-scout caching, and a per-process limiter is
// sufficient since the brain orchestrator runs one incident at a time.
type RateLimited struct {
	inner   Port
	limiter *rate.Limiter
}

// NewRateLimited builds a RateLimited decorator allowing ratePerSecond
// calls per second with a burst of burst.
func NewRateLimited(inner Port, ratePerSecond float64, burst int) *RateLimited {
	return &RateLimited{inner: inner, limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst)}
}

func (r *RateLimited) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return r.inner.Generate(ctx, systemPrompt, userPrompt)
}

func (r *RateLimited) GenerateJSON(ctx context.Context, systemPrompt, userPrompt string, out any) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}
	return r.inner.GenerateJSON(ctx, systemPrompt, userPrompt, out)
}
