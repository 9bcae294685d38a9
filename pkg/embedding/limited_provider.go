package embedding

import (
	"context"

	"curriculum-rag-be/internal/pkg/apperror"

	"golang.org/x/time/rate"
)

// LimitedProvider spaces out embedding calls with a token bucket so a large
// ingestion batch stays under the provider's rate limit.
type LimitedProvider struct {
	next    EmbeddingProvider
	limiter *rate.Limiter
}

// NewLimitedProvider returns next unchanged when requestsPerSecond <= 0.
func NewLimitedProvider(next EmbeddingProvider, requestsPerSecond float64, burst int) EmbeddingProvider {
	if requestsPerSecond <= 0 {
		return next
	}
	if burst <= 0 {
		burst = 1
	}
	return &LimitedProvider{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

func (p *LimitedProvider) ModelName() string {
	return p.next.ModelName()
}

func (p *LimitedProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, apperror.Wrap(apperror.KindProvider, err, "embedding rate limiter")
	}
	return p.next.Generate(ctx, text, taskType)
}
