package embeddings

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"newsrag/config"
	"newsrag/types"
)

// Provider abstracts a text->embedding generator.
// Implementations return one embedding vector per input text, in input order.
type Provider interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	ModelName() string
	Dimension() int
}

// NewDefaultProvider returns an embeddings provider based on environment
// configuration: Cohere when COHERE_API_KEY is set, Jina when JINA_API_KEY
// is set, otherwise nil.
func NewDefaultProvider(preferredModel string) Provider {
	if key := os.Getenv("COHERE_API_KEY"); key != "" {
		return NewCohereProvider(key, preferredModel)
	}
	if key := os.Getenv("JINA_API_KEY"); key != "" {
		return NewJinaProvider(key, preferredModel)
	}
	return nil
}

// rateLimited marks errors that must not be retried blindly (auth failures,
// rate limits). Transient network errors stay retryable.
type rateLimited struct{ err error }

func (r rateLimited) Error() string { return r.err.Error() }
func (r rateLimited) Unwrap() error { return r.err }

// IsRateLimited reports whether err is a rate-limit or auth rejection
// rather than a transient failure.
func IsRateLimited(err error) bool {
	var rl rateLimited
	return errors.As(err, &rl)
}

// EmbedWithRetry calls the provider with the configured retry budget,
// backing off between attempts. Rate-limit and auth errors are surfaced
// immediately; transient errors retry up to config.MaxRetries times.
func EmbedWithRetry(ctx context.Context, p Provider, texts []string) ([][]float32, error) {
	var lastErr error
	backoff := config.RetryBackoff

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		if attempt > 0 {
			log.Printf("Retrying embed request (attempt %d/%d) after %v", attempt, config.MaxRetries, backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, fmt.Errorf("embed canceled: %w", types.ErrDownstreamTimeout)
			}
			backoff *= 2
		}

		vectors, err := p.EmbedTexts(ctx, texts)
		if err == nil {
			return vectors, nil
		}
		if IsRateLimited(err) {
			return nil, fmt.Errorf("embedding provider rejected request: %w", err)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			lastErr = fmt.Errorf("%w: %v", types.ErrDownstreamTimeout, err)
			continue
		}
		lastErr = err
	}

	return nil, fmt.Errorf("%w: embeddings failed after %d retries: %v",
		types.ErrDownstreamUnavailable, config.MaxRetries, lastErr)
}
