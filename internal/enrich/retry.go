package enrich

import (
	"errors"
	"math/rand/v2"
	"time"

	"github.com/shikhar5647/scene-graph-agent/internal/llm"
)

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *llm.RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter. A
// Retry-After hint from the provider wins when it asks for a longer wait.
func Backoff(attempt int, err error) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	var retryErr *llm.RetryableError
	if errors.As(err, &retryErr) && retryErr.RetryAfter > base {
		base = retryErr.RetryAfter
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

const MaxRetries = 3
