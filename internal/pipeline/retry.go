package pipeline

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/dgallion1/docview/internal/source"
)

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

const MaxRetries = 3

// RetrySource retries transient source failures with jittered backoff.
type RetrySource struct {
	src  source.Source
	log  *slog.Logger
	wait func(attempt int) time.Duration
}

func NewRetrySource(src source.Source, log *slog.Logger) *RetrySource {
	return &RetrySource{src: src, log: log, wait: Backoff}
}

func (s *RetrySource) Open(ctx context.Context, p string) ([]byte, error) {
	var (
		data    []byte
		lastErr error
	)
	for attempt := range MaxRetries {
		data, lastErr = s.src.Open(ctx, p)
		if lastErr == nil || !source.IsRetryable(lastErr) {
			return data, lastErr
		}
		if attempt == MaxRetries-1 {
			break
		}
		s.log.Warn("retryable fetch error", "path", p, "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(s.wait(attempt)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}
