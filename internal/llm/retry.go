package llm

import (
	"context"
	"errors"
	"time"

	"github.com/soyeahso/lexidrill/internal/logging"
)

const (
	defaultMaxAttempts = 3
	baseBackoff        = 500 * time.Millisecond
	maxBackoff         = 4 * time.Second
)

// withRetry runs fn up to maxAttempts times, backing off between attempts.
// Only throttling (429), server errors (5xx) and transport timeouts are
// retried; auth and client errors fail immediately. The orchestrator above
// this layer never retries, so this is the single retry point for provider
// calls.
func withRetry(ctx context.Context, log *logging.Logger, maxAttempts int, fn func() error) error {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !shouldRetry(err) || attempt == maxAttempts {
			return err
		}

		delay := backoff(attempt)
		log.Warn().
			Err(err).
			Int("attempt", attempt).
			Dur("backoff", delay).
			Msg("upstream call failed, retrying")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func shouldRetry(err error) bool {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.retryable()
	}
	return IsUpstreamTimeout(err)
}

// backoff doubles per attempt and is capped at maxBackoff.
func backoff(attempt int) time.Duration {
	d := baseBackoff << (attempt - 1)
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}
