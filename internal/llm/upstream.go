package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// UpstreamError reports a failed call to an LLM or OAuth provider. Status is
// the HTTP status the provider answered with (0 for transport failures), and
// Snippet carries a truncated piece of the response body for diagnostics.
type UpstreamError struct {
	Provider string
	Status   int
	Snippet  string
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("upstream %s: transport failure: %s", e.Provider, e.Snippet)
	}
	return fmt.Sprintf("upstream %s: HTTP %d: %s", e.Provider, e.Status, e.Snippet)
}

// IsRateLimit reports whether the provider throttled us.
func (e *UpstreamError) IsRateLimit() bool { return e.Status == 429 }

// IsAuth reports whether the provider rejected our credentials.
func (e *UpstreamError) IsAuth() bool { return e.Status == 401 || e.Status == 403 }

// IsServer reports a provider-side failure.
func (e *UpstreamError) IsServer() bool { return e.Status >= 500 }

// retryable errors are worth another attempt: throttling, server failures
// and transport-level timeouts.
func (e *UpstreamError) retryable() bool {
	return e.IsRateLimit() || e.IsServer() || e.Status == 0
}

// IsUpstreamTimeout reports whether err is a timeout talking to a provider,
// either a deadline expiry or a network timeout.
func IsUpstreamTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// snip truncates a response body for error messages and logs.
func snip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
