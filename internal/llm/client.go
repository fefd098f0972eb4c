// Package llm defines the tutor-side LLM port and its HTTP provider clients.
//
// Providers are consumed as opaque text generators: the orchestrator hands
// over a session snapshot plus coverage state and gets back free text. All
// provider calls happen outside any database transaction, so a slow model
// never holds locks.
package llm

import (
	"context"
	"time"

	"github.com/soyeahso/lexidrill/internal/domain"
)

// Client is the interface all LLM providers implement.
type Client interface {
	// GenerateOpener produces the tutor's opening line for a fresh session.
	GenerateOpener(ctx context.Context, topic string, vocab []string, level string) (string, error)

	// TutorReply produces the tutor's next turn given the session snapshot,
	// the latest student text and the session-wide coverage split.
	TutorReply(ctx context.Context, session *domain.Session, studentText string, used, missing []string) (string, error)

	// Ping checks provider reachability and auth. It never returns an
	// error; failures are reported in the result.
	Ping(ctx context.Context) PingResult

	// Name returns the provider name (e.g., "ollama", "gigachat").
	Name() string
}

// PingResult reports provider health.
type PingResult struct {
	OK         bool          `json:"ok"`
	Provider   string        `json:"provider"`
	Latency    time.Duration `json:"latency,omitempty"`
	Details    string        `json:"details,omitempty"`
	Reason     string        `json:"reason,omitempty"`
	HTTPStatus int           `json:"httpStatus,omitempty"`
}

// FallbackOpener is used when a provider returns a blank opening line.
const FallbackOpener = "Let's start with something simple—what comes to mind first?"
