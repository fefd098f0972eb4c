package llm

import (
	"context"

	"github.com/soyeahso/lexidrill/internal/domain"
)

// MockClient is a test double for Client.
type MockClient struct {
	ProviderName       string
	GenerateOpenerFunc func(ctx context.Context, topic string, vocab []string, level string) (string, error)
	TutorReplyFunc     func(ctx context.Context, session *domain.Session, studentText string, used, missing []string) (string, error)
	PingFunc           func(ctx context.Context) PingResult
}

func (m *MockClient) Name() string {
	if m.ProviderName != "" {
		return m.ProviderName
	}
	return "mock"
}

func (m *MockClient) GenerateOpener(ctx context.Context, topic string, vocab []string, level string) (string, error) {
	if m.GenerateOpenerFunc != nil {
		return m.GenerateOpenerFunc(ctx, topic, vocab, level)
	}
	return "mock opener", nil
}

func (m *MockClient) TutorReply(ctx context.Context, session *domain.Session, studentText string, used, missing []string) (string, error) {
	if m.TutorReplyFunc != nil {
		return m.TutorReplyFunc(ctx, session, studentText, used, missing)
	}
	return "mock tutor reply", nil
}

func (m *MockClient) Ping(ctx context.Context) PingResult {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return PingResult{OK: true, Provider: m.Name()}
}
