package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/soyeahso/lexidrill/internal/domain"
	"github.com/soyeahso/lexidrill/internal/logging"
)

// OllamaClient talks to a local Ollama daemon over its /api/generate endpoint.
type OllamaClient struct {
	baseURL     string
	model       string
	maxAttempts int
	client      *http.Client
	log         *logging.Logger
}

// NewOllamaClient creates a new Ollama client.
// baseURL should be like "http://localhost:11434".
func NewOllamaClient(baseURL, model string, maxAttempts int, log *logging.Logger) *OllamaClient {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	return &OllamaClient{
		baseURL:     baseURL,
		model:       model,
		maxAttempts: maxAttempts,
		client:      &http.Client{Timeout: 120 * time.Second},
		log:         log,
	}
}

// Name returns the provider name.
func (o *OllamaClient) Name() string { return "ollama" }

// GenerateOpener produces the tutor's opening line for a fresh session.
func (o *OllamaClient) GenerateOpener(ctx context.Context, topic string, vocab []string, level string) (string, error) {
	return o.generate(ctx, openerPrompt(topic, vocab, level))
}

// TutorReply produces the tutor's next turn.
func (o *OllamaClient) TutorReply(ctx context.Context, session *domain.Session, studentText string, used, missing []string) (string, error) {
	return o.generate(ctx, tutorPrompt(session, studentText, missing))
}

func (o *OllamaClient) generate(ctx context.Context, prompt string) (string, error) {
	var text string
	err := withRetry(ctx, o.log, o.maxAttempts, func() error {
		var err error
		text, err = o.complete(ctx, prompt)
		return err
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (o *OllamaClient) complete(ctx context.Context, prompt string) (string, error) {
	body := map[string]interface{}{
		"model":  o.model,
		"prompt": prompt,
		"stream": false,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST",
		fmt.Sprintf("%s/api/generate", o.baseURL), strings.NewReader(string(payload)))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(httpReq)
	if err != nil {
		if IsUpstreamTimeout(err) {
			return "", &UpstreamError{Provider: o.Name(), Status: 0, Snippet: "request timed out"}
		}
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &UpstreamError{Provider: o.Name(), Status: resp.StatusCode, Snippet: snip(string(respBody), 200)}
	}

	var result ollamaResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	return result.Response, nil
}

// Ping checks that the daemon answers and knows the configured model.
func (o *OllamaClient) Ping(ctx context.Context) PingResult {
	start := time.Now()
	res := PingResult{Provider: o.Name()}

	httpReq, err := http.NewRequestWithContext(ctx, "GET", o.baseURL+"/api/tags", nil)
	if err != nil {
		res.Reason = err.Error()
		return res
	}

	resp, err := o.client.Do(httpReq)
	if err != nil {
		res.Reason = snip(err.Error(), 200)
		return res
	}
	defer resp.Body.Close()
	res.Latency = time.Since(start)
	res.HTTPStatus = resp.StatusCode

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		res.Reason = snip(string(body), 200)
		return res
	}

	res.OK = true
	res.Details = "model " + o.model
	return res
}

type ollamaResponse struct {
	Model     string `json:"model"`
	CreatedAt string `json:"created_at"`
	Response  string `json:"response"`
	Done      bool   `json:"done"`
}
