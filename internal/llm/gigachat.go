package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/soyeahso/lexidrill/internal/domain"
	"github.com/soyeahso/lexidrill/internal/logging"
)

const (
	defaultGigaChatOAuthURL = "https://ngw.devices.sberbank.ru:9443/api/v2/oauth"
	defaultGigaChatAPIURL   = "https://gigachat.devices.sberbank.ru/api/v1"
	defaultGigaChatModel    = "GigaChat-2-Pro"

	// tokenRefreshMargin renews the cached OAuth token slightly before it
	// expires so an in-flight chat call never races the expiry.
	tokenRefreshMargin = 30 * time.Second
)

// gigaChatAuth acquires and caches the GigaChat OAuth access token. The
// token endpoint wants a form-encoded scope, a Basic authorization key and
// a unique RqUID header per request.
type gigaChatAuth struct {
	oauthURL string
	authKey  string
	scope    string
	client   *http.Client

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func (a *gigaChatAuth) validToken(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token != "" && time.Now().Before(a.expiresAt.Add(-tokenRefreshMargin)) {
		return a.token, nil
	}

	form := url.Values{"scope": {a.scope}}
	req, err := http.NewRequestWithContext(ctx, "POST", a.oauthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create oauth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("RqUID", uuid.NewString())
	req.Header.Set("Authorization", "Basic "+a.authKey)

	resp, err := a.client.Do(req)
	if err != nil {
		if IsUpstreamTimeout(err) {
			return "", &UpstreamError{Provider: "gigachat-oauth", Status: 0, Snippet: "request timed out"}
		}
		return "", fmt.Errorf("oauth request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read oauth response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &UpstreamError{Provider: "gigachat-oauth", Status: resp.StatusCode, Snippet: snip(string(body), 800)}
	}

	var tok gigaChatTokenResp
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", fmt.Errorf("failed to parse oauth response: %w", err)
	}

	a.token = tok.AccessToken
	switch {
	case tok.ExpiresAtMs > 0:
		a.expiresAt = time.UnixMilli(tok.ExpiresAtMs)
	case tok.ExpiresInSec > 0:
		a.expiresAt = time.Now().Add(time.Duration(tok.ExpiresInSec) * time.Second)
	default:
		a.expiresAt = time.Now().Add(30 * time.Minute)
	}
	return a.token, nil
}

type gigaChatTokenResp struct {
	AccessToken  string `json:"access_token"`
	ExpiresAtMs  int64  `json:"expires_at"`
	ExpiresInSec int64  `json:"expires_in"`
}

// GigaChatClient talks to Sber's GigaChat chat-completions API.
type GigaChatClient struct {
	apiURL      string
	model       string
	maxAttempts int
	auth        *gigaChatAuth
	client      *http.Client
	log         *logging.Logger
}

// GigaChatOptions carries the optional knobs of NewGigaChatClient. Zero
// values fall back to production defaults; tests override the URLs.
type GigaChatOptions struct {
	OAuthURL    string
	APIURL      string
	Model       string
	MaxAttempts int
}

// NewGigaChatClient creates a client. authKey is the pre-encoded Basic
// credential from the GigaChat cabinet, scope e.g. "GIGACHAT_API_PERS".
func NewGigaChatClient(authKey, scope string, opts GigaChatOptions, log *logging.Logger) *GigaChatClient {
	if opts.OAuthURL == "" {
		opts.OAuthURL = defaultGigaChatOAuthURL
	}
	if opts.APIURL == "" {
		opts.APIURL = defaultGigaChatAPIURL
	}
	if opts.Model == "" {
		opts.Model = defaultGigaChatModel
	}

	httpClient := &http.Client{Timeout: 120 * time.Second}
	return &GigaChatClient{
		apiURL:      strings.TrimSuffix(opts.APIURL, "/"),
		model:       opts.Model,
		maxAttempts: opts.MaxAttempts,
		auth: &gigaChatAuth{
			oauthURL: opts.OAuthURL,
			authKey:  authKey,
			scope:    scope,
			client:   httpClient,
		},
		client: httpClient,
		log:    log,
	}
}

// Name returns the provider name.
func (g *GigaChatClient) Name() string { return "gigachat" }

// GenerateOpener produces the tutor's opening line for a fresh session.
func (g *GigaChatClient) GenerateOpener(ctx context.Context, topic string, vocab []string, level string) (string, error) {
	var text string
	err := withRetry(ctx, g.log, g.maxAttempts, func() error {
		var err error
		text, err = g.chat(ctx, openerPrompt(topic, vocab, level), 0.4)
		return err
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// TutorReply produces the tutor's next turn.
func (g *GigaChatClient) TutorReply(ctx context.Context, session *domain.Session, studentText string, used, missing []string) (string, error) {
	var text string
	err := withRetry(ctx, g.log, g.maxAttempts, func() error {
		var err error
		text, err = g.chat(ctx, tutorPrompt(session, studentText, missing), 0.6)
		return err
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (g *GigaChatClient) chat(ctx context.Context, prompt string, temperature float64) (string, error) {
	token, err := g.auth.validToken(ctx)
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(gigaChatCompletionReq{
		Model:       g.model,
		Messages:    []gigaChatMessage{{Role: "user", Content: prompt}},
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", g.apiURL+"/chat/completions", strings.NewReader(string(payload)))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := g.client.Do(req)
	if err != nil {
		if IsUpstreamTimeout(err) {
			return "", &UpstreamError{Provider: g.Name(), Status: 0, Snippet: "request timed out"}
		}
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &UpstreamError{Provider: g.Name(), Status: resp.StatusCode, Snippet: snip(string(body), 800)}
	}

	var parsed gigaChatCompletionResp
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", nil
	}
	return parsed.Choices[0].Message.Content, nil
}

// Ping acquires a token and lists models to verify auth and reachability.
func (g *GigaChatClient) Ping(ctx context.Context) PingResult {
	start := time.Now()
	res := PingResult{Provider: g.Name()}

	token, err := g.auth.validToken(ctx)
	if err != nil {
		var ue *UpstreamError
		if errors.As(err, &ue) {
			res.HTTPStatus = ue.Status
		}
		res.Reason = snip(err.Error(), 200)
		return res
	}

	req, err := http.NewRequestWithContext(ctx, "GET", g.apiURL+"/models", nil)
	if err != nil {
		res.Reason = err.Error()
		return res
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := g.client.Do(req)
	if err != nil {
		res.Reason = snip(err.Error(), 200)
		return res
	}
	defer resp.Body.Close()
	res.Latency = time.Since(start)
	res.HTTPStatus = resp.StatusCode

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		res.Reason = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, snip(string(body), 200))
		return res
	}

	res.OK = true
	res.Details = "models ok"
	return res
}

type gigaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type gigaChatCompletionReq struct {
	Model       string            `json:"model"`
	Messages    []gigaChatMessage `json:"messages"`
	Temperature float64           `json:"temperature,omitempty"`
}

type gigaChatCompletionResp struct {
	Choices []struct {
		Message gigaChatMessage `json:"message"`
	} `json:"choices"`
}
