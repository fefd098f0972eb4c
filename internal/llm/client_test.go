package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/lexidrill/internal/domain"
	"github.com/soyeahso/lexidrill/internal/logging"
)

func testLog() *logging.Logger {
	return logging.New(io.Discard, "silent")
}

func TestOllamaGenerateOpener(t *testing.T) {
	var gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate", r.URL.Path)
		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotPrompt = req["prompt"].(string)
		require.Equal(t, false, req["stream"])
		json.NewEncoder(w).Encode(ollamaResponse{Response: "  Hi! What food do you like?  \n"})
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "llama3", 1, testLog())
	text, err := c.GenerateOpener(context.Background(), "food", []string{"because", "however"}, "A2")
	require.NoError(t, err)
	assert.Equal(t, "Hi! What food do you like?", text)
	assert.Contains(t, gotPrompt, "Topic: food")
	assert.Contains(t, gotPrompt, "because, however")
	assert.Contains(t, gotPrompt, "Student level: A2")
}

func TestOllamaTutorReplyPromptIncludesHistory(t *testing.T) {
	var gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]interface{}
		json.NewDecoder(r.Body).Decode(&req)
		gotPrompt = req["prompt"].(string)
		json.NewEncoder(w).Encode(ollamaResponse{Response: "Why do you like it?"})
	}))
	defer srv.Close()

	session := &domain.Session{
		Topic: "travel",
		Vocab: []string{"because", "recommend"},
		Messages: []domain.Message{
			{Seq: 1, Role: domain.RoleTutor, Content: "Where would you go?"},
			{Seq: 2, Role: domain.RoleStudent, Content: "I like Rome"},
		},
	}

	c := NewOllamaClient(srv.URL, "llama3", 1, testLog())
	text, err := c.TutorReply(context.Background(), session, "I like Rome", nil, []string{"because"})
	require.NoError(t, err)
	assert.Equal(t, "Why do you like it?", text)
	assert.Contains(t, gotPrompt, "TUTOR: Where would you go?")
	assert.Contains(t, gotPrompt, "STUDENT: I like Rome")
	assert.Contains(t, gotPrompt, "Missing (not used yet in this session): because")
}

func TestOllamaRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(ollamaResponse{Response: "ok"})
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "llama3", 3, testLog())
	text, err := c.GenerateOpener(context.Background(), "t", []string{"w"}, "")
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestOllamaDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad model", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "llama3", 3, testLog())
	_, err := c.GenerateOpener(context.Background(), "t", []string{"w"}, "")
	require.Error(t, err)

	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, http.StatusBadRequest, ue.Status)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestOllamaPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		w.Write([]byte(`{"models":[]}`))
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "llama3", 1, testLog())
	res := c.Ping(context.Background())
	assert.True(t, res.OK)
	assert.Equal(t, "ollama", res.Provider)
	assert.Equal(t, http.StatusOK, res.HTTPStatus)
}

func gigaChatTestServers(t *testing.T, oauthCalls *int32, reply string) (*httptest.Server, *httptest.Server) {
	t.Helper()
	oauth := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(oauthCalls, 1)
		require.NotEmpty(t, r.Header.Get("RqUID"))
		require.Equal(t, "Basic test-key", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseForm())
		require.Equal(t, "GIGACHAT_API_PERS", r.PostForm.Get("scope"))
		json.NewEncoder(w).Encode(gigaChatTokenResp{AccessToken: "tok-1", ExpiresInSec: 1800})
	}))
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/models":
			w.Write([]byte(`{"data":[]}`))
		case "/chat/completions":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"choices": []map[string]interface{}{
					{"message": map[string]string{"role": "assistant", "content": reply}},
				},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	return oauth, api
}

func TestGigaChatTokenIsCached(t *testing.T) {
	var oauthCalls int32
	oauth, api := gigaChatTestServers(t, &oauthCalls, "Nice choice! Why?")
	defer oauth.Close()
	defer api.Close()

	c := NewGigaChatClient("test-key", "GIGACHAT_API_PERS", GigaChatOptions{
		OAuthURL: oauth.URL,
		APIURL:   api.URL,
	}, testLog())

	for i := 0; i < 3; i++ {
		text, err := c.GenerateOpener(context.Background(), "food", []string{"because"}, "")
		require.NoError(t, err)
		assert.Equal(t, "Nice choice! Why?", text)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&oauthCalls))
}

func TestGigaChatOAuthFailure(t *testing.T) {
	oauth := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	}))
	defer oauth.Close()

	c := NewGigaChatClient("bad-key", "GIGACHAT_API_PERS", GigaChatOptions{
		OAuthURL: oauth.URL,
		APIURL:   "http://127.0.0.1:0",
	}, testLog())

	_, err := c.GenerateOpener(context.Background(), "food", []string{"because"}, "")
	require.Error(t, err)

	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "gigachat-oauth", ue.Provider)
	assert.True(t, ue.IsAuth())
}

func TestGigaChatPing(t *testing.T) {
	var oauthCalls int32
	oauth, api := gigaChatTestServers(t, &oauthCalls, "")
	defer oauth.Close()
	defer api.Close()

	c := NewGigaChatClient("test-key", "GIGACHAT_API_PERS", GigaChatOptions{
		OAuthURL: oauth.URL,
		APIURL:   api.URL,
	}, testLog())

	res := c.Ping(context.Background())
	assert.True(t, res.OK)
	assert.Equal(t, "gigachat", res.Provider)
	assert.Equal(t, "models ok", res.Details)
}

func TestUpstreamErrorClassification(t *testing.T) {
	assert.True(t, (&UpstreamError{Status: 429}).IsRateLimit())
	assert.True(t, (&UpstreamError{Status: 401}).IsAuth())
	assert.True(t, (&UpstreamError{Status: 403}).IsAuth())
	assert.True(t, (&UpstreamError{Status: 502}).IsServer())

	assert.True(t, (&UpstreamError{Status: 429}).retryable())
	assert.True(t, (&UpstreamError{Status: 500}).retryable())
	assert.True(t, (&UpstreamError{Status: 0}).retryable())
	assert.False(t, (&UpstreamError{Status: 400}).retryable())
	assert.False(t, (&UpstreamError{Status: 401}).retryable())
}

func TestBackoffIsCapped(t *testing.T) {
	assert.Equal(t, 500*time.Millisecond, backoff(1))
	assert.Equal(t, time.Second, backoff(2))
	assert.Equal(t, 2*time.Second, backoff(3))
	assert.Equal(t, 4*time.Second, backoff(4))
	assert.Equal(t, 4*time.Second, backoff(5))
}

func TestWithRetryStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := withRetry(ctx, testLog(), 3, func() error {
		calls++
		return &UpstreamError{Provider: "test", Status: 500}
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
