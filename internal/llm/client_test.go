package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func testConfig(endpoint string) LLMConfig {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.Endpoint = endpoint
	return cfg
}

func writeChoice(w http.ResponseWriter, content, finish string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"model": "gpt-4o-mini",
		"choices": []map[string]any{{
			"message":       map[string]string{"role": "assistant", "content": content},
			"finish_reason": finish,
		}},
	})
}

func TestGatewayClient_Complete_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer session-token", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		assert.Equal(t, 2000, req.MaxTokens)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system prompt", req.Messages[0].Text())

		writeChoice(w, `{"morningRoutine":[]}`, "stop")
	}))
	defer srv.Close()

	tokens := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "session-token", TokenType: "Bearer"})
	client := NewGatewayClient(testConfig(srv.URL), tokens, NoopObserver{})
	resp, err := client.Complete(context.Background(), CompletionRequest{
		Task: TaskRoutine,
		Messages: []Message{
			TextMessage(RoleSystem, "system prompt"),
			TextMessage(RoleUser, "user prompt"),
		},
	})

	require.NoError(t, err)
	assert.Equal(t, `{"morningRoutine":[]}`, resp.Text)
	assert.False(t, resp.Truncated())
	assert.GreaterOrEqual(t, resp.LatencyMs, int64(0))
}

func TestGatewayClient_Complete_APIKeyFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		writeChoice(w, "ok", "length")
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.APIKey = "sk-test"
	resp, err := NewGatewayClient(cfg, nil, nil).Complete(context.Background(), CompletionRequest{Task: TaskChat})

	require.NoError(t, err)
	assert.True(t, resp.Truncated())
}

func TestGatewayClient_Complete_VisionModelForAnalysis(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o", req.Model)
		require.Len(t, req.Messages, 1)
		require.Len(t, req.Messages[0].Content, 2)
		assert.Equal(t, "image_url", req.Messages[0].Content[1].Type)
		assert.Contains(t, req.Messages[0].Content[1].ImageURL.URL, "data:image/png;base64,")
		writeChoice(w, "{}", "stop")
	}))
	defer srv.Close()

	png := []byte("\x89PNG\r\n\x1a\n0000")
	_, err := NewGatewayClient(testConfig(srv.URL), nil, nil).Complete(context.Background(), CompletionRequest{
		Task:     TaskAnalysis,
		Messages: []Message{ImageMessage("analyze", png)},
	})
	require.NoError(t, err)
}

func TestGatewayClient_Complete_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Tasks = map[TaskType]TaskConfig{
		TaskChat: {Temperature: 0.1, MaxTokens: 512, TimeoutMs: 50},
	}

	_, err := NewGatewayClient(cfg, nil, NoopObserver{}).Complete(context.Background(), CompletionRequest{Task: TaskChat})

	assert.ErrorIs(t, err, ErrTimeout)
}

func TestGatewayClient_Complete_Unavailable(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1") // nothing listening
	cfg.MaxRetries = 0
	cfg.Tasks = map[TaskType]TaskConfig{
		TaskChat: {Temperature: 0.1, MaxTokens: 512, TimeoutMs: 1000},
	}

	_, err := NewGatewayClient(cfg, nil, NoopObserver{}).Complete(context.Background(), CompletionRequest{Task: TaskChat})

	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestGatewayClient_Complete_RetryOnServerError(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("upstream down"))
			return
		}
		writeChoice(w, "ok", "stop")
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MaxRetries = 1

	resp, err := NewGatewayClient(cfg, nil, NoopObserver{}).Complete(context.Background(), CompletionRequest{Task: TaskChat})

	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, 2, attempts)
}

func TestGatewayClient_Complete_ServerErrorExhaustsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MaxRetries = 2

	_, err := NewGatewayClient(cfg, nil, NoopObserver{}).Complete(context.Background(), CompletionRequest{Task: TaskChat})

	assert.ErrorIs(t, err, ErrRetryExhausted)
	assert.ErrorIs(t, err, ErrServer)
}

func TestGatewayClient_Complete_RateLimitedNotRetried(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.Header().Set("Retry-After", "12")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MaxRetries = 3

	_, err := NewGatewayClient(cfg, nil, NoopObserver{}).Complete(context.Background(), CompletionRequest{Task: TaskChat})

	require.ErrorIs(t, err, ErrRateLimited)
	wait, ok := RetryAfter(err)
	assert.True(t, ok)
	assert.Equal(t, 12*time.Second, wait)
	assert.Equal(t, 1, attempts)
}

func TestGatewayClient_Complete_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("bad request"))
	}))
	defer srv.Close()

	_, err := NewGatewayClient(testConfig(srv.URL), nil, NoopObserver{}).Complete(context.Background(), CompletionRequest{Task: TaskChat})

	assert.ErrorIs(t, err, ErrRejected)
	assert.NotErrorIs(t, err, ErrRetryExhausted)
}

func TestGatewayClient_ObserverCalled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeChoice(w, "ok", "stop")
	}))
	defer srv.Close()

	obs := &RecordingObserver{}
	_, err := NewGatewayClient(testConfig(srv.URL), nil, obs).Complete(context.Background(), CompletionRequest{Task: TaskChat})
	require.NoError(t, err)

	require.Len(t, obs.Events, 1)
	assert.Equal(t, TaskChat, obs.Events[0].Task)
	assert.Equal(t, "gpt-4o-mini", obs.Events[0].Model)
	assert.True(t, obs.Events[0].Success)
	assert.Equal(t, 1, obs.Events[0].Attempts)
}
