package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragqa/internal/domain"
)

type chatRequest struct {
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newTestClient(t *testing.T, url string, cfg Config) *Client {
	t.Helper()
	t.Setenv("TEST_OPENAI_KEY", "test-key")
	cfg.BaseURL = url + "/v1"
	cfg.APIKeyEnv = "TEST_OPENAI_KEY"
	c, err := NewClient(cfg)
	require.NoError(t, err)
	return c
}

func TestClient_Complete(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Tuesday"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, Config{Temperature: DefaultTemperature})
	answer, err := c.Complete(context.Background(), "When is the meeting?")
	require.NoError(t, err)

	assert.Equal(t, "Tuesday", answer)
	assert.Equal(t, DefaultModel, got.Model)
	assert.InDelta(t, 0.5, got.Temperature, 1e-6)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "When is the meeting?", got.Messages[0].Content)
}

func TestClient_ZeroTemperatureIsSent(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"ok"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL, Config{Temperature: 0}).Complete(context.Background(), "q")
	require.NoError(t, err)

	temp, ok := got["temperature"]
	require.True(t, ok, "temperature missing from request")
	assert.InDelta(t, 0, temp, 1e-6)
}

func TestClient_CompleteNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[]}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL, Config{}).Complete(context.Background(), "q")
	var ext *domain.ExternalServiceError
	assert.ErrorAs(t, err, &ext)
}

func TestClient_CompleteServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL, Config{Model: "gpt-4o"}).Complete(context.Background(), "q")
	var ext *domain.ExternalServiceError
	require.ErrorAs(t, err, &ext)
	assert.Equal(t, serviceName, ext.Service)
}
