package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragqa/internal/domain"
)

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

// fakeServer answers each input with a vector [len(input), position]. The
// data entries are returned in reverse order to exercise index mapping.
func fakeServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		data := make([]map[string]any, 0, len(req.Input))
		for i := len(req.Input) - 1; i >= 0; i-- {
			data = append(data, map[string]any{
				"object":    "embedding",
				"index":     i,
				"embedding": []float32{float32(len(req.Input[i])), float32(i)},
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  req.Model,
			"data":   data,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, baseURL string, batch int) *Client {
	t.Helper()
	t.Setenv("TEST_OPENAI_KEY", "test-key")
	c, err := NewClient(Config{BaseURL: baseURL + "/v1", APIKeyEnv: "TEST_OPENAI_KEY", BatchSize: batch})
	require.NoError(t, err)
	return c
}

func TestClient_Embed(t *testing.T) {
	var calls atomic.Int32
	srv := fakeServer(t, &calls)
	c := newTestClient(t, srv.URL, 0)

	v, err := c.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 0}, v)
	assert.Equal(t, 2, c.Dimension())
	assert.Equal(t, "openai/"+defaultModel, c.Name())
}

func TestClient_EmbedBatchKeepsOrder(t *testing.T) {
	var calls atomic.Int32
	srv := fakeServer(t, &calls)
	c := newTestClient(t, srv.URL, 2)

	vs, err := c.EmbedBatch(context.Background(), []string{"a", "bb", "ccc", "dddd", "eeeee"})
	require.NoError(t, err)
	require.Len(t, vs, 5)
	for i, v := range vs {
		assert.Equal(t, float64(i+1), v[0])
	}
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_ConcurrentEmbed(t *testing.T) {
	var calls atomic.Int32
	srv := fakeServer(t, &calls)
	c := newTestClient(t, srv.URL, 0)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.Embed(context.Background(), "hello")
			assert.NoError(t, err)
			assert.Equal(t, []float64{5, 0}, v)
			assert.Equal(t, 2, c.Dimension())
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(8), calls.Load())
}

func TestClient_ServiceFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL, 0)

	_, err := c.Embed(context.Background(), "hello")
	var ext *domain.ExternalServiceError
	require.ErrorAs(t, err, &ext)
	assert.Equal(t, serviceName, ext.Service)
}

func TestNewClient_MissingKey(t *testing.T) {
	t.Setenv("TEST_OPENAI_KEY", "")
	_, err := NewClient(Config{APIKeyEnv: "TEST_OPENAI_KEY"})
	assert.Error(t, err)
}
