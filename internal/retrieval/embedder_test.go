package retrieval

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIEmbedder_EmbedCaches(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/v1/openai/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"object":"embedding","embedding":[0.25,0.5,0.75],"index":0}],"model":"Qwen/Qwen3-Embedding-8B","usage":{"prompt_tokens":3,"total_tokens":3}}`))
	}))
	defer server.Close()

	emb, err := NewOpenAIEmbedder("secret", server.URL+"/v1/openai", "Qwen/Qwen3-Embedding-8B", 8)
	require.NoError(t, err)

	ctx := context.Background()
	v1, err := emb.Embed(ctx, "harga facial")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.25, 0.5, 0.75}, v1)

	v2, err := emb.Embed(ctx, "harga facial")
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
	assert.Equal(t, int32(1), calls.Load())
}

func TestOpenAIEmbedder_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
	}))
	defer server.Close()

	emb, err := NewOpenAIEmbedder("secret", server.URL, "m", 0)
	require.NoError(t, err)
	_, err = emb.Embed(context.Background(), "x")
	assert.Error(t, err)
}

func TestNewOpenAIEmbedder_RequiresKey(t *testing.T) {
	_, err := NewOpenAIEmbedder("", "", "m", 0)
	assert.Error(t, err)
}
