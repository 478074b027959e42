package retrieval

import (
	"context"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	openai "github.com/sashabaranov/go-openai"

	errx "github.com/clinic-frontdesk/agent/internal/core/error"
)

// OpenAIEmbedder calls an OpenAI-compatible embeddings endpoint (DeepInfra
// by default) and keeps recent query vectors in an LRU cache.
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
	cache  *lru.Cache[string, []float32]
}

// NewOpenAIEmbedder builds the client. cacheSize <= 0 disables caching.
func NewOpenAIEmbedder(apiKey, baseURL, modelName string, cacheSize int) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, errors.New("embedding api key is empty")
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	e := &OpenAIEmbedder{client: openai.NewClientWithConfig(cfg), model: modelName}
	if cacheSize > 0 {
		cache, err := lru.New[string, []float32](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("create embedding cache: %w", err)
		}
		e.cache = cache
	}
	return e, nil
}

// Embed implements Embedder.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.cache != nil {
		if v, ok := e.cache.Get(text); ok {
			return v, nil
		}
	}
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: []string{text},
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, errx.WrapUpstream(fmt.Errorf("create embedding: %w", err))
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, errx.WrapUpstream(errors.New("embedding response is empty"))
	}
	vec := resp.Data[0].Embedding
	if e.cache != nil {
		e.cache.Add(text, vec)
	}
	return vec, nil
}
