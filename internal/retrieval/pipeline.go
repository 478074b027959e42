package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	logx "github.com/clinic-frontdesk/agent/pkg/logger"
)

const (
	DefaultCandidateLimit = 40
	DefaultTopK           = 5
)

var (
	// ErrServiceUnavailable means the embedding service or the vector index failed.
	ErrServiceUnavailable = errors.New("retrieval service unavailable")
	// ErrNoInformation means the index returned no hits. It is not a failure.
	ErrNoInformation = errors.New("no information found")
	// ErrInvalidQuery is returned for blank queries.
	ErrInvalidQuery = errors.New("query is empty")
)

// Notice returns the degraded-service text for a retrieval sentinel, or "".
func Notice(err error) string {
	switch {
	case errors.Is(err, ErrServiceUnavailable):
		return "Service temporarily unavailable."
	case errors.Is(err, ErrNoInformation):
		return "No information found in the knowledge base."
	}
	return ""
}

// Embedder produces an embedding vector for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Hit is one nearest-neighbour result with its loosely typed payload.
type Hit struct {
	ID      string
	Score   float64
	Payload map[string]any
}

// VectorIndex returns the limit nearest stored documents for a vector.
type VectorIndex interface {
	Query(ctx context.Context, vector []float32, limit int) ([]Hit, error)
}

// Candidate is one retrieved document considered for an answer.
type Candidate struct {
	ID              string    `json:"id"`
	Text            string    `json:"full_text"`
	Heading         string    `json:"h1"`
	SimilarityScore float64   `json:"similarity_score"`
	Features        []float64 `json:"features,omitempty"`
	RerankScore     *float64  `json:"rerank_score,omitempty"`
}

type PipelineOptions struct {
	CandidateLimit int
	TopK           int
}

// Pipeline embeds the query, searches the index, reranks and cuts to top-k.
type Pipeline struct {
	embedder Embedder
	index    VectorIndex
	reranker *Reranker
	limit    int
	topK     int
}

// NewPipeline wires the pipeline. reranker may be nil.
func NewPipeline(embedder Embedder, index VectorIndex, reranker *Reranker, opts PipelineOptions) *Pipeline {
	if opts.CandidateLimit <= 0 {
		opts.CandidateLimit = DefaultCandidateLimit
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	return &Pipeline{
		embedder: embedder,
		index:    index,
		reranker: reranker,
		limit:    opts.CandidateLimit,
		topK:     opts.TopK,
	}
}

// Retrieve returns at most TopK candidates ordered by relevance. It returns
// ErrServiceUnavailable or ErrNoInformation (test with errors.Is) instead of
// an empty list when the collaborators fail or find nothing.
func (p *Pipeline) Retrieve(ctx context.Context, query string) ([]Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrInvalidQuery
	}
	start := time.Now()

	vector, err := p.embedder.Embed(ctx, query)
	if err != nil {
		logx.Error().Err(err).Msg("Failed to generate query embedding")
		return nil, fmt.Errorf("%w: embedding: %v", ErrServiceUnavailable, err)
	}

	hits, err := p.index.Query(ctx, vector, p.limit)
	if err != nil {
		logx.Error().Err(err).Msg("Vector index query failed")
		return nil, fmt.Errorf("%w: vector index: %v", ErrServiceUnavailable, err)
	}
	if len(hits) == 0 {
		logx.Debug().Str("query", query).Msg("No candidates found")
		return nil, ErrNoInformation
	}

	candidates := make([]Candidate, len(hits))
	for i, h := range hits {
		candidates[i] = Candidate{
			ID:              h.ID,
			Text:            text(h.Payload[FieldFullText]),
			Heading:         text(h.Payload[FieldHeading]),
			SimilarityScore: h.Score,
		}
	}

	ranked := p.rank(query, candidates)
	if len(ranked) > p.topK {
		ranked = ranked[:p.topK]
	}

	logx.Debug().
		Int("candidates", len(candidates)).
		Int("returned", len(ranked)).
		Bool("reranked", ranked[0].RerankScore != nil).
		Int64("elapsed_ms", time.Since(start).Milliseconds()).
		Msg("Retrieval completed")
	return ranked, nil
}

// rank orders by reranker score when a model is loaded and scoring succeeds,
// otherwise by similarity. Reranking failures are logged and never returned.
func (p *Pipeline) rank(query string, candidates []Candidate) []Candidate {
	if p.reranker != nil {
		scores, features, err := scoreSafely(p.reranker, query, candidates)
		if err == nil {
			for i := range candidates {
				s := scores[i]
				candidates[i].RerankScore = &s
				candidates[i].Features = features[i]
			}
			sort.SliceStable(candidates, func(i, j int) bool {
				return *candidates[i].RerankScore > *candidates[j].RerankScore
			})
			return candidates
		}
		logx.Warn().Err(err).Str("model_version", p.reranker.Version()).Msg("Reranking failed; falling back to similarity ordering")
	}
	SortBySimilarity(candidates)
	return candidates
}

func scoreSafely(r *Reranker, query string, candidates []Candidate) (scores []float64, features [][]float64, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("reranker panic: %v", rec)
		}
	}()
	return r.Score(query, candidates)
}

// SortBySimilarity orders candidates by descending similarity, keeping index order on ties.
func SortBySimilarity(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].SimilarityScore > candidates[j].SimilarityScore
	})
}
