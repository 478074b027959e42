package retrieval

import (
	"context"
	"fmt"

	logx "github.com/clinic-frontdesk/agent/pkg/logger"
)

// Scorer is the inference contract of a trained ranking model.
type Scorer interface {
	Predict(features [][]float64) ([]float64, error)
}

// Registry resolves published ranking models.
type Registry interface {
	// LatestVersion returns the newest version at stage; ok is false when none is published.
	LatestVersion(ctx context.Context, name, stage string) (version string, ok bool, err error)
	LoadModel(ctx context.Context, name, version string) (Scorer, error)
}

// Reranker scores candidates with a loaded model. It is read-only after
// construction and may be shared between concurrent turns.
type Reranker struct {
	scorer    Scorer
	extractor *FeatureExtractor
	name      string
	version   string
}

func NewReranker(scorer Scorer, name, version string) *Reranker {
	return &Reranker{scorer: scorer, extractor: NewFeatureExtractor(), name: name, version: version}
}

func (r *Reranker) Name() string    { return r.name }
func (r *Reranker) Version() string { return r.version }

// Score computes features for the batch and returns one score per candidate,
// together with the feature matrix it used.
func (r *Reranker) Score(query string, candidates []Candidate) ([]float64, [][]float64, error) {
	records := make([]Record, len(candidates))
	for i, c := range candidates {
		records[i] = RecordFor(query, c)
	}
	features, err := r.extractor.Transform(records)
	if err != nil {
		return nil, nil, err
	}
	scores, err := r.scorer.Predict(features)
	if err != nil {
		return nil, nil, fmt.Errorf("reranker predict: %w", err)
	}
	if len(scores) != len(candidates) {
		return nil, nil, fmt.Errorf("reranker returned %d scores for %d candidates", len(scores), len(candidates))
	}
	return scores, features, nil
}

// LoadReranker resolves the latest model at stage and loads it. It is a
// best-effort startup step: a missing model or any failure yields nil, and
// retrieval falls back to similarity ordering.
func LoadReranker(ctx context.Context, reg Registry, name, stage string) *Reranker {
	if reg == nil {
		logx.Warn().Msg("No model registry configured; reranker disabled")
		return nil
	}
	version, ok, err := reg.LatestVersion(ctx, name, stage)
	if err != nil {
		logx.Error().Err(err).Str("model", name).Str("stage", stage).Msg("Failed to resolve reranker version; reranker disabled")
		return nil
	}
	if !ok {
		logx.Warn().Str("model", name).Str("stage", stage).Msg("No reranker published at stage; using similarity ordering")
		return nil
	}
	scorer, err := reg.LoadModel(ctx, name, version)
	if err != nil {
		logx.Error().Err(err).Str("model", name).Str("version", version).Msg("Failed to load reranker; reranker disabled")
		return nil
	}
	logx.Info().Str("model", name).Str("version", version).Str("stage", stage).Msg("Reranker loaded")
	return NewReranker(scorer, name, version)
}
