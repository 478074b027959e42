package retrieval

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitryikh/leaves"

	logx "github.com/clinic-frontdesk/agent/pkg/logger"
)

const artifactScheme = "mlflow-artifacts:"

type modelVersion struct {
	Name         string `json:"name"`
	Version      string `json:"version"`
	CurrentStage string `json:"current_stage"`
	Source       string `json:"source"`
}

type latestVersionsResponse struct {
	ModelVersions []modelVersion `json:"model_versions"`
}

type downloadURIResponse struct {
	ArtifactURI string `json:"artifact_uri"`
}

// MLflowRegistry resolves and downloads ranking models from an MLflow
// tracking server over its REST API. Loaded models are cached by name:version.
type MLflowRegistry struct {
	BaseURL      string
	ArtifactFile string
	Client       *http.Client

	mu    sync.Mutex
	cache map[string]Scorer
}

// NewMLflowRegistry constructs a registry client. artifactFile is the model
// file inside the registered artifact directory (an XGBoost binary model).
func NewMLflowRegistry(baseURL, artifactFile string, timeout time.Duration, client ...*http.Client) *MLflowRegistry {
	var c *http.Client
	if len(client) > 0 && client[0] != nil {
		c = client[0]
	} else {
		c = &http.Client{Timeout: timeout}
	}
	return &MLflowRegistry{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		ArtifactFile: artifactFile,
		Client:       c,
		cache:        map[string]Scorer{},
	}
}

// LatestVersion implements Registry.
func (r *MLflowRegistry) LatestVersion(ctx context.Context, name, stage string) (string, bool, error) {
	body, err := json.Marshal(map[string]any{"name": name, "stages": []string{stage}})
	if err != nil {
		return "", false, fmt.Errorf("marshal latest-versions request: %w", err)
	}
	var out latestVersionsResponse
	if err := r.do(ctx, http.MethodPost, "/api/2.0/mlflow/registered-models/get-latest-versions", bytes.NewReader(body), &out); err != nil {
		return "", false, err
	}
	for _, v := range out.ModelVersions {
		if strings.EqualFold(v.CurrentStage, stage) && v.Version != "" {
			return v.Version, true, nil
		}
	}
	return "", false, nil
}

// LoadModel implements Registry.
func (r *MLflowRegistry) LoadModel(ctx context.Context, name, version string) (Scorer, error) {
	key := name + ":" + version
	r.mu.Lock()
	if s, ok := r.cache[key]; ok {
		r.mu.Unlock()
		return s, nil
	}
	r.mu.Unlock()

	q := url.Values{"name": {name}, "version": {version}}
	var uri downloadURIResponse
	if err := r.do(ctx, http.MethodGet, "/api/2.0/mlflow/model-versions/get-download-uri?"+q.Encode(), nil, &uri); err != nil {
		return nil, err
	}
	artifactPath, err := r.artifactPath(uri.ArtifactURI)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.BaseURL+"/api/2.0/mlflow-artifacts/artifacts/"+artifactPath, nil)
	if err != nil {
		return nil, fmt.Errorf("create artifact request: %w", err)
	}
	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download model artifact: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("artifact download returned %d: %s", resp.StatusCode, string(b))
	}

	ensemble, err := leaves.XGEnsembleFromReader(bufio.NewReader(resp.Body), false)
	if err != nil {
		return nil, fmt.Errorf("parse xgboost model: %w", err)
	}
	scorer := &EnsembleScorer{model: ensemble}

	logx.Debug().
		Str("model", name).
		Str("version", version).
		Int("features", ensemble.NFeatures()).
		Int64("elapsed_ms", time.Since(start).Milliseconds()).
		Msg("Model artifact loaded")

	r.mu.Lock()
	r.cache[key] = scorer
	r.mu.Unlock()
	return scorer, nil
}

// Ping checks that the tracking server answers.
func (r *MLflowRegistry) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.BaseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := r.Client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mlflow health returned %d", resp.StatusCode)
	}
	return nil
}

// artifactPath converts a proxied artifact URI into a path below the
// artifacts endpoint, pointing at the configured model file.
func (r *MLflowRegistry) artifactPath(uri string) (string, error) {
	if !strings.HasPrefix(uri, artifactScheme) {
		return "", fmt.Errorf("unsupported artifact uri %q", uri)
	}
	p := strings.TrimLeft(strings.TrimPrefix(uri, artifactScheme), "/")
	if r.ArtifactFile != "" {
		p = strings.TrimRight(p, "/") + "/" + r.ArtifactFile
	}
	return p, nil
}

func (r *MLflowRegistry) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, r.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("create mlflow request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := r.Client.Do(req)
	if err != nil {
		return fmt.Errorf("call mlflow %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		// unknown registered model behaves like "nothing published"
		return json.Unmarshal([]byte("{}"), out)
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("mlflow %s returned %d: %s", path, resp.StatusCode, string(b))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode mlflow response: %w", err)
	}
	return nil
}

// EnsembleScorer adapts a leaves gradient-boosted ensemble to Scorer.
type EnsembleScorer struct {
	model *leaves.Ensemble
}

func (s *EnsembleScorer) Predict(features [][]float64) ([]float64, error) {
	out := make([]float64, len(features))
	for i, row := range features {
		if n := s.model.NFeatures(); n != len(row) {
			return nil, fmt.Errorf("model expects %d features, got %d", n, len(row))
		}
		out[i] = s.model.PredictSingle(row, 0)
	}
	return out, nil
}
