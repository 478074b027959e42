package retrieval

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMLflowRegistry_LatestVersion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/2.0/mlflow/registered-models/get-latest-versions", r.URL.Path)

		var req struct {
			Name   string   `json:"name"`
			Stages []string `json:"stages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		w.Header().Set("Content-Type", "application/json")
		switch req.Name {
		case "XGBoostReranker":
			assert.Equal(t, []string{"Staging"}, req.Stages)
			_, _ = w.Write([]byte(`{"model_versions":[{"name":"XGBoostReranker","version":"4","current_stage":"Staging","source":"mlflow-artifacts:/1/abc/artifacts/model"}]}`))
		case "Missing":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error_code":"RESOURCE_DOES_NOT_EXIST"}`))
		case "Empty":
			_, _ = w.Write([]byte(`{}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	reg := NewMLflowRegistry(server.URL+"/", "model.xgb", 5*time.Second)
	ctx := context.Background()

	v, ok, err := reg.LatestVersion(ctx, "XGBoostReranker", "Staging")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "4", v)

	_, ok, err = reg.LatestVersion(ctx, "Missing", "Staging")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = reg.LatestVersion(ctx, "Empty", "Staging")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = reg.LatestVersion(ctx, "Broken", "Staging")
	assert.Error(t, err)
}

func TestMLflowRegistry_LoadModelRejectsUnsupportedURI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/2.0/mlflow/model-versions/get-download-uri", r.URL.Path)
		assert.Equal(t, "XGBoostReranker", r.URL.Query().Get("name"))
		_, _ = w.Write([]byte(`{"artifact_uri":"s3://bucket/models/4"}`))
	}))
	defer server.Close()

	reg := NewMLflowRegistry(server.URL, "model.xgb", 5*time.Second)
	_, err := reg.LoadModel(context.Background(), "XGBoostReranker", "4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported artifact uri")
}

func TestMLflowRegistry_LoadModelRejectsCorruptArtifact(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/2.0/mlflow/model-versions/get-download-uri", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"artifact_uri":"mlflow-artifacts:/1/abc/artifacts/model"}`))
	})
	var requested string
	mux.HandleFunc("/api/2.0/mlflow-artifacts/artifacts/", func(w http.ResponseWriter, r *http.Request) {
		requested = r.URL.Path
		_, _ = w.Write([]byte("definitely not a model"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	reg := NewMLflowRegistry(server.URL, "model.xgb", 5*time.Second)
	_, err := reg.LoadModel(context.Background(), "XGBoostReranker", "4")
	require.Error(t, err)
	assert.Equal(t, "/api/2.0/mlflow-artifacts/artifacts/1/abc/artifacts/model/model.xgb", requested)
}
