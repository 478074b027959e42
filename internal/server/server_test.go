package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinic-frontdesk/agent/internal/agent/model"
	"github.com/clinic-frontdesk/agent/internal/core"
	errx "github.com/clinic-frontdesk/agent/internal/core/error"
	logx "github.com/clinic-frontdesk/agent/pkg/logger"
)

func init() {
	logx.Disable()
}

type fakeRunner struct {
	replies []string
	err     error
	got     model.TurnInput
}

func (f *fakeRunner) Invoke(_ context.Context, in model.TurnInput) (*model.TurnResult, error) {
	f.got = in
	if f.err != nil {
		return nil, f.err
	}
	return &model.TurnResult{SessionKey: in.SessionKey, Replies: f.replies}, nil
}

func (f *fakeRunner) Stream(ctx context.Context, in model.TurnInput) (*schema.StreamReader[string], error) {
	out, err := f.Invoke(ctx, in)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray(out.Replies), nil
}

var testCfg = Config{ServiceName: "clinic-frontdesk", Version: "0.1.0"}

func post(t *testing.T, s *Server, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestChatStreamsReplies(t *testing.T) {
	runner := &fakeRunner{replies: []string{"Boleh tahu nama Anda?", "Harga facial Rp 100.000."}}
	s := New(testCfg, core.Development, runner, nil)

	rec := post(t, s, `{"query": "Saya mau booking", "session_key": "abc"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Boleh tahu nama Anda?\n\nHarga facial Rp 100.000.", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Equal(t, "abc", rec.Header().Get(HeaderSessionKey))
	assert.Equal(t, model.TurnInput{SessionKey: "abc", Query: "Saya mau booking"}, runner.got)
}

func TestChatSessionKeySources(t *testing.T) {
	runner := &fakeRunner{replies: []string{"ok"}}
	s := New(testCfg, core.Development, runner, nil)

	post(t, s, `{"query": "Halo", "thread_id": "t-1"}`, nil)
	assert.Equal(t, "t-1", runner.got.SessionKey)

	post(t, s, `{"query": "Halo"}`, map[string]string{HeaderSessionKey: "h-1"})
	assert.Equal(t, "h-1", runner.got.SessionKey)

	rec := post(t, s, `{"query": "Halo"}`, nil)
	assert.Len(t, runner.got.SessionKey, 36)
	assert.Equal(t, runner.got.SessionKey, rec.Header().Get(HeaderSessionKey))
}

func TestChatRejectsEmptyQuery(t *testing.T) {
	s := New(testCfg, core.Development, &fakeRunner{}, nil)

	rec := post(t, s, `{"query": "   "}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "query cannot be empty")

	rec = post(t, s, `{not json`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatErrors(t *testing.T) {
	s := New(testCfg, core.Development, &fakeRunner{err: errx.ErrSessionLocked}, nil)
	rec := post(t, s, `{"query": "Halo"}`, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	s = New(testCfg, core.Development, &fakeRunner{err: errors.New("boom")}, nil)
	rec = post(t, s, `{"query": "Halo"}`, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), errx.SystemErrorMessage)
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestHealth(t *testing.T) {
	checks := map[string]CheckFunc{
		"redis":    func(context.Context) error { return nil },
		"postgres": func(context.Context) error { return errors.New("connection refused") },
	}
	s := New(testCfg, core.Production, &fakeRunner{}, checks)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, StatusDegraded, resp.Status)
	assert.Equal(t, "production", resp.Environment)
	assert.Equal(t, "clinic-frontdesk", resp.ServiceName)
	assert.Equal(t, ServiceHealthy, resp.Services["redis"].Status)
	assert.Equal(t, ServiceUnhealthy, resp.Services["postgres"].Status)
	assert.Equal(t, "connection refused", resp.Services["postgres"].Message)
}

func TestHealthAllHealthy(t *testing.T) {
	h := NewHealthChecker(testCfg, core.Development, map[string]CheckFunc{
		"qdrant": func(context.Context) error { return nil },
	})
	resp := h.Check(context.Background())
	assert.Equal(t, StatusOK, resp.Status)
	assert.Len(t, resp.Services, 1)
}
