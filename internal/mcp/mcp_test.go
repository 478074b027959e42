package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinic-frontdesk/agent/internal/agent/graph"
	clinictools "github.com/clinic-frontdesk/agent/internal/agent/graph/tools"
	"github.com/clinic-frontdesk/agent/internal/agent/model"
	"github.com/clinic-frontdesk/agent/internal/lookup"
	"github.com/clinic-frontdesk/agent/internal/retrieval"
	logx "github.com/clinic-frontdesk/agent/pkg/logger"
)

func init() {
	logx.Disable()
}

type fakeRetriever struct{}

func (fakeRetriever) Retrieve(context.Context, string) ([]retrieval.Candidate, error) {
	return []retrieval.Candidate{{ID: "a", Heading: "Facial", Text: "Facial Rp 100.000", SimilarityScore: 0.9}}, nil
}

type fakeStore struct{}

func (fakeStore) Query(context.Context, string) (lookup.Rows, error) {
	return lookup.Rows{Columns: []string{"name"}, Values: [][]any{{"dr. Sari"}}}, nil
}

type fakeRunner struct {
	got model.TurnInput
}

func (f *fakeRunner) Invoke(_ context.Context, in model.TurnInput) (*model.TurnResult, error) {
	f.got = in
	return &model.TurnResult{SessionKey: in.SessionKey, Replies: []string{"Halo!"}, Handlers: []string{"general"}}, nil
}

func (f *fakeRunner) Stream(ctx context.Context, in model.TurnInput) (*schema.StreamReader[string], error) {
	out, err := f.Invoke(ctx, in)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray(out.Replies), nil
}

func call(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func register(t *testing.T, runner graph.Runner) *Handlers {
	t.Helper()
	server := mcpserver.NewMCPServer("test", "0.0.0")
	h, err := RegisterTools(context.Background(), server, clinictools.GetClinicTools(fakeRetriever{}, fakeStore{}), runner)
	require.NoError(t, err)
	return h
}

func TestRegisterTools(t *testing.T) {
	h := register(t, nil)
	assert.Equal(t, []string{clinictools.ToolQueryClinicData, clinictools.ToolSearchKnowledgeBase}, h.Names())

	h = register(t, &fakeRunner{})
	assert.Contains(t, h.Names(), ToolAskFrontDesk)
}

func TestCallSearchKnowledgeBase(t *testing.T) {
	h := register(t, nil)
	res, err := h.CallTool(clinictools.ToolSearchKnowledgeBase)(context.Background(), call(clinictools.ToolSearchKnowledgeBase, map[string]any{"query": "harga facial"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	var out clinictools.SearchKnowledgeBaseOutput
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &out))
	assert.Equal(t, 1, out.Total)
	assert.Equal(t, "Facial", out.Documents[0].Heading)
}

func TestCallToolErrorsBecomeToolResults(t *testing.T) {
	h := register(t, nil)

	res, err := h.CallTool(clinictools.ToolSearchKnowledgeBase)(context.Background(), call(clinictools.ToolSearchKnowledgeBase, map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = h.CallTool(clinictools.ToolQueryClinicData)(context.Background(), call(clinictools.ToolQueryClinicData, map[string]any{"sql": "DELETE FROM doctors"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = h.CallTool("nope")(context.Background(), call("nope", nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestAskFrontDesk(t *testing.T) {
	runner := &fakeRunner{}
	h := register(t, runner)

	res, err := h.AskFrontDesk(context.Background(), call(ToolAskFrontDesk, map[string]any{"query": "Halo", "session_key": "abc"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "abc", runner.got.SessionKey)

	var out struct {
		SessionKey string   `json:"session_key"`
		Replies    []string `json:"replies"`
	}
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &out))
	assert.Equal(t, []string{"Halo!"}, out.Replies)

	res, err = h.AskFrontDesk(context.Background(), call(ToolAskFrontDesk, map[string]any{"query": "Halo"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, runner.got.SessionKey, "mcp-")

	res, err = h.AskFrontDesk(context.Background(), call(ToolAskFrontDesk, map[string]any{"query": "  "}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
