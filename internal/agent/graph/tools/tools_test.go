package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinic-frontdesk/agent/internal/lookup"
	"github.com/clinic-frontdesk/agent/internal/retrieval"
)

type fakeRetriever struct {
	docs []retrieval.Candidate
	err  error
}

func (f fakeRetriever) Retrieve(context.Context, string) ([]retrieval.Candidate, error) {
	return f.docs, f.err
}

type fakeStore struct {
	statement string
}

func (f *fakeStore) Query(_ context.Context, statement string) (lookup.Rows, error) {
	f.statement = statement
	return lookup.Rows{Columns: []string{"name"}, Values: [][]any{{"dr. Sari"}}}, nil
}

func TestGetClinicTools(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetClinicTools(nil, nil))

	ts := GetClinicTools(fakeRetriever{}, &fakeStore{})
	infos, err := GetToolInfos(ctx, ts)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, ToolSearchKnowledgeBase, infos[0].Name)
	assert.Equal(t, ToolQueryClinicData, infos[1].Name)
	assert.Contains(t, infos[1].Desc, "doctor_schedules")
}

func TestSearchKnowledgeBase(t *testing.T) {
	ctx := context.Background()
	tl := createSearchKnowledgeBaseTool(fakeRetriever{docs: []retrieval.Candidate{
		{ID: "a", Heading: "Facial", Text: "Facial Rp 100.000", SimilarityScore: 0.9},
		{ID: "b", Text: "Laser", SimilarityScore: 0.5},
	}})

	raw, err := tl.InvokableRun(ctx, `{"query": "harga facial", "max_results": 1}`)
	require.NoError(t, err)
	var out SearchKnowledgeBaseOutput
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	require.Len(t, out.Documents, 1)
	assert.Equal(t, "a", out.Documents[0].ID)
	assert.Equal(t, 1, out.Total)

	_, err = tl.InvokableRun(ctx, `{"query": "  "}`)
	assert.Error(t, err)
}

func TestSearchKnowledgeBaseNotice(t *testing.T) {
	tl := createSearchKnowledgeBaseTool(fakeRetriever{err: errors.Join(errors.New("dial"), retrieval.ErrServiceUnavailable)})
	raw, err := tl.InvokableRun(context.Background(), `{"query": "harga"}`)
	require.NoError(t, err)
	var out SearchKnowledgeBaseOutput
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	assert.Equal(t, "Service temporarily unavailable.", out.Notice)
	assert.Empty(t, out.Documents)
}

func TestQueryClinicData(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	tl := createQueryClinicDataTool(store)

	raw, err := tl.InvokableRun(ctx, `{"sql": "SELECT name FROM doctors"}`)
	require.NoError(t, err)
	var out QueryClinicDataOutput
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	assert.Equal(t, "name: dr. Sari", out.Text)
	assert.Equal(t, 1, out.Total)
	assert.Contains(t, store.statement, "LIMIT 20")

	_, err = tl.InvokableRun(ctx, `{"sql": "DROP TABLE doctors"}`)
	assert.Error(t, err)
}
