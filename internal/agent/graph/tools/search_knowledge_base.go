package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/clinic-frontdesk/agent/internal/agent/handlers"
	"github.com/clinic-frontdesk/agent/internal/retrieval"
)

// ===================================
// Search Knowledge Base Tool
// ===================================

type SearchKnowledgeBaseInput struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results,omitempty"`
}

type KnowledgeDocument struct {
	ID          string   `json:"id"`
	Heading     string   `json:"h1,omitempty"`
	Text        string   `json:"full_text"`
	Similarity  float64  `json:"similarity_score"`
	RerankScore *float64 `json:"rerank_score,omitempty"`
}

type SearchKnowledgeBaseOutput struct {
	Documents []KnowledgeDocument `json:"documents"`
	Total     int                 `json:"total"`
	Notice    string              `json:"notice,omitempty"`
}

func createSearchKnowledgeBaseTool(r handlers.Retriever) tool.InvokableTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolSearchKnowledgeBase,
			Desc: "Search the clinic knowledge base (treatments, prices, procedures, clinic information). Returns the most relevant documents, best first.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {
					Type:     "string",
					Desc:     "Question or keywords in Indonesian or English, e.g. 'harga facial', 'apa itu laser CO2'.",
					Required: true,
				},
				"max_results": {
					Type: "number",
					Desc: "Maximum number of documents to return (default: all retrieved, max: 20)",
				},
			}),
		},
		func(ctx context.Context, in *SearchKnowledgeBaseInput) (*SearchKnowledgeBaseOutput, error) {
			query := strings.TrimSpace(in.Query)
			if query == "" {
				return nil, fmt.Errorf("query is required")
			}

			docs, err := r.Retrieve(ctx, query)
			if notice := retrieval.Notice(err); notice != "" {
				return &SearchKnowledgeBaseOutput{Documents: []KnowledgeDocument{}, Notice: notice}, nil
			}
			if errors.Is(err, retrieval.ErrInvalidQuery) {
				return nil, fmt.Errorf("query is required")
			}
			if err != nil {
				return nil, err
			}

			if max := clampInt(in.MaxResults, 0, 20); max > 0 && len(docs) > max {
				docs = docs[:max]
			}
			out := &SearchKnowledgeBaseOutput{Documents: make([]KnowledgeDocument, 0, len(docs)), Total: len(docs)}
			for _, d := range docs {
				out.Documents = append(out.Documents, KnowledgeDocument{
					ID:          d.ID,
					Heading:     d.Heading,
					Text:        d.Text,
					Similarity:  d.SimilarityScore,
					RerankScore: d.RerankScore,
				})
			}
			return out, nil
		},
	)
}

// clampInt returns v limited to [min, max].
func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
