package tools

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/clinic-frontdesk/agent/internal/lookup"
)

// ===================================
// Query Clinic Data Tool
// ===================================

type QueryClinicDataInput struct {
	SQL string `json:"sql"`
}

type QueryClinicDataOutput struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
	Total   int      `json:"total"`
	Text    string   `json:"text"`
}

func createQueryClinicDataTool(store lookup.Store) tool.InvokableTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolQueryClinicData,
			Desc: "Run one read-only SELECT against the clinic database. Available tables:\n" + lookup.Describe(lookup.Tables),
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"sql": {
					Type:     "string",
					Desc:     fmt.Sprintf("A single SELECT statement over the listed tables. At most %d rows are returned.", lookup.DefaultRowLimit),
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *QueryClinicDataInput) (*QueryClinicDataOutput, error) {
			statement, err := lookup.Guard(in.SQL, lookup.DefaultRowLimit)
			if err != nil {
				return nil, err
			}
			rows, err := store.Query(ctx, statement)
			if err != nil {
				return nil, err
			}
			return &QueryClinicDataOutput{
				Columns: rows.Columns,
				Rows:    rows.Values,
				Total:   len(rows.Values),
				Text:    rows.Render(),
			}, nil
		},
	)
}
