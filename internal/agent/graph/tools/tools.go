package tools

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/clinic-frontdesk/agent/internal/agent/handlers"
	"github.com/clinic-frontdesk/agent/internal/lookup"
)

const (
	ToolSearchKnowledgeBase = "search_knowledge_base"
	ToolQueryClinicData     = "query_clinic_data"
)

// GetClinicTools returns the tools backed by the available collaborators.
// A nil retriever or store leaves its tool out.
func GetClinicTools(r handlers.Retriever, store lookup.Store) []tool.InvokableTool {
	var out []tool.InvokableTool
	if r != nil {
		out = append(out, createSearchKnowledgeBaseTool(r))
	}
	if store != nil {
		out = append(out, createQueryClinicDataTool(store))
	}
	return out
}

// GetToolInfos collects the schema of every tool.
func GetToolInfos(ctx context.Context, tools []tool.InvokableTool) ([]*schema.ToolInfo, error) {
	infos := make([]*schema.ToolInfo, 0, len(tools))
	for _, t := range tools {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("tool info: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}
