// Package mcp serves the clinic tools over the Model Context Protocol.
package mcp

import (
	"context"
	"sort"

	"github.com/cloudwego/eino/components/tool"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/clinic-frontdesk/agent/internal/agent/graph"
	clinictools "github.com/clinic-frontdesk/agent/internal/agent/graph/tools"
	logx "github.com/clinic-frontdesk/agent/pkg/logger"
)

const ToolAskFrontDesk = "ask_front_desk"

// inputSchemas holds the MCP input schema of every tool the server knows.
var inputSchemas = map[string]mcp.ToolInputSchema{
	clinictools.ToolSearchKnowledgeBase: {
		Type: "object",
		Properties: map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "Question or keywords, e.g. 'harga facial'",
			},
			"max_results": map[string]interface{}{
				"type":        "number",
				"description": "Maximum number of documents to return (max: 20)",
			},
		},
		Required: []string{"query"},
	},
	clinictools.ToolQueryClinicData: {
		Type: "object",
		Properties: map[string]interface{}{
			"sql": map[string]interface{}{
				"type":        "string",
				"description": "A single read-only SELECT statement over the clinic tables",
			},
		},
		Required: []string{"sql"},
	},
	ToolAskFrontDesk: {
		Type: "object",
		Properties: map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "Patient message to the front desk assistant",
			},
			"session_key": map[string]interface{}{
				"type":        "string",
				"description": "Conversation key; reuse it to continue a conversation (default: new conversation)",
			},
		},
		Required: []string{"query"},
	},
}

// RegisterTools registers the eino tools and, with a runner, the
// ask_front_desk tool. Tools without a known input schema are skipped.
func RegisterTools(ctx context.Context, server *mcpserver.MCPServer, clinicTools []tool.InvokableTool, runner graph.Runner) (*Handlers, error) {
	handlers := &Handlers{
		tools:  map[string]tool.InvokableTool{},
		runner: runner,
	}

	for _, t := range clinicTools {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, err
		}
		schema, ok := inputSchemas[info.Name]
		if !ok {
			logx.Warn().Str("tool", info.Name).Msg("No MCP schema for tool - skipping")
			continue
		}
		handlers.tools[info.Name] = t
		server.AddTool(mcp.Tool{
			Name:        info.Name,
			Description: info.Desc,
			InputSchema: schema,
		}, handlers.CallTool(info.Name))
	}

	if runner != nil {
		server.AddTool(mcp.Tool{
			Name:        ToolAskFrontDesk,
			Description: "Send a patient message to the clinic front desk assistant and get its replies. Bookings span several calls with the same session_key.",
			InputSchema: inputSchemas[ToolAskFrontDesk],
		}, handlers.AskFrontDesk)
	}

	logx.Info().Strs("tools", handlers.Names()).Msg("MCP tools registered")
	return handlers, nil
}

// Names lists the registered tool names.
func (h *Handlers) Names() []string {
	names := make([]string, 0, len(h.tools)+1)
	for name := range h.tools {
		names = append(names, name)
	}
	if h.runner != nil {
		names = append(names, ToolAskFrontDesk)
	}
	sort.Strings(names)
	return names
}
