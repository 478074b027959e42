package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/tool"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/clinic-frontdesk/agent/internal/agent/graph"
	"github.com/clinic-frontdesk/agent/internal/agent/graph/observers"
	"github.com/clinic-frontdesk/agent/internal/agent/model"
	logx "github.com/clinic-frontdesk/agent/pkg/logger"
)

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	tools  map[string]tool.InvokableTool
	runner graph.Runner
}

// CallTool forwards the call arguments to the named eino tool as JSON.
func (h *Handlers) CallTool(name string) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		t, ok := h.tools[name]
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("unknown tool %q", name)), nil
		}

		args := request.GetArguments()
		if args == nil {
			args = map[string]any{}
		}
		raw, err := json.Marshal(args)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		ctx = callbacks.InitCallbacks(ctx, &callbacks.RunInfo{
			Name:      name,
			Type:      "MCP",
			Component: components.ComponentOfTool,
		}, observers.NewToolCallbacks())
		ctx = callbacks.OnStart(ctx, &tool.CallbackInput{ArgumentsInJSON: string(raw)})

		out, err := t.InvokableRun(ctx, string(raw))
		if err != nil {
			callbacks.OnError(ctx, err)
			return mcp.NewToolResultError(err.Error()), nil
		}
		callbacks.OnEnd(ctx, &tool.CallbackOutput{Response: out})
		return mcp.NewToolResultText(out), nil
	}
}

// AskFrontDesk handles the ask_front_desk tool
func (h *Handlers) AskFrontDesk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil || strings.TrimSpace(query) == "" {
		return mcp.NewToolResultError("query argument is required and must be a non-empty string"), nil
	}
	sessionKey := strings.TrimSpace(request.GetString("session_key", ""))
	if sessionKey == "" {
		sessionKey = "mcp-" + uuid.New().String()
	}

	out, err := h.runner.Invoke(ctx, model.TurnInput{SessionKey: sessionKey, Query: query})
	if err != nil {
		logx.Error().Err(err).Str("session_key", sessionKey).Msg("MCP ask failed")
		return mcp.NewToolResultError(fmt.Sprintf("turn failed: %v", err)), nil
	}

	payload, err := json.Marshal(map[string]any{
		"session_key": sessionKey,
		"replies":     out.Replies,
		"handlers":    out.Handlers,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}
