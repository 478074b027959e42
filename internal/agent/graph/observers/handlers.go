package observers

import (
	einocb "github.com/cloudwego/eino/callbacks"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"
)

// NewAllCallbacks logs the lifecycle of every graph node, chat model,
// prompt and tool of a turn.
func NewAllCallbacks() einocb.Handler {
	return callbackHelper.NewHandlerHelper().
		Lambda(newNodeHandler()).
		ChatModel(newModelHandler()).
		Prompt(newPromptHandler()).
		Tool(newToolHandler()).
		Handler()
}
