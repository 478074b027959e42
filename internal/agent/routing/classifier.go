package routing

import (
	"context"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/clinic-frontdesk/agent/internal/agent/graph/conversations"
	"github.com/clinic-frontdesk/agent/internal/agent/graph/parsers"
	"github.com/clinic-frontdesk/agent/internal/agent/graph/prompts"
	"github.com/clinic-frontdesk/agent/internal/agent/model"
	errx "github.com/clinic-frontdesk/agent/internal/core/error"
)

// Classifier labels the latest user message of a session.
type Classifier interface {
	Classify(ctx context.Context, s *model.Session) (*parsers.Classification, error)
}

// LLMClassifier asks the router chat model for a JSON routing decision.
type LLMClassifier struct {
	chatModel einomodel.BaseChatModel
	prompt    model.PromptConfig
	window    int
}

func NewLLMClassifier(cm einomodel.BaseChatModel, prompt model.PromptConfig, window int) *LLMClassifier {
	return &LLMClassifier{chatModel: cm, prompt: prompt, window: window}
}

func (c *LLMClassifier) Classify(ctx context.Context, s *model.Session) (*parsers.Classification, error) {
	system, err := prompts.RenderSupervisor(ctx, c.prompt, s)
	if err != nil {
		return nil, err
	}
	msgs := []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(conversations.ClassifierContext(s.Recent(c.window))),
	}
	out, err := c.chatModel.Generate(ctx, msgs)
	if err != nil {
		return nil, errx.WrapUpstream(fmt.Errorf("router model: %w", err))
	}
	if out == nil {
		return nil, errx.ErrEmptyGeneration
	}
	return parsers.ParseClassification(out.Content)
}
