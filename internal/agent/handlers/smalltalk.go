package handlers

import (
	"context"
	"errors"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/clinic-frontdesk/agent/internal/agent/graph/prompts"
	"github.com/clinic-frontdesk/agent/internal/agent/model"
	errx "github.com/clinic-frontdesk/agent/internal/core/error"
)

// SmallTalk replies to greetings, thanks and chit-chat. It keeps no state.
type SmallTalk struct {
	chatModel einomodel.BaseChatModel
	prompt    model.PromptConfig
}

func NewSmallTalk(cm einomodel.BaseChatModel, prompt model.PromptConfig) *SmallTalk {
	return &SmallTalk{chatModel: cm, prompt: prompt}
}

func (h *SmallTalk) ID() model.HandlerID { return model.HandlerSmallTalk }

func (h *SmallTalk) Invoke(ctx context.Context, s *model.Session) (Result, error) {
	text, ok := lastUserText(s)
	if !ok {
		return reply(model.ReplyGreeting), nil
	}
	system, err := prompts.RenderSmallTalk(ctx, h.prompt)
	if err != nil {
		return Result{}, err
	}
	out, err := generate(ctx, h.chatModel, []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(text),
	})
	if errors.Is(err, errx.ErrEmptyGeneration) {
		return reply(model.ReplyNoGeneration), nil
	}
	if err != nil {
		return Result{}, err
	}
	return reply(out), nil
}
