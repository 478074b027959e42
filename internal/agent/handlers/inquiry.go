package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/clinic-frontdesk/agent/internal/agent/graph/prompts"
	"github.com/clinic-frontdesk/agent/internal/agent/model"
	errx "github.com/clinic-frontdesk/agent/internal/core/error"
	"github.com/clinic-frontdesk/agent/internal/retrieval"
	logx "github.com/clinic-frontdesk/agent/pkg/logger"
)

// Retriever returns the documents relevant to a query, best first.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]retrieval.Candidate, error)
}

// Inquiry answers knowledge questions strictly from retrieved documents.
type Inquiry struct {
	chatModel einomodel.BaseChatModel
	retriever Retriever
	prompt    model.PromptConfig
}

func NewInquiry(cm einomodel.BaseChatModel, r Retriever, prompt model.PromptConfig) *Inquiry {
	return &Inquiry{chatModel: cm, retriever: r, prompt: prompt}
}

func (h *Inquiry) ID() model.HandlerID { return model.HandlerInquiry }

func (h *Inquiry) Invoke(ctx context.Context, s *model.Session) (Result, error) {
	question, ok := lastUserText(s)
	if !ok {
		return reply(model.ReplyNotUnderstood), nil
	}

	docs, err := h.retriever.Retrieve(ctx, question)
	switch {
	case errors.Is(err, retrieval.ErrServiceUnavailable):
		logx.Warn().Err(err).Str("session_key", s.Key).Msg("Knowledge retrieval unavailable")
		return reply(model.ReplyServiceUnavailable), nil
	case errors.Is(err, retrieval.ErrNoInformation), errors.Is(err, retrieval.ErrInvalidQuery):
		return reply(model.ReplyNoInformation), nil
	case err != nil:
		return Result{}, err
	}

	system, err := prompts.RenderInquiry(ctx, h.prompt, RenderContext(docs))
	if err != nil {
		return Result{}, err
	}
	out, err := generate(ctx, h.chatModel, []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(question),
	})
	if errors.Is(err, errx.ErrEmptyGeneration) {
		return reply(model.ReplyNoGeneration), nil
	}
	if err != nil {
		return Result{}, err
	}
	return reply(out), nil
}

// RenderContext numbers the documents for the answer prompt.
func RenderContext(docs []retrieval.Candidate) string {
	var b strings.Builder
	for i, d := range docs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%d]", i+1)
		if h := strings.TrimSpace(d.Heading); h != "" {
			b.WriteString(" " + h)
		}
		b.WriteString("\n")
		b.WriteString(strings.TrimSpace(d.Text))
	}
	return b.String()
}
