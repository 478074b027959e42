// Package handlers holds the specialist handlers the supervisor dispatches to.
package handlers

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/clinic-frontdesk/agent/internal/agent/graph/parsers"
	"github.com/clinic-frontdesk/agent/internal/agent/model"
	errx "github.com/clinic-frontdesk/agent/internal/core/error"
)

// Result is what a handler hands back to the supervisor.
type Result struct {
	Messages []string
	Patch    model.Patch
	// ResumesRouting sends control back to the supervisor instead of ending the turn.
	ResumesRouting bool
}

// Handler answers one session snapshot. Implementations never mutate s.
type Handler interface {
	ID() model.HandlerID
	Invoke(ctx context.Context, s *model.Session) (Result, error)
}

func reply(msg string) Result {
	return Result{Messages: []string{msg}}
}

// generate runs one completion and returns its cleaned text. An answer that
// carries no content yields errx.ErrEmptyGeneration.
func generate(ctx context.Context, cm einomodel.BaseChatModel, msgs []*schema.Message) (string, error) {
	out, err := cm.Generate(ctx, msgs)
	if err != nil {
		return "", errx.WrapUpstream(fmt.Errorf("chat model: %w", err))
	}
	if out == nil || parsers.IsEmptyGeneration(out.Content) {
		return "", errx.ErrEmptyGeneration
	}
	return strings.TrimSpace(parsers.Clean(out.Content)), nil
}

func lastUserText(s *model.Session) (string, bool) {
	m, ok := s.LastUserMessage()
	if !ok || strings.TrimSpace(m.Content) == "" {
		return "", false
	}
	return strings.TrimSpace(m.Content), true
}
