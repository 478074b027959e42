package handlers

import (
	"context"
	"errors"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/clinic-frontdesk/agent/internal/agent/graph/prompts"
	"github.com/clinic-frontdesk/agent/internal/agent/model"
	errx "github.com/clinic-frontdesk/agent/internal/core/error"
	"github.com/clinic-frontdesk/agent/internal/lookup"
	logx "github.com/clinic-frontdesk/agent/pkg/logger"
)

// StructuredLookup answers questions about live clinic data: it writes a
// query, runs it read-only and summarizes the rows.
type StructuredLookup struct {
	writer   einomodel.BaseChatModel
	summary  einomodel.BaseChatModel
	store    lookup.Store
	prompt   model.PromptConfig
	rowLimit int
}

// NewStructuredLookup takes the model that writes SQL and the one that phrases the answer.
func NewStructuredLookup(writer, summary einomodel.BaseChatModel, store lookup.Store, prompt model.PromptConfig) *StructuredLookup {
	return &StructuredLookup{
		writer:   writer,
		summary:  summary,
		store:    store,
		prompt:   prompt,
		rowLimit: lookup.DefaultRowLimit,
	}
}

func (h *StructuredLookup) ID() model.HandlerID { return model.HandlerLookup }

func (h *StructuredLookup) Invoke(ctx context.Context, s *model.Session) (Result, error) {
	question, ok := lastUserText(s)
	if !ok {
		return reply(model.ReplyNotUnderstood), nil
	}

	rows, err := h.query(ctx, s.Key, question)
	if errors.Is(err, errx.ErrEmptyGeneration) {
		return reply(model.ReplyNoGeneration), nil
	}
	if err != nil {
		logx.Warn().Err(err).Str("session_key", s.Key).Msg("Structured lookup failed")
		return reply(model.ReplyDatabaseUnavailable), nil
	}

	system, err := prompts.RenderLookupSummary(ctx, h.prompt, rows.Render())
	if err != nil {
		return Result{}, err
	}
	out, err := generate(ctx, h.summary, []*schema.Message{
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

func (h *StructuredLookup) query(ctx context.Context, sessionKey, question string) (lookup.Rows, error) {
	tables := lookup.SelectTables(question)
	system, err := prompts.RenderLookupSQL(ctx, h.prompt, lookup.Describe(tables), h.rowLimit)
	if err != nil {
		return lookup.Rows{}, err
	}
	statement, err := generate(ctx, h.writer, []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(question),
	})
	if err != nil {
		return lookup.Rows{}, err
	}
	guarded, err := lookup.Guard(statement, h.rowLimit)
	if err != nil {
		return lookup.Rows{}, err
	}
	logx.Debug().
		Str("session_key", sessionKey).
		Strs("tables", lookup.TableNames(tables)).
		Str("sql", guarded).
		Msg("Running structured lookup")
	return h.store.Query(ctx, guarded)
}
