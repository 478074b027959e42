package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/clinic-frontdesk/agent/internal/agent/model"
)

var (
	//go:embed template/supervisor.txt
	supervisorPrompt string
	//go:embed template/smalltalk.txt
	smallTalkPrompt string
	//go:embed template/inquiry.txt
	inquiryPrompt string
	//go:embed template/booking_extract.txt
	bookingExtractPrompt string
	//go:embed template/booking_reply.txt
	bookingReplyPrompt string
	//go:embed template/lookup_sql.txt
	lookupSQLPrompt string
	//go:embed template/lookup_summary.txt
	lookupSummaryPrompt string
)

// render formats a system template through the Eino prompt component so
// prompt callbacks fire for every rendered prompt.
func render(ctx context.Context, name, tpl string, vars map[string]any) (string, error) {
	t := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(tpl),
	)
	msgs, err := t.Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("%s prompt render: %w", name, err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("%s prompt render: empty result", name)
	}
	return msgs[0].Content, nil
}

func base(cfg model.PromptConfig) map[string]any {
	lang := strings.TrimSpace(cfg.Language)
	if lang == "" {
		lang = "Bahasa Indonesia"
	}
	return map[string]any{
		"ClinicName":    cfg.ClinicName,
		"AssistantName": cfg.AssistantName,
		"Language":      lang,
	}
}

// RenderSupervisor renders the routing classifier prompt for the given session.
func RenderSupervisor(ctx context.Context, cfg model.PromptConfig, s *model.Session) (string, error) {
	vars := base(cfg)
	vars["BookingActive"] = s.ActiveFlow == model.HandlerBooking
	vars["AwaitingConfirmation"] = s.AwaitingConfirmation
	vars["Slots"] = s.Slots.Summary()
	return render(ctx, "supervisor", supervisorPrompt, vars)
}

func RenderSmallTalk(ctx context.Context, cfg model.PromptConfig) (string, error) {
	return render(ctx, "smalltalk", smallTalkPrompt, base(cfg))
}

// RenderInquiry renders the grounded answer prompt around the retrieved context.
func RenderInquiry(ctx context.Context, cfg model.PromptConfig, docs string) (string, error) {
	vars := base(cfg)
	vars["Context"] = docs
	return render(ctx, "inquiry", inquiryPrompt, vars)
}

func RenderBookingExtract(ctx context.Context, cfg model.PromptConfig) (string, error) {
	return render(ctx, "booking_extract", bookingExtractPrompt, base(cfg))
}

// RenderBookingReply renders either the follow-up question for missing or the
// confirmation request when confirm is set.
func RenderBookingReply(ctx context.Context, cfg model.PromptConfig, slots model.Slots, missing model.SlotName, confirm bool) (string, error) {
	vars := base(cfg)
	vars["Slots"] = slots.Summary()
	vars["Missing"] = string(missing)
	vars["Confirm"] = confirm
	return render(ctx, "booking_reply", bookingReplyPrompt, vars)
}

func RenderLookupSQL(ctx context.Context, cfg model.PromptConfig, schemaDesc string, rowLimit int) (string, error) {
	vars := base(cfg)
	vars["Schema"] = schemaDesc
	vars["RowLimit"] = rowLimit
	return render(ctx, "lookup_sql", lookupSQLPrompt, vars)
}

func RenderLookupSummary(ctx context.Context, cfg model.PromptConfig, rows string) (string, error) {
	vars := base(cfg)
	vars["Rows"] = rows
	return render(ctx, "lookup_summary", lookupSummaryPrompt, vars)
}
