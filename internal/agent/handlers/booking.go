package handlers

import (
	"context"
	"errors"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/clinic-frontdesk/agent/internal/agent/graph/conversations"
	"github.com/clinic-frontdesk/agent/internal/agent/graph/parsers"
	"github.com/clinic-frontdesk/agent/internal/agent/graph/prompts"
	"github.com/clinic-frontdesk/agent/internal/agent/model"
	errx "github.com/clinic-frontdesk/agent/internal/core/error"
	logx "github.com/clinic-frontdesk/agent/pkg/logger"
)

// Booking collects appointment details over several turns. It owns the
// conversation through ActiveFlow until the booking is confirmed or cancelled.
type Booking struct {
	extractor einomodel.BaseChatModel
	responder einomodel.BaseChatModel
	prompt    model.PromptConfig
	window    int
}

// NewBooking takes the extraction model, the reply model and how many recent
// messages extraction reads.
func NewBooking(extractor, responder einomodel.BaseChatModel, prompt model.PromptConfig, window int) *Booking {
	if window <= 0 {
		window = 6
	}
	return &Booking{extractor: extractor, responder: responder, prompt: prompt, window: window}
}

func (h *Booking) ID() model.HandlerID { return model.HandlerBooking }

func (h *Booking) Invoke(ctx context.Context, s *model.Session) (Result, error) {
	if _, ok := lastUserText(s); !ok {
		return Result{Messages: []string{model.ReplyNotUnderstood}, ResumesRouting: true}, nil
	}

	ext, err := h.extract(ctx, s)
	if err != nil {
		return Result{}, err
	}

	if ext.Cancel {
		logx.Info().Str("session_key", s.Key).Msg("Booking cancelled")
		return Result{
			Messages:       []string{model.ReplyBookingCancelled},
			Patch:          model.Patch{ActiveFlow: model.ClearFlow(), ResetSlots: true, AwaitingConfirmation: ptr(false)},
			ResumesRouting: true,
		}, nil
	}

	merged := s.Slots.Merge(ext.Slots)
	if merged.Complete() && s.AwaitingConfirmation && ext.Confirm {
		logx.Info().
			Str("session_key", s.Key).
			Str("slots", merged.Summary()).
			Msg("Booking confirmed")
		return Result{
			Messages:       []string{model.ReplyBookingConfirmed + "\n\n" + merged.Summary()},
			Patch:          model.Patch{ActiveFlow: model.ClearFlow(), ResetSlots: true, AwaitingConfirmation: ptr(false)},
			ResumesRouting: true,
		}, nil
	}

	patch := model.Patch{ActiveFlow: model.SetFlow(model.HandlerBooking), Slots: &ext.Slots}
	if merged.Complete() {
		patch.AwaitingConfirmation = ptr(true)
		return Result{
			Messages:       []string{h.ask(ctx, s, merged, "", true)},
			Patch:          patch,
			ResumesRouting: true,
		}, nil
	}

	patch.AwaitingConfirmation = ptr(false)
	missing := merged.Missing()[0]
	return Result{
		Messages:       []string{h.ask(ctx, s, merged, missing, false)},
		Patch:          patch,
		ResumesRouting: true,
	}, nil
}

// extract reads slots from the recent conversation. Unusable output counts as
// "nothing new"; only a failing model call is an error.
func (h *Booking) extract(ctx context.Context, s *model.Session) (parsers.BookingExtraction, error) {
	system, err := prompts.RenderBookingExtract(ctx, h.prompt)
	if err != nil {
		return parsers.BookingExtraction{}, err
	}
	transcript := model.Transcript(s.Recent(h.window))
	out, err := generate(ctx, h.extractor, []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(transcript),
	})
	if errors.Is(err, errx.ErrEmptyGeneration) {
		return parsers.BookingExtraction{}, nil
	}
	if err != nil {
		return parsers.BookingExtraction{}, err
	}
	ext, err := parsers.ParseBookingExtraction(out)
	if err != nil {
		logx.Warn().Err(err).Str("session_key", s.Key).Msg("Booking extraction unusable, keeping current slots")
		return parsers.BookingExtraction{}, nil
	}
	return ext, nil
}

// ask phrases the next question, falling back to a fixed one when the reply
// model is unavailable.
func (h *Booking) ask(ctx context.Context, s *model.Session, slots model.Slots, missing model.SlotName, confirm bool) string {
	fallback := model.SlotQuestions[missing]
	if confirm {
		fallback = fmt.Sprintf("Mohon konfirmasi data booking berikut:\n%s\nApakah sudah benar? (ya/tidak)", slots.Summary())
	}

	system, err := prompts.RenderBookingReply(ctx, h.prompt, slots, missing, confirm)
	if err != nil {
		return fallback
	}
	out, err := generate(ctx, h.responder, conversations.BuildMessages(system, s.Recent(replyWindow)))
	if err != nil {
		logx.Debug().Err(err).Msg("Booking reply fell back to fixed question")
		return fallback
	}
	return out
}

const replyWindow = 4

func ptr[T any](v T) *T { return &v }
