package routing

import (
	"context"

	"github.com/clinic-frontdesk/agent/internal/agent/model"
	logx "github.com/clinic-frontdesk/agent/pkg/logger"
)

// Input is what the supervisor sees at one iteration.
type Input struct {
	Session    *model.Session
	Requested  []model.HandlerID
	Dispatched []model.HandlerID
}

// Decision is the supervisor's pick plus, after a fresh user message, the
// actions that message asked for. Requested is nil when unchanged.
type Decision struct {
	Route     model.RouteDecision
	Requested []model.HandlerID
}

// Supervisor decides which handler runs next.
type Supervisor struct {
	classifier Classifier
	enabled    map[model.HandlerID]bool
}

// NewSupervisor builds a supervisor routing only to the enabled handlers.
// SmallTalk is always enabled since it is the fallback.
func NewSupervisor(c Classifier, enabled ...model.HandlerID) *Supervisor {
	if len(enabled) == 0 {
		enabled = model.Handlers
	}
	set := map[model.HandlerID]bool{model.HandlerSmallTalk: true}
	for _, h := range enabled {
		if h.IsHandler() {
			set[h] = true
		}
	}
	return &Supervisor{classifier: c, enabled: set}
}

// Decide never fails: every classifier problem degrades to SmallTalk.
func (s *Supervisor) Decide(ctx context.Context, in Input) Decision {
	last, ok := in.Session.LastMessage()
	if !ok {
		return Decision{Route: model.RouteDecision{Target: model.Terminate, Reason: "empty session"}}
	}

	if last.Role == model.RoleAssistant {
		if next, ok := s.undispatched(in); ok {
			return Decision{Route: model.RouteDecision{Target: next, Reason: "chained action"}}
		}
		return Decision{Route: model.RouteDecision{Target: model.Terminate, Reason: "awaiting user"}}
	}

	target, actions, reason := s.classify(ctx, in.Session)
	target, reason = s.overlayActiveFlow(in.Session, last.Content, target, reason)

	if !s.enabled[target] {
		logx.Warn().Str("target", target.String()).Msg("Route target not enabled, falling back to small talk")
		target, reason = model.HandlerSmallTalk, "handler not enabled"
	}

	requested := []model.HandlerID{target}
	seen := map[model.HandlerID]bool{target: true}
	for _, a := range actions {
		if !seen[a] && s.enabled[a] {
			seen[a] = true
			requested = append(requested, a)
		}
	}

	logx.Debug().
		Str("session_key", in.Session.Key).
		Str("target", target.String()).
		Str("reason", reason).
		Int("requested", len(requested)).
		Msg("Route decided")

	return Decision{
		Route:     model.RouteDecision{Target: target, Reason: reason},
		Requested: requested,
	}
}

func (s *Supervisor) classify(ctx context.Context, sess *model.Session) (model.HandlerID, []model.HandlerID, string) {
	c, err := s.classifier.Classify(ctx, sess)
	if err != nil {
		logx.Warn().Err(err).Str("session_key", sess.Key).Msg("Classification failed, falling back to small talk")
		return model.HandlerSmallTalk, nil, "classification failed"
	}
	if c.Next == model.Terminate || !c.Next.IsHandler() {
		return model.HandlerSmallTalk, nil, "finish on fresh user message"
	}

	target, actions := c.Next, c.Actions
	// a resumable handler goes first so the remaining actions can chain after it
	if !target.IsResumable() {
		for _, a := range actions {
			if a.IsResumable() && s.enabled[a] {
				actions = append([]model.HandlerID{target}, actions...)
				target = a
				break
			}
		}
	}
	return target, actions, c.Reason
}

// overlayActiveFlow keeps an active flow in charge of short answers and lets
// specific questions interrupt it.
func (s *Supervisor) overlayActiveFlow(sess *model.Session, text string, target model.HandlerID, reason string) (model.HandlerID, string) {
	flow := sess.ActiveFlow
	if flow == "" || !s.enabled[flow] {
		return target, reason
	}
	if to, ok := InterruptionTarget(text); ok {
		if target == model.HandlerInquiry || target == model.HandlerLookup {
			return target, "interruption"
		}
		return to, "interruption"
	}
	if IsShortAnswer(text) {
		return flow, "resume active flow"
	}
	return target, reason
}

func (s *Supervisor) undispatched(in Input) (model.HandlerID, bool) {
	st := model.AppState{Requested: in.Requested, Dispatched: in.Dispatched}
	next, ok := st.Undispatched()
	if !ok || !s.enabled[next] {
		return "", false
	}
	return next, true
}
