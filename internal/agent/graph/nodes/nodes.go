package nodes

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/compose"

	"github.com/clinic-frontdesk/agent/internal/agent/graph/conversations"
	"github.com/clinic-frontdesk/agent/internal/agent/handlers"
	"github.com/clinic-frontdesk/agent/internal/agent/model"
	"github.com/clinic-frontdesk/agent/internal/agent/routing"
	logx "github.com/clinic-frontdesk/agent/pkg/logger"
)

// Graph node keys
const (
	NodePrepare    = "prepare"
	NodeSupervisor = "supervisor"
	NodeLoopGuard  = "loop_guard"
	NodeFinalize   = "finalize"
)

// Decider picks the next step of a turn.
type Decider interface {
	Decide(ctx context.Context, in routing.Input) routing.Decision
}

// loopGuardTarget is the step target that sends the turn to the loop guard.
const loopGuardTarget model.HandlerID = NodeLoopGuard

// HandlerNode is the graph node key of a handler.
func HandlerNode(id model.HandlerID) string {
	return "handler_" + string(id)
}

func now() time.Time { return time.Now().UTC() }

// NewPreparePreHandler resets the per-turn state before a new user message.
func NewPreparePreHandler() func(context.Context, model.TurnInput, *model.AppState) (model.TurnInput, error) {
	return func(ctx context.Context, in model.TurnInput, s *model.AppState) (model.TurnInput, error) {
		s.SessionKey = in.SessionKey
		s.Phase = model.PhaseRouting
		s.TurnCount = 0
		s.Decision = model.RouteDecision{}
		s.Requested = nil
		s.Dispatched = nil
		s.Replies = nil
		s.LoopGuardTripped = false
		s.TotalCostUSD = 0
		return in, nil
	}
}

// NewPrepareNode loads the session and appends the user message.
func NewPrepareNode(mm *conversations.SessionManager) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.TurnInput) (model.Step, error) {
		session, err := mm.Begin(ctx, in.SessionKey, in.Query)
		if err != nil {
			return model.Step{}, fmt.Errorf("error loading session: %w", err)
		}
		err = compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			state.Session = session
			return nil
		})
		if err != nil {
			return model.Step{}, fmt.Errorf("failed to access state: %w", err)
		}
		logx.Debug().
			Str("session_key", in.SessionKey).
			Str("active_flow", session.ActiveFlow.String()).
			Int("messages", len(session.Messages)).
			Msg("Session loaded")
		return model.Step{}, nil
	})
}

// NewSupervisorNode runs one supervisor iteration. The decision is made on a
// session snapshot outside the state lock.
func NewSupervisorNode(dec Decider, maxTurns int) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, _ model.Step) (model.Step, error) {
		var (
			in      routing.Input
			tripped bool
			turn    int
		)
		err := compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			if state.Session == nil {
				return fmt.Errorf("missing session in state")
			}
			state.Phase = model.PhaseRouting
			tripped = incrementTurnAndCheck(state, maxTurns)
			turn = state.TurnCount
			in = routing.Input{
				Session:    state.Session.Clone(),
				Requested:  append([]model.HandlerID(nil), state.Requested...),
				Dispatched: append([]model.HandlerID(nil), state.Dispatched...),
			}
			return nil
		})
		if err != nil {
			return model.Step{}, fmt.Errorf("failed to access state: %w", err)
		}
		if tripped {
			return model.Step{Target: loopGuardTarget}, nil
		}

		d := dec.Decide(ctx, in)

		err = compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			state.Decision = d.Route
			if d.Requested != nil {
				state.Requested = d.Requested
			}
			if d.Route.Target == model.Terminate {
				state.Phase = model.PhaseTerminated
			}
			return nil
		})
		if err != nil {
			return model.Step{}, fmt.Errorf("failed to access state: %w", err)
		}

		logx.Debug().
			Str("session_key", in.Session.Key).
			Int("turn_count", turn).
			Str("target", d.Route.Target.String()).
			Str("reason", d.Route.Reason).
			Msg("Supervisor decided")
		return model.Step{Target: d.Route.Target}, nil
	})
}

// NewSupervisorCondition routes the supervisor's pick to its node.
func NewSupervisorCondition(enabled map[model.HandlerID]bool) func(context.Context, model.Step) (string, error) {
	return func(ctx context.Context, step model.Step) (string, error) {
		switch {
		case step.Target == loopGuardTarget:
			return NodeLoopGuard, nil
		case step.Target == model.Terminate:
			return NodeFinalize, nil
		case enabled[step.Target]:
			return HandlerNode(step.Target), nil
		}
		logx.Warn().Str("target", step.Target.String()).Msg("No node for route target - finishing turn")
		return NodeFinalize, nil
	}
}

// NewHandlerNode invokes h on a session snapshot and applies its result. A
// failing handler yields the technical-difficulty reply and ends the turn.
func NewHandlerNode(h handlers.Handler) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, _ model.Step) (model.Step, error) {
		var snapshot *model.Session
		err := compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			state.Phase = model.PhaseDispatched
			snapshot = state.Session.Clone()
			return nil
		})
		if err != nil {
			return model.Step{}, fmt.Errorf("failed to access state: %w", err)
		}

		res, herr := invokeSafely(ctx, h, snapshot)
		if herr != nil {
			logx.Error().
				Err(herr).
				Str("session_key", snapshot.Key).
				Str("handler", h.ID().String()).
				Msg("Handler failed")
			res = handlers.Result{Messages: []string{model.ReplyHandlerFailure}}
		}

		err = compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			state.Dispatched = append(state.Dispatched, h.ID())
			state.Session.Apply(res.Patch)
			for _, text := range res.Messages {
				msg := model.AssistantMessage(h.ID(), text, now())
				state.Session.Append(msg)
				state.Replies = append(state.Replies, msg)
			}
			if res.ResumesRouting {
				state.Phase = model.PhaseRouting
			} else {
				state.Phase = model.PhaseTerminated
			}
			return nil
		})
		if err != nil {
			return model.Step{}, fmt.Errorf("failed to access state: %w", err)
		}
		return model.Step{Target: h.ID(), Resume: res.ResumesRouting}, nil
	})
}

// NewHandlerCondition returns to the supervisor after resumable handlers.
func NewHandlerCondition() func(context.Context, model.Step) (string, error) {
	return func(ctx context.Context, step model.Step) (string, error) {
		if step.Resume {
			return NodeSupervisor, nil
		}
		return NodeFinalize, nil
	}
}

// NewLoopGuardNode ends a runaway turn with a single apology.
func NewLoopGuardNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, _ model.Step) (model.Step, error) {
		err := compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			logx.Error().
				Str("session_key", state.SessionKey).
				Int("turn_count", state.TurnCount).
				Strs("dispatched", handlerNames(state.Dispatched)).
				Msg("Loop guard tripped - ending turn")
			msg := model.AssistantMessage("", model.ReplyLoopGuard, now())
			state.Session.Append(msg)
			state.Replies = append(state.Replies, msg)
			state.LoopGuardTripped = true
			state.Phase = model.PhaseTerminated
			return nil
		})
		if err != nil {
			return model.Step{}, fmt.Errorf("failed to access state: %w", err)
		}
		return model.Step{Target: model.Terminate}, nil
	})
}

// NewFinalizeNode persists the session and assembles the turn result.
func NewFinalizeNode(mm *conversations.SessionManager) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, _ model.Step) (*model.TurnResult, error) {
		var (
			session *model.Session
			result  *model.TurnResult
		)
		err := compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			state.Phase = model.PhaseTerminated
			session = state.Session
			result = &model.TurnResult{
				SessionKey:       state.SessionKey,
				Replies:          make([]string, 0, len(state.Replies)),
				Handlers:         handlerNames(state.Dispatched),
				TurnCount:        state.TurnCount,
				LoopGuardTripped: state.LoopGuardTripped,
				CostUSD:          state.TotalCostUSD,
			}
			for _, m := range state.Replies {
				result.Replies = append(result.Replies, m.Content)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		if err := mm.Save(ctx, session); err != nil {
			logx.Error().
				Str("session_key", result.SessionKey).
				Err(err).
				Msg("Error saving session")
			return nil, fmt.Errorf("error saving session: %w", err)
		}
		result.Session = session
		return result, nil
	})
}
