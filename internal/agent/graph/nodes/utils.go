package nodes

import (
	"context"
	"fmt"

	"github.com/clinic-frontdesk/agent/internal/agent/handlers"
	"github.com/clinic-frontdesk/agent/internal/agent/model"
)

const DefaultMaxTurns = 6

// ===== Small helpers to keep handlers simple/readable =====
// normalizeMaxTurns returns a sane default when the provided value is invalid.
func normalizeMaxTurns(n int) int {
	if n <= 0 {
		return DefaultMaxTurns
	}
	return n
}

// incrementTurnAndCheck counts one supervisor iteration and marks the state
// when the count exceeds the limit. Returns true when exceeded.
func incrementTurnAndCheck(state *model.AppState, max int) bool {
	max = normalizeMaxTurns(max)
	state.TurnCount++
	if state.TurnCount > max {
		state.LoopGuardTripped = true
		return true
	}
	return false
}

// invokeSafely runs a handler and turns a panic into an error.
func invokeSafely(ctx context.Context, h handlers.Handler, s *model.Session) (res handlers.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler %s panic: %v", h.ID(), r)
		}
	}()
	return h.Invoke(ctx, s)
}

func handlerNames(ids []model.HandlerID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
