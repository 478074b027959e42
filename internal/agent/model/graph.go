package model

// Phase is the supervisor state within one turn.
type Phase string

const (
	PhaseRouting    Phase = "ROUTING"
	PhaseDispatched Phase = "DISPATCHED"
	PhaseTerminated Phase = "TERMINATED"
)

// AppState stores per-turn state for the Eino Graph.
// Concurrency model:
//   - This struct is registered as Graph Local State via compose.WithGenLocalState.
//   - All reads/writes happen only inside Eino state handlers:
//     WithStatePreHandler, WithStatePostHandler, or compose.ProcessState.
//   - Handlers receive a cloned Session and never touch AppState directly.
type AppState struct {
	SessionKey string
	Session    *Session
	Phase      Phase
	TurnCount  int
	Decision   RouteDecision

	// Requested holds the actions the classifier read from the current user
	// message; Dispatched records which handlers already ran this turn.
	Requested  []HandlerID
	Dispatched []HandlerID

	Replies          []Message
	LoopGuardTripped bool

	// Accumulated total LLM cost (USD) across model invocations for this turn
	TotalCostUSD float64
}

// Undispatched returns the first requested action that has not run yet.
func (s *AppState) Undispatched() (HandlerID, bool) {
	for _, want := range s.Requested {
		ran := false
		for _, got := range s.Dispatched {
			if got == want {
				ran = true
				break
			}
		}
		if !ran {
			return want, true
		}
	}
	return "", false
}

// TurnInput is the public input of one conversation turn.
type TurnInput struct {
	SessionKey string `json:"session_key"`
	Query      string `json:"query"`
}

// TurnResult is returned once the turn reaches TERMINATED.
type TurnResult struct {
	SessionKey       string   `json:"session_key"`
	Replies          []string `json:"replies"`
	Handlers         []string `json:"handlers"`
	TurnCount        int      `json:"turn_count"`
	LoopGuardTripped bool     `json:"loop_guard_tripped,omitempty"`
	CostUSD          float64  `json:"cost_usd"`
	Session          *Session `json:"-"`
}

// Text joins all replies of the turn.
func (r *TurnResult) Text() string {
	if r == nil {
		return ""
	}
	out := ""
	for i, s := range r.Replies {
		if i > 0 {
			out += "\n\n"
		}
		out += s
	}
	return out
}
