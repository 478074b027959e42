package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/clinic-frontdesk/agent/internal/agent/graph/conversations"
	"github.com/clinic-frontdesk/agent/internal/agent/graph/nodes"
	"github.com/clinic-frontdesk/agent/internal/agent/graph/observers"
	"github.com/clinic-frontdesk/agent/internal/agent/handlers"
	"github.com/clinic-frontdesk/agent/internal/agent/model"
	"github.com/clinic-frontdesk/agent/internal/agent/routing"
	errx "github.com/clinic-frontdesk/agent/internal/core/error"
	"github.com/clinic-frontdesk/agent/internal/lookup"
	logx "github.com/clinic-frontdesk/agent/pkg/logger"
)

// Runner executes one conversation turn at a time per session.
type Runner interface {
	Invoke(ctx context.Context, in model.TurnInput) (*model.TurnResult, error)
	Stream(ctx context.Context, in model.TurnInput) (*schema.StreamReader[string], error)
}

// Config holds everything needed to compose the full turn graph end-to-end.
// This is a convenience layer over GraphConfig that also constructs ChatModels,
// the handlers and the supervisor.
type Config struct {
	APIKey        string
	BaseURL       string
	RouterModel   model.RouterModelConfig
	ResponseModel model.ResponseModelConfig
	Prompt        model.PromptConfig
	Supervisor    model.SupervisorConfig
	Booking       model.BookingConfig
	Session       model.SessionConfig
	SessionRepo   model.SessionRepository

	// Retriever backs Inquiry and Store backs StructuredLookup. A nil
	// collaborator leaves its handler out of the graph.
	Retriever handlers.Retriever
	Store     lookup.Store
}

// GraphConfig holds all configuration needed to build the graph
type GraphConfig struct {
	SessionManager *conversations.SessionManager
	Decider        nodes.Decider
	Handlers       []handlers.Handler
	MaxTurns       int
}

// GraphBuilder handles the construction of the turn graph
type GraphBuilder struct {
	config  *GraphConfig
	graph   *compose.Graph[model.TurnInput, *model.TurnResult]
	enabled map[model.HandlerID]bool
}

type graphRunner struct {
	runnable compose.Runnable[model.TurnInput, *model.TurnResult]
	sessions *conversations.SessionManager
}

func (r *graphRunner) Invoke(ctx context.Context, in model.TurnInput) (*model.TurnResult, error) {
	in.SessionKey = strings.TrimSpace(in.SessionKey)
	in.Query = strings.TrimSpace(in.Query)
	if in.SessionKey == "" {
		return nil, errx.Validation("session key must not be empty")
	}
	if in.Query == "" {
		return nil, errx.Validation("query must not be empty")
	}

	unlock, err := r.sessions.Lock(ctx, in.SessionKey)
	if err != nil {
		return nil, err
	}
	defer unlock()

	out, err := r.runnable.Invoke(ctx, in, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("graph returned no result")
	}
	logx.Info().
		Str("session_key", out.SessionKey).
		Strs("handlers", out.Handlers).
		Int("turn_count", out.TurnCount).
		Bool("loop_guard", out.LoopGuardTripped).
		Float64("cost_usd", out.CostUSD).
		Msg("Turn completed")
	return out, nil
}

// Stream runs the turn and emits each reply as one chunk.
func (r *graphRunner) Stream(ctx context.Context, in model.TurnInput) (*schema.StreamReader[string], error) {
	out, err := r.Invoke(ctx, in)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray(out.Replies), nil
}

// BuildTurnGraph composes ChatModels, handlers and the supervisor, builds the graph, and returns a Runner.
func BuildTurnGraph(ctx context.Context, cfg Config) (Runner, error) {
	if cfg.SessionRepo == nil {
		return nil, fmt.Errorf("session repo is nil")
	}

	cms, err := nodes.NewChatModels(ctx, nodes.ChatModelConfig{
		APIKey:       cfg.APIKey,
		BaseURL:      cfg.BaseURL,
		RouterConfig: &cfg.RouterModel,
		RespConfig:   &cfg.ResponseModel,
	})
	if err != nil {
		return nil, err
	}

	hs := NewHandlers(cms, cfg)
	enabled := make([]model.HandlerID, 0, len(hs))
	for _, h := range hs {
		enabled = append(enabled, h.ID())
	}
	classifier := routing.NewLLMClassifier(cms.Router, cfg.Prompt, cfg.Supervisor.HistoryWindow)

	return NewRunner(ctx, &GraphConfig{
		SessionManager: conversations.NewSessionManager(cfg.SessionRepo, cfg.Session),
		Decider:        routing.NewSupervisor(classifier, enabled...),
		Handlers:       hs,
		MaxTurns:       cfg.Supervisor.MaxTurns,
	})
}

// NewHandlers builds the handlers whose collaborators are configured.
func NewHandlers(cms *nodes.ChatModels, cfg Config) []handlers.Handler {
	hs := []handlers.Handler{
		handlers.NewSmallTalk(cms.Response, cfg.Prompt),
		handlers.NewBooking(cms.Router, cms.Response, cfg.Prompt, cfg.Booking.ExtractionWindow),
	}
	if cfg.Retriever != nil {
		hs = append(hs, handlers.NewInquiry(cms.Response, cfg.Retriever, cfg.Prompt))
	} else {
		logx.Warn().Msg("No retriever configured - inquiry handler disabled")
	}
	if cfg.Store != nil {
		hs = append(hs, handlers.NewStructuredLookup(cms.Router, cms.Response, cfg.Store, cfg.Prompt))
	} else {
		logx.Warn().Msg("No clinic database configured - lookup handler disabled")
	}
	return hs
}

// NewRunner compiles the graph and wraps it with per-session locking.
func NewRunner(ctx context.Context, config *GraphConfig) (Runner, error) {
	runnable, err := BuildGraph(ctx, config)
	if err != nil {
		return nil, err
	}
	logx.Debug().Msg("Turn graph built successfully")
	return &graphRunner{runnable: runnable, sessions: config.SessionManager}, nil
}

// BuildGraph constructs and returns the compiled turn graph
func BuildGraph(ctx context.Context, config *GraphConfig) (compose.Runnable[model.TurnInput, *model.TurnResult], error) {
	// Basic config validation
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.SessionManager == nil {
		return nil, fmt.Errorf("session manager is nil")
	}
	if config.Decider == nil {
		return nil, fmt.Errorf("decider is nil")
	}
	if len(config.Handlers) == 0 {
		return nil, fmt.Errorf("no handlers configured")
	}

	builder := &GraphBuilder{
		config: config,
		graph: compose.NewGraph[model.TurnInput, *model.TurnResult](
			compose.WithGenLocalState(func(ctx context.Context) *model.AppState {
				return &model.AppState{}
			}),
		),
		enabled: map[model.HandlerID]bool{},
	}

	if err := builder.addNodes(); err != nil {
		return nil, err
	}
	if err := builder.addEdges(); err != nil {
		return nil, err
	}
	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	return builder.compile(ctx)
}

// addNodes adds all processing nodes to the graph
func (b *GraphBuilder) addNodes() error {
	add := func(key string, node *compose.Lambda, opts ...compose.GraphAddNodeOpt) error {
		if err := b.graph.AddLambdaNode(key, node, opts...); err != nil {
			logx.Error().Err(err).Str("node", key).Msg("Error adding node")
			return fmt.Errorf("error adding node %s: %w", key, err)
		}
		return nil
	}

	if err := add(nodes.NodePrepare,
		nodes.NewPrepareNode(b.config.SessionManager),
		compose.WithStatePreHandler(nodes.NewPreparePreHandler()),
	); err != nil {
		return err
	}
	if err := add(nodes.NodeSupervisor, nodes.NewSupervisorNode(b.config.Decider, b.config.MaxTurns)); err != nil {
		return err
	}
	for _, h := range b.config.Handlers {
		if b.enabled[h.ID()] {
			return fmt.Errorf("duplicate handler %s", h.ID())
		}
		b.enabled[h.ID()] = true
		if err := add(nodes.HandlerNode(h.ID()), nodes.NewHandlerNode(h)); err != nil {
			return err
		}
	}
	if err := add(nodes.NodeLoopGuard, nodes.NewLoopGuardNode()); err != nil {
		return err
	}
	return add(nodes.NodeFinalize, nodes.NewFinalizeNode(b.config.SessionManager))
}

// addEdges creates the main flow connections between nodes
func (b *GraphBuilder) addEdges() error {
	edges := [][2]string{
		{compose.START, nodes.NodePrepare},
		{nodes.NodePrepare, nodes.NodeSupervisor},
		{nodes.NodeLoopGuard, nodes.NodeFinalize},
		{nodes.NodeFinalize, compose.END},
	}

	for _, edge := range edges {
		if err := b.graph.AddEdge(edge[0], edge[1]); err != nil {
			logx.Error().Err(err).Str("from", edge[0]).Str("to", edge[1]).Msg("Error adding edge")
			return fmt.Errorf("error adding edge %s -> %s: %w", edge[0], edge[1], err)
		}
	}
	return nil
}

// addBranches creates conditional routing branches
func (b *GraphBuilder) addBranches() error {
	routes := map[string]bool{
		nodes.NodeLoopGuard: true,
		nodes.NodeFinalize:  true,
	}
	for id := range b.enabled {
		routes[nodes.HandlerNode(id)] = true
	}
	supervisorBranch := compose.NewGraphBranch(nodes.NewSupervisorCondition(b.enabled), routes)
	if err := b.graph.AddBranch(nodes.NodeSupervisor, supervisorBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding supervisor branch")
		return fmt.Errorf("error adding supervisor branch: %w", err)
	}

	for id := range b.enabled {
		resumeBranch := compose.NewGraphBranch(
			nodes.NewHandlerCondition(),
			map[string]bool{
				nodes.NodeSupervisor: true,
				nodes.NodeFinalize:   true,
			},
		)
		if err := b.graph.AddBranch(nodes.HandlerNode(id), resumeBranch); err != nil {
			logx.Error().Err(err).Str("handler", id.String()).Msg("Error adding handler branch")
			return fmt.Errorf("error adding handler branch: %w", err)
		}
	}

	return nil
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.TurnInput, *model.TurnResult], error) {
	// Each supervisor iteration costs two steps; the loop guard trips well
	// before this bound, which only catches wiring bugs.
	maxTurns := b.config.MaxTurns
	if maxTurns <= 0 {
		maxTurns = nodes.DefaultMaxTurns
	}
	maxSteps := 4*maxTurns + 10
	if maxSteps < 20 {
		maxSteps = 20
	}

	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(maxSteps))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}
