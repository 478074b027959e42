package app

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/redis/go-redis/v9"

	"github.com/clinic-frontdesk/agent/internal/agent/graph"
	"github.com/clinic-frontdesk/agent/internal/agent/graph/tools"
	"github.com/clinic-frontdesk/agent/internal/agent/handlers"
	"github.com/clinic-frontdesk/agent/internal/agent/model"
	"github.com/clinic-frontdesk/agent/internal/agent/repo"
	"github.com/clinic-frontdesk/agent/internal/lookup"
	"github.com/clinic-frontdesk/agent/internal/retrieval"
	"github.com/clinic-frontdesk/agent/internal/server"
	logx "github.com/clinic-frontdesk/agent/pkg/logger"
)

type Options struct {
	// MemorySessions keeps sessions in process instead of Redis.
	MemorySessions bool
}

// App holds the wired collaborators of one process.
type App struct {
	Config AppConfig
	Runner graph.Runner
	Tools  []tool.InvokableTool
	Checks map[string]server.CheckFunc

	closers []func()
}

// New connects the configured backends and builds the turn graph. Retrieval
// and lookup are optional; their handlers are left out when unconfigured.
func New(ctx context.Context, cfg AppConfig, opts Options) (_ *App, err error) {
	a := &App{Config: cfg, Checks: map[string]server.CheckFunc{}}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	sessions, err := a.sessionRepository(ctx, opts)
	if err != nil {
		return nil, err
	}

	var retriever handlers.Retriever
	if cfg.RetrievalEnabled() {
		pipeline, err := a.retrievalPipeline(ctx)
		if err != nil {
			return nil, err
		}
		retriever = pipeline
	} else {
		logx.Warn().Msg("EMBEDDING_API_KEY not set - knowledge base retrieval disabled")
	}

	var store lookup.Store
	if cfg.LookupEnabled() {
		pool, err := cfg.Postgres.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to initialise Postgres pool: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		pg := lookup.NewPgStore(pool, cfg.LookupTimeout)
		a.Checks["postgres"] = pg.Ping
		store = pg
		logx.Info().Msg("Connected to Postgres successfully")
	}

	runner, err := graph.BuildTurnGraph(ctx, graph.Config{
		APIKey:        cfg.APIKey,
		BaseURL:       cfg.BaseURL,
		RouterModel:   cfg.Router,
		ResponseModel: cfg.Response,
		Prompt:        cfg.Prompt,
		Supervisor:    cfg.Supervisor,
		Booking:       cfg.Booking,
		Session:       cfg.Session,
		SessionRepo:   sessions,
		Retriever:     retriever,
		Store:         store,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build graph: %w", err)
	}
	a.Runner = runner
	a.Tools = tools.GetClinicTools(retriever, store)
	return a, nil
}

func (a *App) sessionRepository(ctx context.Context, opts Options) (model.SessionRepository, error) {
	if opts.MemorySessions {
		logx.Info().Msg("Using in-memory session store")
		return repo.NewMemorySessionRepository(), nil
	}

	rdb, err := a.Config.Redis.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise Redis client: %w", err)
	}
	a.closers = append(a.closers, func() { _ = rdb.Close() })
	a.Checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	logx.Info().Msg("Connected to Redis successfully")

	return newRedisSessions(rdb, a.Config.Session), nil
}

func newRedisSessions(rdb redis.Cmdable, cfg model.SessionConfig) *repo.RedisSessionRepository {
	return repo.NewRedisSessionRepository(rdb, cfg.TTL, cfg.LockTTL, cfg.LockWait)
}

func (a *App) retrievalPipeline(ctx context.Context) (*retrieval.Pipeline, error) {
	cfg := a.Config

	embedder, err := retrieval.NewOpenAIEmbedder(cfg.Embedding.APIKey, cfg.Embedding.BaseURL, cfg.Embedding.Model, cfg.Embedding.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	client, err := cfg.Qdrant.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise Qdrant client: %w", err)
	}
	a.closers = append(a.closers, func() { _ = client.Close() })
	index := retrieval.NewQdrantIndex(client, cfg.Qdrant.Collection, cfg.Qdrant.VectorSize)
	if err := index.EnsureCollection(ctx); err != nil {
		return nil, err
	}
	a.Checks["qdrant"] = index.Ping
	logx.Info().Str("collection", cfg.Qdrant.Collection).Msg("Connected to Qdrant successfully")

	var reranker *retrieval.Reranker
	if cfg.Reranker.TrackingURI != "" {
		registry := retrieval.NewMLflowRegistry(cfg.Reranker.TrackingURI, cfg.Reranker.ArtifactFile, cfg.Reranker.Timeout)
		a.Checks["reranker"] = registry.Ping
		reranker = retrieval.LoadReranker(ctx, registry, cfg.Reranker.ModelName, cfg.Reranker.Stage)
	} else {
		logx.Warn().Msg("MLFLOW_TRACKING_URI not set - reranker disabled")
	}

	return retrieval.NewPipeline(embedder, index, reranker, retrieval.PipelineOptions{
		CandidateLimit: cfg.Retrieval.CandidateLimit,
		TopK:           cfg.Retrieval.TopK,
	}), nil
}

// Close releases every backend connection in reverse order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
