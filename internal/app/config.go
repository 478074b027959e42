// Package app loads configuration and wires the front desk together.
package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/clinic-frontdesk/agent/internal/agent/model"
	"github.com/clinic-frontdesk/agent/internal/core"
	"github.com/clinic-frontdesk/agent/internal/server"
	logx "github.com/clinic-frontdesk/agent/pkg/logger"
	pkgpostgres "github.com/clinic-frontdesk/agent/pkg/postgres"
	pkgqdrant "github.com/clinic-frontdesk/agent/pkg/qdrant"
	pkgredis "github.com/clinic-frontdesk/agent/pkg/redis"
)

// AppConfig defines all configurable parameters of the service, sourced from
// environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// Infrastructure
	Redis    pkgredis.Config
	Qdrant   pkgqdrant.Config
	Postgres pkgpostgres.Config
	HTTP     server.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Agent configs
	Router     model.RouterModelConfig
	Response   model.ResponseModelConfig
	Prompt     model.PromptConfig
	Supervisor model.SupervisorConfig
	Booking    model.BookingConfig
	Session    model.SessionConfig

	// Retrieval
	Embedding model.EmbeddingConfig
	Retrieval model.RetrievalConfig
	Reranker  model.RerankerConfig

	LookupTimeout time.Duration `envconfig:"LOOKUP_TIMEOUT" default:"10s"`
}

func (c AppConfig) Env() core.Environment {
	return core.ParseEnvironment(c.Environment)
}

// RetrievalEnabled reports whether an embedding provider is configured.
func (c AppConfig) RetrievalEnabled() bool { return c.Embedding.APIKey != "" }

// LookupEnabled reports whether the clinic database is configured.
func (c AppConfig) LookupEnabled() bool { return c.Postgres.DSN != "" }

// LoadConfig reads .env when present and processes the environment.
func LoadConfig(envFile string) (AppConfig, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		logx.Warn().Err(err).Str("file", envFile).Msg("Could not load .env file")
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("failed to process environment config: %w", err)
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return AppConfig{}, fmt.Errorf("GEMINI_API_KEY must not be empty")
	}
	return cfg, nil
}
