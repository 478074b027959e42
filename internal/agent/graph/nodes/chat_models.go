package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/clinic-frontdesk/agent/internal/agent/model"
	logx "github.com/clinic-frontdesk/agent/pkg/logger"
)

// ChatModelConfig holds the configuration for chat model creation
type ChatModelConfig struct {
	APIKey       string
	BaseURL      string
	RouterConfig *model.RouterModelConfig
	RespConfig   *model.ResponseModelConfig
}

// ChatModels holds the router and response chat models, both metered.
type ChatModels struct {
	Router            einomodel.BaseChatModel
	Response          einomodel.BaseChatModel
	RouterModelName   string
	ResponseModelName string
}

// NewChatModels creates the router and response Gemini chat models
func NewChatModels(ctx context.Context, config ChatModelConfig) (*ChatModels, error) {
	if config.RouterConfig == nil || config.RespConfig == nil {
		return nil, fmt.Errorf("chat model configs are nil")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = config.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	// Router answers with short JSON and SQL, no thinking
	router, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.RouterConfig.Model,
		Temperature: &config.RouterConfig.Temperature,
		MaxTokens:   &config.RouterConfig.MaxTokens,
		ThinkingConfig: &genai.ThinkingConfig{
			ThinkingBudget: genai.Ptr(int32(0)),
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Router model")
		return nil, fmt.Errorf("error creating Router model: %w", err)
	}

	response, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.RespConfig.Model,
		Temperature: &config.RespConfig.Temperature,
		MaxTokens:   &config.RespConfig.MaxTokens,
		ThinkingConfig: &genai.ThinkingConfig{
			ThinkingBudget: genai.Ptr(config.RespConfig.ThinkingBudget),
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Response model")
		return nil, fmt.Errorf("error creating Response model: %w", err)
	}

	return &ChatModels{
		Router:            NewMeteredChatModel(router, config.RouterConfig.Model),
		Response:          NewMeteredChatModel(response, config.RespConfig.Model),
		RouterModelName:   config.RouterConfig.Model,
		ResponseModelName: config.RespConfig.Model,
	}, nil
}

// MeteredChatModel logs token usage cost of every generation and adds it to
// the turn total when called inside the graph.
type MeteredChatModel struct {
	inner     einomodel.BaseChatModel
	modelName string
}

var _ einomodel.BaseChatModel = (*MeteredChatModel)(nil)

func NewMeteredChatModel(inner einomodel.BaseChatModel, modelName string) *MeteredChatModel {
	return &MeteredChatModel{inner: inner, modelName: modelName}
}

func (m *MeteredChatModel) Generate(ctx context.Context, in []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	out, err := m.inner.Generate(ctx, in, opts...)
	if err != nil {
		return nil, err
	}
	if out != nil && out.ResponseMeta != nil && out.ResponseMeta.Usage != nil {
		m.record(ctx, out)
	}
	return out, nil
}

func (m *MeteredChatModel) Stream(ctx context.Context, in []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return m.inner.Stream(ctx, in, opts...)
}

func (m *MeteredChatModel) record(ctx context.Context, out *schema.Message) {
	u := model.ComputeCost(m.modelName, out.ResponseMeta.Usage)
	if out.Extra == nil {
		out.Extra = map[string]any{}
	}
	out.Extra["usage_cost"] = map[string]any{
		"currency":          "USD",
		"model":             u.Model,
		"prompt_tokens":     u.PromptTokens,
		"completion_tokens": u.CompletionTokens,
		"total_tokens":      u.TotalTokens,
		"input_cost":        u.InputCost,
		"output_cost":       u.OutputCost,
		"total_cost":        u.TotalCost,
	}

	var sessionKey string
	// Outside a graph run there is no state; the cost is only logged then.
	_ = compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
		state.TotalCostUSD += u.TotalCost
		sessionKey = state.SessionKey
		return nil
	})

	logx.Debug().
		Str("session_key", sessionKey).
		Str("model", u.Model).
		Int("prompt_tokens", u.PromptTokens).
		Int("completion_tokens", u.CompletionTokens).
		Int("total_tokens", u.TotalTokens).
		Float64("input_cost_usd", u.InputCost).
		Float64("output_cost_usd", u.OutputCost).
		Float64("total_cost_usd", u.TotalCost).
		Msg("LLM usage")
}
