package model

import "time"

// ================ Models ================
type RouterModelConfig struct {
	Model       string  `envconfig:"ROUTER_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens   int     `envconfig:"ROUTER_MAX_TOKENS" default:"1024"`
	Temperature float32 `envconfig:"ROUTER_TEMPERATURE" default:"0"`
}

type ResponseModelConfig struct {
	Model          string  `envconfig:"RESPONSE_MODEL" default:"gemini-2.5-flash"`
	MaxTokens      int     `envconfig:"RESPONSE_MAX_TOKENS" default:"2000"`
	Temperature    float32 `envconfig:"RESPONSE_TEMPERATURE" default:"0.4"`
	ThinkingBudget int32   `envconfig:"RESPONSE_THINKING_BUDGET" default:"0"`
}

type PromptConfig struct {
	ClinicName    string `envconfig:"PROMPT_CLINIC_NAME" default:"Klinik Kulit Peri"`
	AssistantName string `envconfig:"PROMPT_ASSISTANT_NAME" default:"Peri"`
	Language      string `envconfig:"PROMPT_LANGUAGE" default:"Bahasa Indonesia"`
}

// ================ Orchestration ================
type SupervisorConfig struct {
	MaxTurns      int `envconfig:"SUPERVISOR_MAX_TURNS" default:"6"`
	HistoryWindow int `envconfig:"SUPERVISOR_HISTORY_WINDOW" default:"10"`
}

type BookingConfig struct {
	ExtractionWindow int `envconfig:"BOOKING_EXTRACTION_WINDOW" default:"6"`
}

type SessionConfig struct {
	TTL         time.Duration `envconfig:"SESSION_TTL" default:"24h"`
	MaxMessages int           `envconfig:"SESSION_MAX_MESSAGES" default:"50"`
	LockTTL     time.Duration `envconfig:"SESSION_LOCK_TTL" default:"60s"`
	LockWait    time.Duration `envconfig:"SESSION_LOCK_WAIT" default:"15s"`
}

// ================ Retrieval ================
type EmbeddingConfig struct {
	APIKey    string `envconfig:"EMBEDDING_API_KEY"`
	BaseURL   string `envconfig:"EMBEDDING_BASE_URL" default:"https://api.deepinfra.com/v1/openai"`
	Model     string `envconfig:"EMBEDDING_MODEL" default:"Qwen/Qwen3-Embedding-8B"`
	CacheSize int    `envconfig:"EMBEDDING_CACHE_SIZE" default:"512"`
}

type RetrievalConfig struct {
	CandidateLimit int `envconfig:"RETRIEVAL_CANDIDATE_LIMIT" default:"40"`
	TopK           int `envconfig:"RETRIEVAL_TOP_K" default:"5"`
}

type RerankerConfig struct {
	TrackingURI  string        `envconfig:"MLFLOW_TRACKING_URI"`
	ModelName    string        `envconfig:"RERANKER_MODEL_NAME" default:"XGBoostReranker"`
	Stage        string        `envconfig:"RERANKER_STAGE" default:"Staging"`
	ArtifactFile string        `envconfig:"RERANKER_ARTIFACT_FILE" default:"model.xgb"`
	Timeout      time.Duration `envconfig:"RERANKER_TIMEOUT" default:"30s"`
}
