package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	pkgredis "github.com/LucasNeuro/menogeo/pkg/redis"
)

// Config defines all configurable parameters for the relay, sourced from
// environment variables (loaded from .env for local runs).
type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	Port        int    `envconfig:"PORT" default:"5000"`

	// Infrastructure
	Redis pkgredis.Config

	LLM     LLMConfig
	IXC     IXCConfig
	MegaAPI MegaAPIConfig
	Handoff HandoffConfig
	Session SessionConfig
	Queue   QueueConfig
}

// LLMConfig selects and parameterizes the completion provider.
type LLMConfig struct {
	// Provider is "gemini" or "openai" (any OpenAI-compatible endpoint,
	// e.g. Mistral agent completions).
	Provider string `envconfig:"LLM_PROVIDER" default:"gemini"`

	GeminiAPIKey  string `envconfig:"GEMINI_API_KEY"`
	GeminiBaseURL string `envconfig:"GEMINI_BASE_URL"`

	OpenAIAPIKey  string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL string `envconfig:"OPENAI_BASE_URL"`

	ResponseModel       string  `envconfig:"RESPONSE_MODEL" default:"gemini-2.5-flash"`
	ResponseMaxTokens   int     `envconfig:"RESPONSE_MAX_TOKENS" default:"500"`
	ResponseTemperature float32 `envconfig:"RESPONSE_TEMPERATURE" default:"0.4"`

	IntentModel     string `envconfig:"INTENT_MODEL" default:"gemini-2.5-flash-lite"`
	IntentMaxTokens int    `envconfig:"INTENT_MAX_TOKENS" default:"20"`

	MaxToolRounds int `envconfig:"TOOL_MAX_ROUNDS" default:"5"`
}

// IXCConfig points at the CRM consultation endpoint.
type IXCConfig struct {
	URL           string        `envconfig:"IXC_API_URL" required:"true"`
	FetchTimeout  time.Duration `envconfig:"IXC_FETCH_TIMEOUT" default:"30s"`
	NarrowTimeout time.Duration `envconfig:"IXC_NARROW_TIMEOUT" default:"10s"`
}

// MegaAPIConfig configures the outbound WhatsApp gateway.
type MegaAPIConfig struct {
	URL          string        `envconfig:"MEGAAPI_URL" required:"true"`
	Token        string        `envconfig:"MEGAAPI_KEY" required:"true"`
	InstanceKey  string        `envconfig:"INSTANCE_KEY" required:"true"`
	Timeout      time.Duration `envconfig:"MEGAAPI_TIMEOUT" default:"10s"`
	MaxRetries   int           `envconfig:"MEGAAPI_MAX_RETRIES" default:"3"`
	RetryBackoff time.Duration `envconfig:"MEGAAPI_RETRY_BACKOFF" default:"2s"`
}

// HandoffConfig configures the human-handoff webhook.
type HandoffConfig struct {
	URL     string        `envconfig:"HANDOFF_URL_HOOK"`
	Timeout time.Duration `envconfig:"HANDOFF_TIMEOUT" default:"10s"`
}

// SessionConfig carries the TTLs and windows for conversational state.
type SessionConfig struct {
	BindingTTL   time.Duration `envconfig:"SESSION_BINDING_TTL" default:"30m"`
	GreetedTTL   time.Duration `envconfig:"SESSION_GREETED_TTL" default:"6h"`
	RecordTTL    time.Duration `envconfig:"SESSION_RECORD_TTL" default:"30m"`
	HistoryTTL   time.Duration `envconfig:"SESSION_HISTORY_TTL" default:"24h"`
	HistoryPage  int           `envconfig:"SESSION_HISTORY_PAGE_SIZE" default:"50"`
	ReplayWindow int           `envconfig:"SESSION_REPLAY_WINDOW" default:"10"`
}

// QueueConfig enables the optional queue-based ingestion mode.
type QueueConfig struct {
	Enabled    bool          `envconfig:"QUEUE_ENABLED" default:"false"`
	Key        string        `envconfig:"QUEUE_KEY" default:"menogeo:inbound"`
	PopTimeout time.Duration `envconfig:"QUEUE_POP_TIMEOUT" default:"5s"`
}

// Load reads .env (best effort) and processes the environment into a Config.
func Load() (*Config, error) {
	// Missing .env is fine in deployed environments.
	_ = godotenv.Load(".env")

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
