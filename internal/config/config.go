// Package config provides configuration loading, validation, and defaults
// for the Vaani assistant. Values come from config.yaml (optional), VAANI_*
// environment variables, and built-in defaults, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds the full application configuration.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	Guard     GuardConfig     `mapstructure:"guard"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Router    RouterConfig    `mapstructure:"router"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// LoggerConfig controls log level and output format.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Port        int           `mapstructure:"port"         validate:"min=1,max=65535"`
	ReadTimeout time.Duration `mapstructure:"read_timeout" validate:"min=1s,max=5m"`
}

// DatabaseConfig holds the SQLite banking store settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// GeminiConfig holds Gemini API settings for classification, generation,
// and embedding.
type GeminiConfig struct {
	APIKey          string        `mapstructure:"api_key"          validate:"required"`
	Model           string        `mapstructure:"model"            validate:"required"`
	ClassifierModel string        `mapstructure:"classifier_model" validate:"required"`
	EmbedModel      string        `mapstructure:"embed_model"      validate:"required"`
	Temperature     float32       `mapstructure:"temperature"      validate:"min=0,max=2"`
	MaxRetries      int           `mapstructure:"max_retries"      validate:"min=0,max=5"`
	RetryDelay      time.Duration `mapstructure:"retry_delay"      validate:"min=100ms,max=30s"`
	Timeout         time.Duration `mapstructure:"timeout"          validate:"min=1s,max=10m"`
}

// RetrievalConfig holds Qdrant vector search settings.
type RetrievalConfig struct {
	Host           string        `mapstructure:"host"            validate:"required"`
	Port           int           `mapstructure:"port"            validate:"min=1,max=65535"`
	Collection     string        `mapstructure:"collection"      validate:"required"`
	VectorSize     int           `mapstructure:"vector_size"     validate:"min=1"`
	TopK           int           `mapstructure:"top_k"           validate:"min=1,max=20"`
	ScoreThreshold float32       `mapstructure:"score_threshold" validate:"min=0,max=1"`
	Timeout        time.Duration `mapstructure:"timeout"         validate:"min=1s,max=2m"`
}

// GuardConfig holds safety-filter and rate-limit settings.
type GuardConfig struct {
	RequestsPerMinute int           `mapstructure:"requests_per_minute" validate:"min=1"`
	RequestsPerHour   int           `mapstructure:"requests_per_hour"   validate:"min=1"`
	ScriptMixRatio    float64       `mapstructure:"script_mix_ratio"    validate:"min=0,max=1"`
	WindowIdleExpiry  time.Duration `mapstructure:"window_idle_expiry"  validate:"min=1m"`
	ExtraToxic        []string      `mapstructure:"extra_toxic"`
	ExtraInjection    []string      `mapstructure:"extra_injection"`
}

// CacheConfig holds retrieval cache settings.
type CacheConfig struct {
	Capacity int           `mapstructure:"capacity" validate:"min=1"`
	TTL      time.Duration `mapstructure:"ttl"      validate:"min=1s"`
}

// RouterConfig holds intent routing settings. Keyword lists are bilingual
// and replace the built-in defaults when set.
type RouterConfig struct {
	AssistantName     string   `mapstructure:"assistant_name"     validate:"required"`
	DefaultSpecialist string   `mapstructure:"default_specialist" validate:"required"`
	BalanceKeywords   []string `mapstructure:"balance_keywords"   validate:"min=1"`
	WakePhrases       []string `mapstructure:"wake_phrases"       validate:"min=1"`
}

// PipelineConfig holds per-call timeouts and retry policy for the turn
// pipeline's blocking collaborator calls.
type PipelineConfig struct {
	SpecialistTimeout time.Duration `mapstructure:"specialist_timeout" validate:"min=1s,max=5m"`
	ClassifierTimeout time.Duration `mapstructure:"classifier_timeout" validate:"min=500ms,max=1m"`
	MaxRetries        int           `mapstructure:"max_retries"        validate:"min=0,max=3"`
	RetryDelay        time.Duration `mapstructure:"retry_delay"        validate:"min=50ms,max=10s"`
}

// TelegramConfig holds the optional Telegram chat surface settings.
type TelegramConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Token        string `mapstructure:"token"         validate:"required_if=Enabled true"`
	HistoryLimit int    `mapstructure:"history_limit" validate:"min=1,max=200"`
}

// TaskConfig describes one scheduled task.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// SchedulerConfig holds scheduled task definitions keyed by task name.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// Localized is a message pair for the two supported reply languages.
type Localized struct {
	EN string `mapstructure:"en" validate:"required"`
	HI string `mapstructure:"hi" validate:"required"`
}

// For returns the variant matching the given locale tag ("hi-IN" selects
// Hindi, everything else English).
func (l Localized) For(lang string) string {
	if strings.HasPrefix(strings.ToLower(lang), "hi") {
		return l.HI
	}
	return l.EN
}

// MessagesConfig holds user-facing fallback texts. Refusal, RateLimited and
// Welcome are localized per request language; Apology is a single bilingual
// string used when a specialist fails outright.
type MessagesConfig struct {
	Refusal     Localized `mapstructure:"refusal"`
	RateLimited Localized `mapstructure:"rate_limited"`
	Welcome     Localized `mapstructure:"welcome"`
	Apology     string    `mapstructure:"apology" validate:"required"`
}

// Load reads configuration from the given YAML file (missing file is fine),
// applies VAANI_* environment overrides and defaults, and validates the
// result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("VAANI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.json", true)

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)

	v.SetDefault("database.path", "vaani.db")

	v.SetDefault("gemini.model", "gemini-2.0-flash")
	v.SetDefault("gemini.classifier_model", "gemini-2.0-flash-lite")
	v.SetDefault("gemini.embed_model", "text-embedding-004")
	v.SetDefault("gemini.temperature", 0.7)
	v.SetDefault("gemini.max_retries", 2)
	v.SetDefault("gemini.retry_delay", 2*time.Second)
	v.SetDefault("gemini.timeout", 45*time.Second)

	v.SetDefault("retrieval.host", "localhost")
	v.SetDefault("retrieval.port", 6334)
	v.SetDefault("retrieval.collection", "vaani_knowledge")
	v.SetDefault("retrieval.vector_size", 768)
	v.SetDefault("retrieval.top_k", 4)
	v.SetDefault("retrieval.score_threshold", 0.55)
	v.SetDefault("retrieval.timeout", 10*time.Second)

	v.SetDefault("guard.requests_per_minute", 30)
	v.SetDefault("guard.requests_per_hour", 500)
	v.SetDefault("guard.script_mix_ratio", 0.30)
	v.SetDefault("guard.window_idle_expiry", 2*time.Hour)

	v.SetDefault("cache.capacity", 128)
	v.SetDefault("cache.ttl", 120*time.Second)

	v.SetDefault("router.assistant_name", "Vaani")
	v.SetDefault("router.default_specialist", "knowledge")
	v.SetDefault("router.balance_keywords", []string{
		"balance", "check balance", "pay", "payment", "send money",
		"transfer", "paisa", "बैलेंस", "भुगतान", "पैसे", "पैसा", "भेजो", "ट्रांसफर",
	})
	v.SetDefault("router.wake_phrases", []string{
		"hello vaani", "hi vaani", "hey vaani", "namaste vaani",
		"हेलो वाणी", "नमस्ते वाणी", "हाय वाणी",
	})

	v.SetDefault("pipeline.specialist_timeout", 30*time.Second)
	v.SetDefault("pipeline.classifier_timeout", 8*time.Second)
	v.SetDefault("pipeline.max_retries", 3)
	v.SetDefault("pipeline.retry_delay", 300*time.Millisecond)

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.history_limit", 30)

	v.SetDefault("scheduler.tasks", map[string]TaskConfig{
		"reminder_scan":     {Enabled: true, Schedule: "0 */5 * * * *"},
		"rate_window_prune": {Enabled: true, Schedule: "0 15 * * * *"},
		"sql_maintenance":   {Enabled: true, Schedule: "0 0 4 * * *"},
	})

	v.SetDefault("messages.refusal.en",
		"I can't help with that request. Please rephrase and try again.")
	v.SetDefault("messages.refusal.hi",
		"मैं इस अनुरोध में मदद नहीं कर सकती। कृपया अपनी बात दूसरे शब्दों में कहें।")
	v.SetDefault("messages.rate_limited.en",
		"You're sending requests too quickly. Please wait a moment and try again.")
	v.SetDefault("messages.rate_limited.hi",
		"आप बहुत तेज़ी से अनुरोध भेज रहे हैं। कृपया थोड़ी देर रुक कर फिर कोशिश करें।")
	v.SetDefault("messages.welcome.en",
		"Namaste! I'm Vaani, your banking assistant. Ask me about your balance, payments, loans or anything else.")
	v.SetDefault("messages.welcome.hi",
		"नमस्ते! मैं वाणी हूँ, आपकी बैंकिंग सहायिका। शेष राशि, भुगतान, ऋण या किसी भी सवाल के लिए पूछिए।")
	v.SetDefault("messages.apology",
		"Sorry, I couldn't complete that right now. Please try again. / क्षमा करें, मैं अभी आपका अनुरोध पूरा नहीं कर सकी। कृपया पुनः प्रयास करें।")
}
