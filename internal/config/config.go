package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	TasksDir     string      `mapstructure:"tasks_dir" validate:"required"`
	ResultsDir   string      `mapstructure:"results_dir" validate:"required"`
	ModelsFile   string      `mapstructure:"models_file"`
	TimeoutMs    int         `mapstructure:"timeout_ms" validate:"gt=0"`
	Runs         int         `mapstructure:"runs" validate:"gte=1"`
	Parallel     int         `mapstructure:"parallel" validate:"gte=1"`
	RateLimitRPS float64     `mapstructure:"rate_limit_rps" validate:"gte=0"`
	HistoryDB    string      `mapstructure:"history_db"`
	MetricsFile  string      `mapstructure:"metrics_file"`
	Debug        bool        `mapstructure:"debug"`
	Secrets      Secrets     `mapstructure:"secrets"`
	Providers    Providers   `mapstructure:"providers"`
	Judge        Judge       `mapstructure:"judge"`
	Credentials  Credentials `mapstructure:"credentials"`
}

type Secrets struct {
	EnvFile string `mapstructure:"env_file"`
}

type Providers struct {
	Anthropic Endpoint `mapstructure:"anthropic"`
	OpenAI    Endpoint `mapstructure:"openai"`
}

type Endpoint struct {
	BaseURL string `mapstructure:"base_url" validate:"omitempty,url"`
}

type Judge struct {
	Enabled   bool   `mapstructure:"enabled"`
	Model     string `mapstructure:"model" validate:"required_if=Enabled true"`
	BaseURL   string `mapstructure:"base_url" validate:"omitempty,url"`
	APIKey    string `mapstructure:"api_key"`
	BatchSize int    `mapstructure:"batch_size" validate:"gte=1"`
	Samples   int    `mapstructure:"samples" validate:"gte=1,lte=9"`
}

// Credentials are the vendor API keys. Missing keys are not a load error;
// each request that needs one fails on its own.
type Credentials struct {
	AnthropicAPIKey string `mapstructure:"anthropic_api_key"`
	OpenAIAPIKey    string `mapstructure:"openai_api_key"`
}

const (
	AnthropicKeyEnv = "ANTHROPIC_API_KEY"
	OpenAIKeyEnv    = "OPENAI_API_KEY"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("tasks_dir", "tasks")
	v.SetDefault("results_dir", "results")
	v.SetDefault("models_file", "")
	v.SetDefault("timeout_ms", 120000)
	v.SetDefault("runs", 1)
	v.SetDefault("parallel", 1)
	v.SetDefault("rate_limit_rps", 0)
	v.SetDefault("history_db", "")
	v.SetDefault("metrics_file", "")
	v.SetDefault("debug", false)
	v.SetDefault("secrets.env_file", "")
	v.SetDefault("providers.anthropic.base_url", "")
	v.SetDefault("providers.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("judge.enabled", true)
	v.SetDefault("judge.model", "gpt-4o-mini")
	v.SetDefault("judge.base_url", "https://api.openai.com/v1")
	v.SetDefault("judge.api_key", "")
	v.SetDefault("judge.batch_size", 5)
	v.SetDefault("judge.samples", 1)
}

// Load reads the YAML config at path (skipped when path is empty), applies
// BISHOP_* environment overrides and the vendor API key variables, then fills
// still-missing keys from the secrets env file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("BISHOP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.BindEnv("credentials.anthropic_api_key", AnthropicKeyEnv)
	v.BindEnv("credentials.openai_api_key", OpenAIKeyEnv)
	v.BindEnv("judge.api_key", "BISHOP_JUDGE_API_KEY")

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if cfg.Secrets.EnvFile != "" {
		secrets, err := ParseEnvFile(cfg.Secrets.EnvFile)
		if err != nil {
			return nil, fmt.Errorf("reading secrets env file: %w", err)
		}
		cfg.Credentials.fill(secrets)
	}
	if cfg.Judge.APIKey == "" {
		cfg.Judge.APIKey = cfg.Credentials.OpenAIAPIKey
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Credentials) fill(secrets map[string]string) {
	if c.AnthropicAPIKey == "" {
		c.AnthropicAPIKey = secrets[AnthropicKeyEnv]
	}
	if c.OpenAIAPIKey == "" {
		c.OpenAIAPIKey = secrets[OpenAIKeyEnv]
	}
}
