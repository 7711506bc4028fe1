// Package config loads application configuration from YAML, .env, and
// environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the top-level application configuration.
type Config struct {
	Version  string         `mapstructure:"version"`
	Project  ProjectConfig  `mapstructure:"project"`
	Provider ProviderConfig `mapstructure:"provider"`
	Limiter  LimiterConfig  `mapstructure:"limiter"`
	Tools    ToolsConfig    `mapstructure:"tools"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// ProjectConfig locates the project the assistant operates on.
type ProjectConfig struct {
	// Root is the directory all tool file/process operations are confined to.
	Root string `mapstructure:"root"`
}

// ProviderConfig describes the chat-completion service.
type ProviderConfig struct {
	Type        string        `mapstructure:"type"`        // openai, azure, ollama
	BaseURL     string        `mapstructure:"base_url"`    // API base URL
	APIKey      string        `mapstructure:"api_key"`     // optional API key
	APIVersion  string        `mapstructure:"api_version"` // azure api-version query value
	Model       string        `mapstructure:"model"`       // model or deployment name
	Timeout     time.Duration `mapstructure:"timeout"`     // request timeout
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
}

// LimiterConfig bounds outbound request token usage.
type LimiterConfig struct {
	TokensPerMinute    int `mapstructure:"tokens_per_minute"`
	MinIntervalSeconds int `mapstructure:"min_interval_seconds"`
}

// ToolsConfig bounds tool execution side effects.
type ToolsConfig struct {
	CommandTimeoutSeconds int   `mapstructure:"command_timeout_seconds"`
	MaxFileBytes          int64 `mapstructure:"max_file_bytes"`
}

// LoggingConfig controls logger behaviour.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // console or json
}

// MetricsConfig controls the optional Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// Load reads configuration from the provided path or botcoder.yaml in the
// working directory. A missing file is not an error when no path was given;
// environment variables (prefix BOTCODER_) and .env still apply.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("BOTCODER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindLegacyEnv(v)

	if path == "" {
		v.SetConfigName("botcoder")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("configs")
	} else {
		v.SetConfigFile(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// bindLegacyEnv keeps the flat variable names earlier releases used in .env.
func bindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("project.root", "BOTCODER_PROJECT_ROOT", "PROJECT_PATH")
	_ = v.BindEnv("provider.base_url", "BOTCODER_PROVIDER_BASE_URL", "LLM_URL")
	_ = v.BindEnv("provider.api_key", "BOTCODER_PROVIDER_API_KEY", "LLM_KEY")
	_ = v.BindEnv("provider.api_version", "BOTCODER_PROVIDER_API_VERSION", "LLM_VERSION")
	_ = v.BindEnv("provider.model", "BOTCODER_PROVIDER_MODEL", "LLM_MODEL")
	_ = v.BindEnv("limiter.tokens_per_minute", "BOTCODER_LIMITER_TOKENS_PER_MINUTE", "LLM_TPM")
	_ = v.BindEnv("limiter.min_interval_seconds", "BOTCODER_LIMITER_MIN_INTERVAL_SECONDS", "LLM_MIN_INTERVAL")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("project.root", ".")

	v.SetDefault("provider.type", "openai")
	v.SetDefault("provider.model", "gpt-4o-mini")
	v.SetDefault("provider.timeout", 60*time.Second)
	v.SetDefault("provider.max_tokens", 4096)
	v.SetDefault("provider.temperature", 0.2)

	v.SetDefault("limiter.tokens_per_minute", 20000)
	v.SetDefault("limiter.min_interval_seconds", 1)

	v.SetDefault("tools.command_timeout_seconds", 120)
	v.SetDefault("tools.max_file_bytes", 262144)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", "127.0.0.1:9190")
}

// Validate performs basic sanity checks on configuration values.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Project.Root) == "" {
		return errors.New("project.root must be set")
	}

	switch strings.ToLower(strings.TrimSpace(c.Provider.Type)) {
	case "openai", "azure", "ollama":
	default:
		return fmt.Errorf("provider.type must be one of openai, azure, ollama, got %q", c.Provider.Type)
	}

	if strings.EqualFold(c.Provider.Type, "azure") {
		if c.Provider.BaseURL == "" {
			return errors.New("provider.base_url must be set for azure")
		}
		if c.Provider.APIKey == "" {
			return errors.New("provider.api_key must be set for azure")
		}
	}

	if c.Provider.Model == "" {
		return errors.New("provider.model must be set")
	}

	if c.Provider.Temperature < 0 || c.Provider.Temperature > 2 {
		return fmt.Errorf("provider.temperature must be within [0,2]")
	}

	if c.Limiter.TokensPerMinute <= 0 {
		return errors.New("limiter.tokens_per_minute must be > 0")
	}
	if c.Limiter.MinIntervalSeconds < 0 {
		return errors.New("limiter.min_interval_seconds must be >= 0")
	}

	if c.Tools.CommandTimeoutSeconds <= 0 {
		return errors.New("tools.command_timeout_seconds must be > 0")
	}
	if c.Tools.MaxFileBytes <= 0 {
		return errors.New("tools.max_file_bytes must be > 0")
	}

	if c.Metrics.Enabled && strings.TrimSpace(c.Metrics.Addr) == "" {
		return errors.New("metrics.addr must be set when metrics are enabled")
	}

	return nil
}

// CommandTimeout returns the tool execution timeout as a duration.
func (c *Config) CommandTimeout() time.Duration {
	return time.Duration(c.Tools.CommandTimeoutSeconds) * time.Second
}

// MinInterval returns the limiter spacing as a duration.
func (c *Config) MinInterval() time.Duration {
	return time.Duration(c.Limiter.MinIntervalSeconds) * time.Second
}
