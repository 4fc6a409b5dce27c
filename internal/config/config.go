// Package config provides configuration management for the paper podcast
// service.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the paper podcast service.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// Backend contains paper search backend settings.
	Backend BackendConfig `mapstructure:"backend"`
	// LLM contains model settings for categorization, titles, and scripts.
	LLM LLMConfig `mapstructure:"llm"`
	// TTS contains text-to-speech settings.
	TTS TTSConfig `mapstructure:"tts"`
	// Pipeline contains search pipeline tuning.
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	// Credentials contains API key persistence settings.
	Credentials CredentialsConfig `mapstructure:"credentials"`
	// PDF contains paper download settings.
	PDF PDFConfig `mapstructure:"pdf"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// HTTPPort is the HTTP server port (default: 8080).
	HTTPPort int `mapstructure:"http_port"`
	// MetricsPort is the metrics server port (default: 9091).
	MetricsPort int `mapstructure:"metrics_port"`
	// ReadTimeout is the maximum duration for reading the request body.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing the response. SSE
	// progress streams and audio synthesis need generous values here.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// HTTPAddress returns the bind address for the HTTP server.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// MetricsAddress returns the bind address for the metrics server.
func (c *ServerConfig) MetricsAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.MetricsPort)
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr).
	Output string `mapstructure:"output"`
	// AddSource adds source file and line to log output.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for the metrics endpoint.
	Path string `mapstructure:"path"`
	// Namespace is the metric name prefix.
	Namespace string `mapstructure:"namespace"`
}

// BackendConfig holds paper search backend configuration.
type BackendConfig struct {
	// BaseURL is the search backend base URL.
	BaseURL string `mapstructure:"base_url"`
	// Timeout is the per-request timeout.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
	// BurstSize is the maximum request burst.
	BurstSize int `mapstructure:"burst_size"`
	// MaxRetries is the retry budget for 429/5xx responses.
	MaxRetries int `mapstructure:"max_retries"`
}

// LLMConfig holds model configuration. API keys are managed by the
// credentials manager, never by this package.
type LLMConfig struct {
	// Gemini configures the Gemini client (categorization, plain titles,
	// podcast scripts).
	Gemini GeminiConfig `mapstructure:"gemini"`
	// OpenAI configures the OpenAI chat client.
	OpenAI OpenAIConfig `mapstructure:"openai"`
	// Timeout is the per-request timeout.
	Timeout time.Duration `mapstructure:"timeout"`
	// ScriptTimeout is the timeout for podcast script generation, which
	// processes a whole PDF.
	ScriptTimeout time.Duration `mapstructure:"script_timeout"`
	// MaxRetries is the retry budget for transient model errors.
	MaxRetries int `mapstructure:"max_retries"`
}

// GeminiConfig holds Gemini model selection.
type GeminiConfig struct {
	// Model is the model for plain titles and categorization.
	Model string `mapstructure:"model"`
	// ScriptModel is the model for podcast script generation.
	ScriptModel string `mapstructure:"script_model"`
	// BaseURL overrides the API base URL (empty means default).
	BaseURL string `mapstructure:"base_url"`
}

// OpenAIConfig holds OpenAI model selection.
type OpenAIConfig struct {
	// Model is the chat completion model.
	Model string `mapstructure:"model"`
	// BaseURL overrides the API base URL (empty means default).
	BaseURL string `mapstructure:"base_url"`
}

// TTSConfig holds text-to-speech configuration.
type TTSConfig struct {
	// Model is the speech model (default: tts-1).
	Model string `mapstructure:"model"`
	// Voice is the speaking voice (default: alloy).
	Voice string `mapstructure:"voice"`
	// MaxChunkSize caps characters per synthesis request.
	MaxChunkSize int `mapstructure:"max_chunk_size"`
	// Concurrency is the number of chunks synthesized in parallel.
	Concurrency int `mapstructure:"concurrency"`
}

// PipelineConfig holds search pipeline tuning.
type PipelineConfig struct {
	// EnrichConcurrency caps concurrent title enrichment calls.
	EnrichConcurrency int `mapstructure:"enrich_concurrency"`
}

// CredentialsConfig holds API key persistence settings.
type CredentialsConfig struct {
	// EnvFile is the dotenv path where saved keys are persisted.
	// Empty disables persistence.
	EnvFile string `mapstructure:"env_file"`
}

// PDFConfig holds paper download settings.
type PDFConfig struct {
	// Timeout is the download timeout.
	Timeout time.Duration `mapstructure:"timeout"`
	// MaxSizeMB is the maximum PDF size in megabytes.
	MaxSizeMB int64 `mapstructure:"max_size_mb"`
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("PAPERCAST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/paper-podcast")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use env vars and defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.metrics_port", 9091)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "10m")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.namespace", "papercast")

	// Backend defaults
	v.SetDefault("backend.base_url", "http://localhost:8090")
	v.SetDefault("backend.timeout", "30s")
	v.SetDefault("backend.rate_limit", 10)
	v.SetDefault("backend.burst_size", 10)
	v.SetDefault("backend.max_retries", 3)

	// LLM defaults
	v.SetDefault("llm.gemini.model", "gemini-1.5-flash-latest")
	v.SetDefault("llm.gemini.script_model", "gemini-1.5-pro-latest")
	v.SetDefault("llm.gemini.base_url", "")
	v.SetDefault("llm.openai.model", "gpt-4o-mini")
	v.SetDefault("llm.openai.base_url", "")
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("llm.script_timeout", "10m")
	v.SetDefault("llm.max_retries", 2)

	// TTS defaults
	v.SetDefault("tts.model", "tts-1")
	v.SetDefault("tts.voice", "alloy")
	v.SetDefault("tts.max_chunk_size", 4000)
	v.SetDefault("tts.concurrency", 4)

	// Pipeline defaults
	v.SetDefault("pipeline.enrich_concurrency", 8)

	// Credentials defaults
	v.SetDefault("credentials.env_file", ".env")

	// PDF defaults
	v.SetDefault("pdf.timeout", "60s")
	v.SetDefault("pdf.max_size_mb", 50)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}
	if c.Server.MetricsPort <= 0 || c.Server.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", c.Server.MetricsPort)
	}

	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend base_url is required")
	}
	if _, err := url.ParseRequestURI(c.Backend.BaseURL); err != nil {
		return fmt.Errorf("invalid backend base_url: %w", err)
	}
	if c.Backend.RateLimit <= 0 {
		return fmt.Errorf("backend rate_limit must be positive")
	}

	if c.TTS.MaxChunkSize <= 0 || c.TTS.MaxChunkSize > 4096 {
		return fmt.Errorf("tts max_chunk_size must be between 1 and 4096")
	}
	if c.TTS.Concurrency <= 0 {
		return fmt.Errorf("tts concurrency must be positive")
	}

	if c.Pipeline.EnrichConcurrency <= 0 {
		return fmt.Errorf("pipeline enrich_concurrency must be positive")
	}

	if c.PDF.MaxSizeMB <= 0 {
		return fmt.Errorf("pdf max_size_mb must be positive")
	}

	return nil
}
