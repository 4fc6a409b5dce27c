// Package config provides configuration management for the paper podcast
// service.
package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	clearEnvVars(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	// Server defaults
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, 9091, cfg.Server.MetricsPort)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)

	// Logging defaults
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "stdout", cfg.Logging.Output)

	// Metrics defaults
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, "papercast", cfg.Metrics.Namespace)

	// Backend defaults
	assert.Equal(t, "http://localhost:8090", cfg.Backend.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 10.0, cfg.Backend.RateLimit)
	assert.Equal(t, 3, cfg.Backend.MaxRetries)

	// LLM defaults
	assert.Equal(t, "gemini-1.5-flash-latest", cfg.LLM.Gemini.Model)
	assert.Equal(t, "gemini-1.5-pro-latest", cfg.LLM.Gemini.ScriptModel)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.OpenAI.Model)
	assert.Equal(t, 60*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 10*time.Minute, cfg.LLM.ScriptTimeout)

	// TTS defaults
	assert.Equal(t, "tts-1", cfg.TTS.Model)
	assert.Equal(t, "alloy", cfg.TTS.Voice)
	assert.Equal(t, 4000, cfg.TTS.MaxChunkSize)
	assert.Equal(t, 4, cfg.TTS.Concurrency)

	// Pipeline defaults
	assert.Equal(t, 8, cfg.Pipeline.EnrichConcurrency)

	// Credentials defaults
	assert.Equal(t, ".env", cfg.Credentials.EnvFile)

	// PDF defaults
	assert.Equal(t, 60*time.Second, cfg.PDF.Timeout)
	assert.Equal(t, int64(50), cfg.PDF.MaxSizeMB)
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	clearEnvVars(t)

	t.Setenv("PAPERCAST_SERVER_HTTP_PORT", "8888")
	t.Setenv("PAPERCAST_BACKEND_BASE_URL", "https://search.example.com")
	t.Setenv("PAPERCAST_LOGGING_LEVEL", "debug")
	t.Setenv("PAPERCAST_LLM_GEMINI_MODEL", "gemini-2.0-flash")
	t.Setenv("PAPERCAST_TTS_VOICE", "nova")
	t.Setenv("PAPERCAST_PIPELINE_ENRICH_CONCURRENCY", "16")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8888, cfg.Server.HTTPPort)
	assert.Equal(t, "https://search.example.com", cfg.Backend.BaseURL)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "gemini-2.0-flash", cfg.LLM.Gemini.Model)
	assert.Equal(t, "nova", cfg.TTS.Voice)
	assert.Equal(t, 16, cfg.Pipeline.EnrichConcurrency)
}

func TestValidate_InvalidPort(t *testing.T) {
	tests := []struct {
		name        string
		modifyFunc  func(*Config)
		expectedErr string
	}{
		{
			name: "HTTP port zero",
			modifyFunc: func(c *Config) {
				c.Server.HTTPPort = 0
			},
			expectedErr: "invalid HTTP port: 0",
		},
		{
			name: "HTTP port too high",
			modifyFunc: func(c *Config) {
				c.Server.HTTPPort = 70000
			},
			expectedErr: "invalid HTTP port: 70000",
		},
		{
			name: "metrics port invalid",
			modifyFunc: func(c *Config) {
				c.Server.MetricsPort = -5
			},
			expectedErr: "invalid metrics port: -5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modifyFunc(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedErr)
		})
	}
}

func TestValidate_LogLevel(t *testing.T) {
	validLevels := []string{"trace", "debug", "info", "warn", "error", "fatal", "panic"}
	for _, level := range validLevels {
		t.Run("valid_"+level, func(t *testing.T) {
			cfg := validConfig()
			cfg.Logging.Level = level
			err := cfg.Validate()
			assert.NoError(t, err)
		})
	}

	t.Run("invalid log level", func(t *testing.T) {
		cfg := validConfig()
		cfg.Logging.Level = "invalid"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level: invalid")
	})
}

func TestValidate_Backend(t *testing.T) {
	t.Run("empty base URL", func(t *testing.T) {
		cfg := validConfig()
		cfg.Backend.BaseURL = ""
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "backend base_url is required")
	})

	t.Run("malformed base URL", func(t *testing.T) {
		cfg := validConfig()
		cfg.Backend.BaseURL = "not a url"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid backend base_url")
	})

	t.Run("rate limit zero", func(t *testing.T) {
		cfg := validConfig()
		cfg.Backend.RateLimit = 0
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "backend rate_limit must be positive")
	})
}

func TestValidate_TTS(t *testing.T) {
	t.Run("chunk size zero", func(t *testing.T) {
		cfg := validConfig()
		cfg.TTS.MaxChunkSize = 0
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "tts max_chunk_size must be between 1 and 4096")
	})

	t.Run("chunk size over API limit", func(t *testing.T) {
		cfg := validConfig()
		cfg.TTS.MaxChunkSize = 5000
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "tts max_chunk_size must be between 1 and 4096")
	})

	t.Run("concurrency zero", func(t *testing.T) {
		cfg := validConfig()
		cfg.TTS.Concurrency = 0
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "tts concurrency must be positive")
	})
}

func TestValidate_Pipeline(t *testing.T) {
	cfg := validConfig()
	cfg.Pipeline.EnrichConcurrency = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline enrich_concurrency must be positive")
}

func TestServerConfig_HTTPAddress(t *testing.T) {
	cfg := ServerConfig{
		Host:     "0.0.0.0",
		HTTPPort: 8080,
	}
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTPAddress())
}

func TestServerConfig_MetricsAddress(t *testing.T) {
	cfg := ServerConfig{
		Host:        "127.0.0.1",
		MetricsPort: 9091,
	}
	assert.Equal(t, "127.0.0.1:9091", cfg.MetricsAddress())
}

// clearEnvVars removes all PAPERCAST_ prefixed environment variables
func clearEnvVars(t *testing.T) {
	t.Helper()
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "PAPERCAST_") {
			key, _, _ := strings.Cut(env, "=")
			os.Unsetenv(key)
		}
	}
}

// validConfig returns a valid configuration for testing
func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			HTTPPort:    8080,
			MetricsPort: 9091,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Backend: BackendConfig{
			BaseURL:   "http://localhost:8090",
			RateLimit: 10,
		},
		TTS: TTSConfig{
			MaxChunkSize: 4000,
			Concurrency:  4,
		},
		Pipeline: PipelineConfig{
			EnrichConcurrency: 8,
		},
		PDF: PDFConfig{
			MaxSizeMB: 50,
		},
	}
}
