// Package credentials manages the Gemini and OpenAI API keys: reading them
// from the environment, saving new keys at runtime, and persisting them to a
// dotenv file so they survive restarts.
package credentials

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/Diego-Ornelas/Ai-paper-podcast/internal/domain"
)

// Environment variable names for the two provider keys.
const (
	GeminiKeyEnv = "PAPERCAST_GEMINI_API_KEY"
	OpenAIKeyEnv = "PAPERCAST_OPENAI_API_KEY"
)

// Status reports which provider keys are configured. Key values are never
// included.
type Status struct {
	GeminiConfigured bool `json:"gemini_configured"`
	OpenAIConfigured bool `json:"openai_configured"`
	AllConfigured    bool `json:"all_configured"`
}

// Manager holds the current API keys. It is safe for concurrent use; Save
// updates callers holding a key function without a restart.
type Manager struct {
	mu        sync.RWMutex
	geminiKey string
	openaiKey string
	envFile   string
}

// NewManager creates a manager seeded from the environment. envFile is the
// dotenv path used by Save; empty disables persistence.
func NewManager(envFile string) *Manager {
	return &Manager{
		geminiKey: os.Getenv(GeminiKeyEnv),
		openaiKey: os.Getenv(OpenAIKeyEnv),
		envFile:   envFile,
	}
}

// GeminiKey returns the current Gemini API key.
func (m *Manager) GeminiKey() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.geminiKey
}

// OpenAIKey returns the current OpenAI API key.
func (m *Manager) OpenAIKey() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.openaiKey
}

// Check reports which keys are configured.
func (m *Manager) Check() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	gemini := m.geminiKey != ""
	openai := m.openaiKey != ""
	return Status{
		GeminiConfigured: gemini,
		OpenAIConfigured: openai,
		AllConfigured:    gemini && openai,
	}
}

// Configured reports whether both provider keys are set.
func (m *Manager) Configured() bool {
	return m.Check().AllConfigured
}

// RequireConfigured returns ErrCredentialsNotConfigured unless both keys are
// set.
func (m *Manager) RequireConfigured() error {
	if !m.Configured() {
		return domain.ErrCredentialsNotConfigured
	}
	return nil
}

// Save stores both keys, updates the process environment, and rewrites the
// dotenv file. Both keys are required; unrelated lines in the dotenv file
// are preserved.
func (m *Manager) Save(geminiKey, openaiKey string) error {
	geminiKey = strings.TrimSpace(geminiKey)
	openaiKey = strings.TrimSpace(openaiKey)
	if geminiKey == "" || openaiKey == "" {
		return domain.NewValidationError("api_keys", "both API keys are required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.envFile != "" {
		if err := writeEnvFile(m.envFile, map[string]string{
			GeminiKeyEnv: geminiKey,
			OpenAIKeyEnv: openaiKey,
		}); err != nil {
			return fmt.Errorf("persist credentials: %w", err)
		}
	}

	if err := os.Setenv(GeminiKeyEnv, geminiKey); err != nil {
		return fmt.Errorf("set %s: %w", GeminiKeyEnv, err)
	}
	if err := os.Setenv(OpenAIKeyEnv, openaiKey); err != nil {
		return fmt.Errorf("set %s: %w", OpenAIKeyEnv, err)
	}

	m.geminiKey = geminiKey
	m.openaiKey = openaiKey
	return nil
}

// writeEnvFile replaces or appends KEY=value lines in a dotenv file, keeping
// every other line intact.
func writeEnvFile(path string, updates map[string]string) error {
	var lines []string
	if content, err := os.ReadFile(path); err == nil {
		lines = strings.Split(strings.TrimRight(string(content), "\n"), "\n")
	} else if !os.IsNotExist(err) {
		return err
	}

	seen := make(map[string]bool, len(updates))
	for i, line := range lines {
		for key, value := range updates {
			if strings.HasPrefix(line, key+"=") {
				lines[i] = key + "=" + value
				seen[key] = true
			}
		}
	}
	for key, value := range updates {
		if !seen[key] {
			lines = append(lines, key+"="+value)
		}
	}

	out := strings.TrimSpace(strings.Join(lines, "\n")) + "\n"
	return os.WriteFile(path, []byte(out), 0o600)
}
