// Package config holds user-level settings (stored under ~/.codeforge) and
// optional per-project overrides (a .codeforge.yaml in the working tree).
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds persisted user-level settings.
type Config struct {
	OpenRouterKey        string `json:"openrouter_api_key,omitempty"`
	VercelAIGatewayKey   string `json:"vercel_ai_gateway_api_key,omitempty"`
	DefaultModel         string `json:"default_model,omitempty"`
	DefaultGatewayModel  string `json:"default_gateway_model,omitempty"`
}

var (
	configDir  string
	configFile string
	current    *Config
)

func init() {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	configDir = filepath.Join(home, ".codeforge")
	configFile = filepath.Join(configDir, "config.json")
}

// Load reads the config from disk, returning defaults if it doesn't exist.
func Load() (*Config, error) {
	if current != nil {
		return current, nil
	}

	current = &Config{}

	data, err := os.ReadFile(configFile)
	if err != nil {
		if os.IsNotExist(err) {
			return current, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := json.Unmarshal(data, current); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return current, nil
}

// Save writes the config to disk.
func Save(cfg *Config) error {
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	current = cfg
	return nil
}

// Get returns the current config, loading if necessary.
func Get() *Config {
	if current == nil {
		_, _ = Load()
	}
	return current
}

// Set updates a config value by key.
func Set(key, value string) error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	switch key {
	case "openrouter_api_key", "openrouter":
		cfg.OpenRouterKey = value
	case "vercel_ai_gateway_api_key", "vercel", "gateway":
		cfg.VercelAIGatewayKey = value
	case "default_model", "model":
		cfg.DefaultModel = value
	case "default_gateway_model", "gateway_model":
		cfg.DefaultGatewayModel = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}

	return Save(cfg)
}

// Delete removes a config value.
func Delete(key string) error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	switch key {
	case "openrouter_api_key", "openrouter":
		cfg.OpenRouterKey = ""
	case "vercel_ai_gateway_api_key", "vercel", "gateway":
		cfg.VercelAIGatewayKey = ""
	case "default_model", "model":
		cfg.DefaultModel = ""
	case "default_gateway_model", "gateway_model":
		cfg.DefaultGatewayModel = ""
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}

	return Save(cfg)
}

// GetOpenRouterKey returns the OpenRouter API key (config or env), per
// spec §6's OPENROUTER_API_KEY.
func GetOpenRouterKey() string {
	cfg := Get()
	if cfg.OpenRouterKey != "" {
		return cfg.OpenRouterKey
	}
	return os.Getenv("OPENROUTER_API_KEY")
}

// GetOpenRouterModel returns the configured OpenRouter model, env override
// taking precedence per spec §6's OPENROUTER_MODEL.
func GetOpenRouterModel() string {
	if v := os.Getenv("OPENROUTER_MODEL"); v != "" {
		return v
	}
	cfg := Get()
	if cfg.DefaultModel != "" {
		return cfg.DefaultModel
	}
	return "x-ai/grok-code-fast-1"
}

// GetVercelAIGatewayKey returns the Vercel AI Gateway fallback key.
func GetVercelAIGatewayKey() string {
	cfg := Get()
	if cfg.VercelAIGatewayKey != "" {
		return cfg.VercelAIGatewayKey
	}
	return os.Getenv("VERCEL_AI_GATEWAY_API_KEY")
}

// GetVercelAIGatewayModel returns the Vercel AI Gateway fallback model.
func GetVercelAIGatewayModel() string {
	if v := os.Getenv("VERCEL_AI_GATEWAY_MODEL"); v != "" {
		return v
	}
	cfg := Get()
	if cfg.DefaultGatewayModel != "" {
		return cfg.DefaultGatewayModel
	}
	return "xai/grok-code-fast-1"
}

// GetLLMBaseURLOverride returns CODEFORGE_LLM_BASE_URL if set. The Driver
// uses it in place of the OpenRouter endpoint URL (for the primary entry and
// its duplicate fallback), and llmRank uses it as its ranking endpoint.
func GetLLMBaseURLOverride() string {
	return os.Getenv("CODEFORGE_LLM_BASE_URL")
}

// ToolMaxOutputSize returns the tool-output truncation cap, honoring
// CODEFORGE_TOOL_MAX_OUTPUT_SIZE (spec §6), defaulting to 1 MiB.
func ToolMaxOutputSize() int {
	const defaultSize = 1024 * 1024
	v := os.Getenv("CODEFORGE_TOOL_MAX_OUTPUT_SIZE")
	if v == "" {
		return defaultSize
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil || n <= 0 {
		return defaultSize
	}
	return n
}

// InterleavedThinkingEnabled reports CODEFORGE_ENABLE_INTERLEAVED_THINKING.
func InterleavedThinkingEnabled() bool {
	v := os.Getenv("CODEFORGE_ENABLE_INTERLEAVED_THINKING")
	return v == "1" || v == "true"
}

// ConfigPath returns the path to the user config file.
func ConfigPath() string {
	return configFile
}

// ConfigDir returns ~/.codeforge.
func ConfigDir() string {
	return configDir
}

// ListKeys returns configured keys, masked for display.
func ListKeys() map[string]string {
	cfg := Get()
	result := make(map[string]string)

	if cfg.OpenRouterKey != "" {
		result["openrouter_api_key"] = maskKey(cfg.OpenRouterKey)
	} else if os.Getenv("OPENROUTER_API_KEY") != "" {
		result["openrouter_api_key"] = maskKey(os.Getenv("OPENROUTER_API_KEY")) + " (env)"
	}

	if cfg.VercelAIGatewayKey != "" {
		result["vercel_ai_gateway_api_key"] = maskKey(cfg.VercelAIGatewayKey)
	} else if os.Getenv("VERCEL_AI_GATEWAY_API_KEY") != "" {
		result["vercel_ai_gateway_api_key"] = maskKey(os.Getenv("VERCEL_AI_GATEWAY_API_KEY")) + " (env)"
	}

	if cfg.DefaultModel != "" {
		result["default_model"] = cfg.DefaultModel
	}
	if cfg.DefaultGatewayModel != "" {
		result["default_gateway_model"] = cfg.DefaultGatewayModel
	}

	return result
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// ProjectConfig is an optional per-project override file, .codeforge.yaml
// in the working tree, for settings that make more sense scoped to a repo
// than to the user's whole machine.
type ProjectConfig struct {
	Extensions []string `yaml:"extensions,omitempty"`
	IgnoreDirs []string `yaml:"ignore_dirs,omitempty"`
	Rules      string   `yaml:"rules,omitempty"`
}

// LoadProjectConfig reads .codeforge.yaml from the given directory, or
// returns a zero-value ProjectConfig if the file is absent.
func LoadProjectConfig(dir string) (*ProjectConfig, error) {
	data, err := os.ReadFile(filepath.Join(dir, ".codeforge.yaml"))
	if err != nil {
		if os.IsNotExist(err) {
			return &ProjectConfig{}, nil
		}
		return nil, fmt.Errorf("failed to read .codeforge.yaml: %w", err)
	}

	var pc ProjectConfig
	if err := yaml.Unmarshal(data, &pc); err != nil {
		return nil, fmt.Errorf("failed to parse .codeforge.yaml: %w", err)
	}
	return &pc, nil
}
