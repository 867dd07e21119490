package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMaskKey(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		expected string
	}{
		{name: "short key", key: "abc", expected: "****"},
		{name: "exactly 8 chars", key: "12345678", expected: "****"},
		{name: "long key", key: "sk-1234567890abcdef", expected: "sk-1...cdef"},
		{name: "empty key", key: "", expected: "****"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := maskKey(tt.key)
			if result != tt.expected {
				t.Errorf("maskKey(%q) = %q, want %q", tt.key, result, tt.expected)
			}
		})
	}
}

func withTempConfigDir(t *testing.T) {
	t.Helper()
	tmpDir := t.TempDir()

	oldConfigDir := configDir
	oldConfigFile := configFile
	configDir = tmpDir
	configFile = filepath.Join(tmpDir, "config.json")
	current = nil
	t.Cleanup(func() {
		configDir = oldConfigDir
		configFile = oldConfigFile
		current = nil
	})
}

func TestConfigLoadSave(t *testing.T) {
	withTempConfigDir(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.OpenRouterKey != "" {
		t.Errorf("default OpenRouterKey = %q, want empty", cfg.OpenRouterKey)
	}

	cfg.OpenRouterKey = "test-key-12345"
	cfg.DefaultModel = "x-ai/grok-code-fast-1"
	if err := Save(cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	current = nil
	cfg2, err := Load()
	if err != nil {
		t.Fatalf("Load() after save error = %v", err)
	}
	if cfg2.OpenRouterKey != "test-key-12345" {
		t.Errorf("OpenRouterKey = %q, want %q", cfg2.OpenRouterKey, "test-key-12345")
	}
	if cfg2.DefaultModel != "x-ai/grok-code-fast-1" {
		t.Errorf("DefaultModel = %q, want %q", cfg2.DefaultModel, "x-ai/grok-code-fast-1")
	}
}

func TestConfigSet(t *testing.T) {
	withTempConfigDir(t)

	tests := []struct {
		key   string
		value string
		check func(*Config) bool
	}{
		{key: "openrouter", value: "sk-test123", check: func(c *Config) bool { return c.OpenRouterKey == "sk-test123" }},
		{key: "gateway", value: "sk-gw-test", check: func(c *Config) bool { return c.VercelAIGatewayKey == "sk-gw-test" }},
		{key: "model", value: "x-ai/grok-code-fast-1", check: func(c *Config) bool { return c.DefaultModel == "x-ai/grok-code-fast-1" }},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if err := Set(tt.key, tt.value); err != nil {
				t.Fatalf("Set(%q, %q) error = %v", tt.key, tt.value, err)
			}
			cfg := Get()
			if !tt.check(cfg) {
				t.Errorf("Set(%q, %q) did not update config correctly", tt.key, tt.value)
			}
		})
	}

	if err := Set("unknown_key", "value"); err == nil {
		t.Error("Set() with unknown key should return error")
	}
}

func TestConfigDelete(t *testing.T) {
	withTempConfigDir(t)

	if err := Set("openrouter", "sk-test123"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := Delete("openrouter"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	cfg := Get()
	if cfg.OpenRouterKey != "" {
		t.Errorf("OpenRouterKey = %q after delete, want empty", cfg.OpenRouterKey)
	}

	if err := Delete("unknown_key"); err == nil {
		t.Error("Delete() with unknown key should return error")
	}
}

func TestGetOpenRouterKeyFromEnv(t *testing.T) {
	withTempConfigDir(t)

	oldEnv := os.Getenv("OPENROUTER_API_KEY")
	os.Setenv("OPENROUTER_API_KEY", "env-test-key")
	defer os.Setenv("OPENROUTER_API_KEY", oldEnv)

	key := GetOpenRouterKey()
	if key != "env-test-key" {
		t.Errorf("GetOpenRouterKey() = %q, want %q", key, "env-test-key")
	}

	if err := Set("openrouter", "config-test-key"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	key = GetOpenRouterKey()
	if key != "config-test-key" {
		t.Errorf("GetOpenRouterKey() with config = %q, want %q", key, "config-test-key")
	}
}

func TestConfigPath(t *testing.T) {
	if ConfigPath() == "" {
		t.Error("ConfigPath() returned empty string")
	}
}

func TestLoadProjectConfigMissing(t *testing.T) {
	pc, err := LoadProjectConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadProjectConfig() error = %v", err)
	}
	if len(pc.Extensions) != 0 || len(pc.IgnoreDirs) != 0 {
		t.Errorf("expected zero-value ProjectConfig, got %+v", pc)
	}
}

func TestLoadProjectConfig(t *testing.T) {
	dir := t.TempDir()
	content := "extensions:\n  - .go\n  - .rs\nignore_dirs:\n  - vendor\nrules: be terse\n"
	if err := os.WriteFile(filepath.Join(dir, ".codeforge.yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	pc, err := LoadProjectConfig(dir)
	if err != nil {
		t.Fatalf("LoadProjectConfig() error = %v", err)
	}
	if len(pc.Extensions) != 2 || pc.Extensions[0] != ".go" {
		t.Errorf("Extensions = %v, want [.go .rs]", pc.Extensions)
	}
	if len(pc.IgnoreDirs) != 1 || pc.IgnoreDirs[0] != "vendor" {
		t.Errorf("IgnoreDirs = %v, want [vendor]", pc.IgnoreDirs)
	}
	if pc.Rules != "be terse" {
		t.Errorf("Rules = %q, want %q", pc.Rules, "be terse")
	}
}
