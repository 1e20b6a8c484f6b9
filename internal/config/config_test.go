package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func validTestConfig() *Config {
	return &Config{
		AI: AIConfig{
			Provider:    "gemini",
			Model:       "gemini-2.5-flash",
			Timeout:     60 * time.Second,
			APIKey:      "test-key",
			MaxRetries:  2,
			Temperature: 0.3,
		},
		Server: ServerConfig{
			Host: "localhost",
			Port: "8080",
		},
		App: AppConfig{
			LogLevel:         "info",
			DefaultFormat:    "json",
			SupportedFormats: []string{"json", "text", "markdown"},
			MaxFileSize:      1024,
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{
			name:        "valid config",
			mutate:      func(c *Config) {},
			expectError: false,
		},
		{
			name:        "missing API key",
			mutate:      func(c *Config) { c.AI.APIKey = "" },
			expectError: true,
		},
		{
			name:        "zero timeout",
			mutate:      func(c *Config) { c.AI.Timeout = 0 },
			expectError: true,
		},
		{
			name:        "missing port",
			mutate:      func(c *Config) { c.Server.Port = "" },
			expectError: true,
		},
		{
			name:        "unsupported default format",
			mutate:      func(c *Config) { c.App.DefaultFormat = "xml" },
			expectError: true,
		},
		{
			name:        "zero max file size",
			mutate:      func(c *Config) { c.App.MaxFileSize = 0 },
			expectError: true,
		},
		{
			name:        "tls server mode without cert",
			mutate:      func(c *Config) { c.Server.TLS.Mode = "server" },
			expectError: true,
		},
		{
			name:        "invalid tls mode",
			mutate:      func(c *Config) { c.Server.TLS.Mode = "mutual" },
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validTestConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.expectError && err == nil {
				t.Error("Validate() expected error, got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
		})
	}
}

func TestOperationConfigFallbacks(t *testing.T) {
	cfg := validTestConfig()

	chatCfg := cfg.GetChatConfig()
	if chatCfg.Model != "gemini-2.5-flash" {
		t.Errorf("chat model = %q, want global fallback %q", chatCfg.Model, "gemini-2.5-flash")
	}
	if chatCfg.APIKey != "test-key" {
		t.Errorf("chat apiKey = %q, want global fallback", chatCfg.APIKey)
	}
	if chatCfg.Temperature == nil || *chatCfg.Temperature != 0.3 {
		t.Error("chat temperature should fall back to the global value")
	}

	// Operation-specific values must win over globals.
	opTemp := float32(0.2)
	opTimeout := 90 * time.Second
	cfg.AI.ATS = OperationAIConfig{
		Model:       "gemini-2.5-pro",
		Temperature: &opTemp,
		Timeout:     &opTimeout,
	}
	atsCfg := cfg.GetATSConfig()
	if atsCfg.Model != "gemini-2.5-pro" {
		t.Errorf("ats model = %q, want operation override", atsCfg.Model)
	}
	if *atsCfg.Temperature != 0.2 {
		t.Errorf("ats temperature = %v, want 0.2", *atsCfg.Temperature)
	}
	if *atsCfg.Timeout != 90*time.Second {
		t.Errorf("ats timeout = %v, want 90s", *atsCfg.Timeout)
	}
	// Unset fields still fall back.
	if atsCfg.APIKey != "test-key" {
		t.Errorf("ats apiKey = %q, want global fallback", atsCfg.APIKey)
	}
}

func TestLoadPromptsFromFiles(t *testing.T) {
	dir := t.TempDir()

	promptPath := filepath.Join(dir, "ats.txt")
	if err := os.WriteFile(promptPath, []byte("custom ATS prompt: %s\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg := validTestConfig()
	cfg.AI.ATS.CustomPrompts.UserPrompts.ATSFile = promptPath

	if err := cfg.loadPromptsFromFiles(); err != nil {
		t.Fatalf("loadPromptsFromFiles() error = %v", err)
	}
	if got := GetLoadedPromptFile(promptPath); got != "custom ATS prompt: %s" {
		t.Errorf("GetLoadedPromptFile() = %q", got)
	}

	// Missing file is a startup error.
	cfg.AI.Profile.CustomPrompts.UserPrompts.ProfileFile = filepath.Join(dir, "missing.txt")
	if err := cfg.loadPromptsFromFiles(); err == nil {
		t.Error("loadPromptsFromFiles() expected error for missing file")
	}

	// Empty file is a startup error.
	emptyPath := filepath.Join(dir, "empty.txt")
	if err := os.WriteFile(emptyPath, []byte("  \n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg = validTestConfig()
	cfg.AI.CustomPrompts.SystemPrompts.ChatFile = emptyPath
	if err := cfg.loadPromptsFromFiles(); err == nil {
		t.Error("loadPromptsFromFiles() expected error for empty file")
	}
}

func TestGetLoadedPromptFileEmptyPath(t *testing.T) {
	if got := GetLoadedPromptFile(""); got != "" {
		t.Errorf("GetLoadedPromptFile(\"\") = %q, want empty", got)
	}
}
