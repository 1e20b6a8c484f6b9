package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// PromptConfig holds configuration for customizable prompts. Each
// prompt can be set inline or loaded from an external file; file
// content wins over inline content, which wins over the built-in
// defaults (resolution happens in the ai package).
type PromptConfig struct {
	SystemPrompts SystemPrompts `mapstructure:"systemPrompts"`
	UserPrompts   UserPrompts   `mapstructure:"userPrompts"`
}

// SystemPrompts contains system-level instructions. Only the chat
// session carries a system instruction (it embeds the resume text at
// session creation); the one-shot operations are fully described by
// their user prompts.
type SystemPrompts struct {
	Chat     string `mapstructure:"chat"`
	ChatFile string `mapstructure:"chatFile"`
}

// UserPrompts contains user-level prompt templates
type UserPrompts struct {
	Profile      string `mapstructure:"profile"`
	ProfileFile  string `mapstructure:"profileFile"`
	ATS          string `mapstructure:"ats"`
	ATSFile      string `mapstructure:"atsFile"`
	Critique     string `mapstructure:"critique"`
	CritiqueFile string `mapstructure:"critiqueFile"`
}

// promptFileStore holds the content of prompt files, keyed by path.
// The watcher goroutine refreshes entries, so access is guarded.
type promptFileStore struct {
	mu     sync.RWMutex
	byPath map[string]string
}

var loadedPromptFiles = promptFileStore{byPath: make(map[string]string)}

// GetLoadedPromptFile returns the most recently loaded content of a
// prompt file, or an empty string when the path is not configured.
func GetLoadedPromptFile(path string) string {
	if path == "" {
		return ""
	}
	loadedPromptFiles.mu.RLock()
	defer loadedPromptFiles.mu.RUnlock()
	return loadedPromptFiles.byPath[path]
}

// promptFilePaths collects every configured prompt file path across the
// global and operation-specific prompt configs.
func (c *Config) promptFilePaths() []string {
	var paths []string
	add := func(p string) {
		if p != "" {
			paths = append(paths, p)
		}
	}

	for _, pc := range []*PromptConfig{
		&c.AI.CustomPrompts,
		&c.AI.Chat.CustomPrompts,
		&c.AI.Profile.CustomPrompts,
		&c.AI.ATS.CustomPrompts,
		&c.AI.Critique.CustomPrompts,
	} {
		add(pc.SystemPrompts.ChatFile)
		add(pc.UserPrompts.ProfileFile)
		add(pc.UserPrompts.ATSFile)
		add(pc.UserPrompts.CritiqueFile)
	}
	return paths
}

// loadPromptsFromFiles loads every configured prompt file into the
// store. A missing or empty file is a configuration error.
func (c *Config) loadPromptsFromFiles() error {
	for _, path := range c.promptFilePaths() {
		if err := loadPromptFile(path); err != nil {
			return err
		}
	}
	return nil
}

// loadPromptFile reads one prompt file into the store.
func loadPromptFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read prompt file %s: %w", path, err)
	}

	trimmed := strings.TrimSpace(string(content))
	if trimmed == "" {
		return fmt.Errorf("prompt file %s is empty", path)
	}

	loadedPromptFiles.mu.Lock()
	loadedPromptFiles.byPath[path] = trimmed
	loadedPromptFiles.mu.Unlock()
	return nil
}
