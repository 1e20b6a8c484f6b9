package config

// applyOperationDefaults applies global defaults to operation-specific configuration
func (c *Config) applyOperationDefaults(opCfg *OperationAIConfig) {
	if opCfg.Provider == "" {
		opCfg.Provider = c.AI.Provider
	}
	if opCfg.Model == "" {
		opCfg.Model = c.AI.Model
	}
	if opCfg.Timeout == nil {
		opCfg.Timeout = &c.AI.Timeout
	}
	if opCfg.APIKey == "" {
		opCfg.APIKey = c.AI.APIKey
	}
	if opCfg.MaxRetries == nil {
		opCfg.MaxRetries = &c.AI.MaxRetries
	}
	if opCfg.Temperature == nil {
		opCfg.Temperature = &c.AI.Temperature
	}
	// UseSystemPrompts: apply global default only if not explicitly set
	if opCfg.UseSystemPrompts == nil {
		opCfg.UseSystemPrompts = &c.AI.UseSystemPrompts
	}
}

// GetChatConfig returns the AI configuration for chat operations with
// fallback to the global config.
func (c *Config) GetChatConfig() OperationAIConfig {
	config := c.AI.Chat
	c.applyOperationDefaults(&config)

	if config.CustomPrompts.SystemPrompts.Chat == "" {
		config.CustomPrompts.SystemPrompts.Chat = c.AI.CustomPrompts.SystemPrompts.Chat
	}
	if config.CustomPrompts.SystemPrompts.ChatFile == "" {
		config.CustomPrompts.SystemPrompts.ChatFile = c.AI.CustomPrompts.SystemPrompts.ChatFile
	}

	return config
}

// GetProfileConfig returns the AI configuration for profile extraction
// with fallback to the global config.
func (c *Config) GetProfileConfig() OperationAIConfig {
	config := c.AI.Profile
	c.applyOperationDefaults(&config)

	if config.CustomPrompts.UserPrompts.Profile == "" {
		config.CustomPrompts.UserPrompts.Profile = c.AI.CustomPrompts.UserPrompts.Profile
	}
	if config.CustomPrompts.UserPrompts.ProfileFile == "" {
		config.CustomPrompts.UserPrompts.ProfileFile = c.AI.CustomPrompts.UserPrompts.ProfileFile
	}

	return config
}

// GetATSConfig returns the AI configuration for ATS scans with fallback
// to the global config.
func (c *Config) GetATSConfig() OperationAIConfig {
	config := c.AI.ATS
	c.applyOperationDefaults(&config)

	if config.CustomPrompts.UserPrompts.ATS == "" {
		config.CustomPrompts.UserPrompts.ATS = c.AI.CustomPrompts.UserPrompts.ATS
	}
	if config.CustomPrompts.UserPrompts.ATSFile == "" {
		config.CustomPrompts.UserPrompts.ATSFile = c.AI.CustomPrompts.UserPrompts.ATSFile
	}

	return config
}

// GetCritiqueConfig returns the AI configuration for deep critiques
// with fallback to the global config.
func (c *Config) GetCritiqueConfig() OperationAIConfig {
	config := c.AI.Critique
	c.applyOperationDefaults(&config)

	if config.CustomPrompts.UserPrompts.Critique == "" {
		config.CustomPrompts.UserPrompts.Critique = c.AI.CustomPrompts.UserPrompts.Critique
	}
	if config.CustomPrompts.UserPrompts.CritiqueFile == "" {
		config.CustomPrompts.UserPrompts.CritiqueFile = c.AI.CustomPrompts.UserPrompts.CritiqueFile
	}

	return config
}
