package config

import (
	"fmt"
	"os"
	"strings"

	"talentlens/internal/errors"

	"github.com/hashicorp/vault/api"
)

// VaultConfig holds Vault connection configuration
type VaultConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"tokenFile"`
	Namespace string `mapstructure:"namespace"`

	// Secret paths
	Secrets VaultSecrets `mapstructure:"secrets"`
}

// VaultSecrets defines where to find secrets in Vault
type VaultSecrets struct {
	// APIKeys expects a single string with comma-separated values
	// under the "keys" field of the secret.
	APIKeys   string `mapstructure:"apiKeys"`   // Path to server API keys secret
	GeminiKey string `mapstructure:"geminiKey"` // Path to Gemini API key secret
}

// VaultClient wraps the Vault API client
type VaultClient struct {
	client *api.Client
	config VaultConfig
	logger *errors.Logger
}

// NewVaultClient creates a new Vault client from configuration. Returns
// nil without error when Vault integration is disabled.
func NewVaultClient(config VaultConfig, logger *errors.Logger) (*VaultClient, error) {
	if !config.Enabled {
		return nil, nil
	}

	vaultConfig := api.DefaultConfig()
	if config.Address != "" {
		vaultConfig.Address = config.Address
	}

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	if config.Namespace != "" {
		client.SetNamespace(config.Namespace)
	}

	token, err := resolveVaultToken(config)
	if err != nil {
		return nil, err
	}
	client.SetToken(token)

	health, err := client.Sys().Health()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to vault: %w", err)
	}
	if logger != nil {
		logger.Info("Connected to Vault",
			"address", vaultConfig.Address,
			"version", health.Version,
			"sealed", health.Sealed)
	}

	return &VaultClient{client: client, config: config, logger: logger}, nil
}

// resolveVaultToken resolves the Vault token from config or file
func resolveVaultToken(config VaultConfig) (string, error) {
	token := config.Token

	if token == "" && config.TokenFile != "" {
		tokenBytes, err := os.ReadFile(config.TokenFile)
		if err != nil {
			return "", fmt.Errorf("failed to read vault token file: %w", err)
		}
		token = strings.TrimSpace(string(tokenBytes))
	}

	if token == "" {
		return "", fmt.Errorf("vault token is required when vault is enabled")
	}

	return token, nil
}

// GetStringSecret retrieves a single string value from a Vault KVv2 secret.
func (vc *VaultClient) GetStringSecret(path, key string) (string, error) {
	data, err := vc.readSecretData(path)
	if err != nil {
		return "", err
	}

	value, ok := data[key].(string)
	if !ok || value == "" {
		return "", fmt.Errorf("secret at %s has no string value for key %q", path, key)
	}
	return value, nil
}

// readSecretData reads a KVv2 secret and unwraps its data payload.
func (vc *VaultClient) readSecretData(path string) (map[string]any, error) {
	secret, err := vc.client.Logical().Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret from %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("secret not found at path: %s", path)
	}

	// KVv2 nests the payload under "data"; KVv1 does not.
	if nested, ok := secret.Data["data"].(map[string]any); ok {
		return nested, nil
	}
	return secret.Data, nil
}

// ApplyVaultSecrets loads secrets from Vault into the configuration.
// Vault values take precedence over config file and environment values.
func ApplyVaultSecrets(config *Config, logger *errors.Logger) error {
	client, err := NewVaultClient(config.Vault, logger)
	if err != nil {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig,
			"Failed to initialize Vault client", err)
	}
	if client == nil {
		return nil // Vault disabled
	}

	if path := config.Vault.Secrets.GeminiKey; path != "" {
		key, err := client.GetStringSecret(path, "key")
		if err != nil {
			return errors.NewConfigError(errors.ErrCodeMissingAPIKey,
				"Failed to load Gemini API key from Vault", err)
		}
		config.AI.APIKey = key
		logger.Info("Loaded Gemini API key from Vault", "path", path)
	}

	if path := config.Vault.Secrets.APIKeys; path != "" {
		raw, err := client.GetStringSecret(path, "keys")
		if err != nil {
			return errors.NewConfigError(errors.ErrCodeInvalidConfig,
				"Failed to load server API keys from Vault", err)
		}
		keys := strings.Split(raw, ",")
		for i := range keys {
			keys[i] = strings.TrimSpace(keys[i])
		}
		config.Server.APIKeys = keys
		logger.Info("Loaded server API keys from Vault", "path", path, "count", len(keys))
	}

	return nil
}
