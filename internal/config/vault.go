package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/vault/api"
)

// VaultClient wraps the Vault API client for secret retrieval
type VaultClient struct {
	client *api.Client
}

// NewVaultClient creates a Vault client from the configuration
func NewVaultClient(cfg VaultConfig) (*VaultClient, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("vault address is required when vault is enabled")
	}

	vaultConfig := api.DefaultConfig()
	vaultConfig.Address = cfg.Address

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	token, err := resolveVaultToken(cfg)
	if err != nil {
		return nil, err
	}
	client.SetToken(token)

	return &VaultClient{client: client}, nil
}

// resolveVaultToken finds the Vault token: config value, token file, then
// the VAULT_TOKEN environment variable.
func resolveVaultToken(cfg VaultConfig) (string, error) {
	if cfg.Token != "" {
		return cfg.Token, nil
	}
	if cfg.TokenFile != "" {
		data, err := os.ReadFile(cfg.TokenFile)
		if err != nil {
			return "", fmt.Errorf("failed to read vault token file %s: %w", cfg.TokenFile, err)
		}
		token := strings.TrimSpace(string(data))
		if token == "" {
			return "", fmt.Errorf("vault token file %s is empty", cfg.TokenFile)
		}
		return token, nil
	}
	if token := os.Getenv("VAULT_TOKEN"); token != "" {
		return token, nil
	}
	return "", fmt.Errorf("no vault token available (set vault.token, vault.tokenFile, or VAULT_TOKEN)")
}

// readSecretData reads a KV v2 secret and returns its data map
func (vc *VaultClient) readSecretData(path string) (map[string]any, error) {
	secret, err := vc.client.Logical().Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret at %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("no secret found at %s", path)
	}
	data, ok := secret.Data["data"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KV v2 format (missing 'data' field)", path)
	}
	return data, nil
}

// GetStringSecret reads one string value from a KV v2 secret
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

// GetStringSliceSecret reads a comma-separated string value from a KV v2
// secret and splits it.
func (vc *VaultClient) GetStringSliceSecret(path, key string) ([]string, error) {
	value, err := vc.GetStringSecret(path, key)
	if err != nil {
		return nil, err
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result, nil
}

// loadSecretsFromVault overrides config values with secrets from Vault.
// Vault-sourced values take precedence over file and environment values.
func (c *Config) loadSecretsFromVault() error {
	client, err := NewVaultClient(c.Vault)
	if err != nil {
		return err
	}

	if path := c.Vault.Secrets.GeminiKey; path != "" {
		key, err := client.GetStringSecret(path, "apiKey")
		if err != nil {
			return fmt.Errorf("failed to load classifier API key: %w", err)
		}
		c.AI.APIKey = key
	}

	if path := c.Vault.Secrets.APIKeys; path != "" {
		keys, err := client.GetStringSliceSecret(path, "keys")
		if err != nil {
			return fmt.Errorf("failed to load server API keys: %w", err)
		}
		c.Server.APIKeys = keys
	}

	return nil
}
