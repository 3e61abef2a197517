package config

import (
	"os"
	"path/filepath"

	"github.com/irinasmt/rcabrain/internal/errors"
	"gopkg.in/yaml.v3"
)

// CredentialManager resolves the LLM API key through a priority chain:
// environment variable, then OS keychain, then the user config file.
type CredentialManager struct {
	keyring    *KeyringManager
	configPath string
}

// Credentials is the on-disk fallback shape for hosts without a keychain.
type Credentials struct {
	LLMAPIKey string `yaml:"llm_api_key"`
}

// NewCredentialManager builds a manager rooted at the user's config dir.
func NewCredentialManager() *CredentialManager {
	homeDir, _ := os.UserHomeDir()
	return &CredentialManager{
		keyring:    NewKeyringManager(),
		configPath: filepath.Join(homeDir, ".config", "rcabrain", "config.yaml"),
	}
}

// GetLLMAPIKey walks the priority chain and returns the first key found.
func (cm *CredentialManager) GetLLMAPIKey() (string, error) {
	if key := os.Getenv("LLM_API_KEY"); key != "" {
		return key, nil
	}
	if cm.keyring.IsAvailable() {
		if key, err := cm.keyring.GetAPIKey(); err == nil && key != "" {
			return key, nil
		}
	}
	if creds, err := cm.readConfigFile(); err == nil && creds.LLMAPIKey != "" {
		return creds.LLMAPIKey, nil
	}
	return "", errors.ConfigErrorf(
		"LLM_API_KEY not found. Set it via:\n"+
			"  1. Environment variable: export LLM_API_KEY=...\n"+
			"  2. OS keychain (service %q)\n"+
			"  3. Config file: %s", KeyringService, cm.configPath)
}

// HasCredentials reports whether any source in the chain holds a key.
func (cm *CredentialManager) HasCredentials() bool {
	key, err := cm.GetLLMAPIKey()
	return err == nil && key != ""
}

// SaveCredentials prefers the keychain and falls back to the config file
// on hosts without a keychain backend.
func (cm *CredentialManager) SaveCredentials(creds Credentials) error {
	if cm.keyring.IsAvailable() {
		if creds.LLMAPIKey == "" {
			return nil
		}
		if err := cm.keyring.SetAPIKey(creds.LLMAPIKey); err != nil {
			return errors.Wrap(err, errors.ErrorTypeConfig, errors.SeverityHigh,
				"failed to save LLM API key to keychain")
		}
		return nil
	}
	return cm.writeConfigFile(creds)
}

// GetConfigPath returns where the fallback config file lives.
func (cm *CredentialManager) GetConfigPath() string { return cm.configPath }

func (cm *CredentialManager) readConfigFile() (*Credentials, error) {
	data, err := os.ReadFile(cm.configPath)
	if err != nil {
		return nil, err
	}
	var creds Credentials
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

func (cm *CredentialManager) writeConfigFile(creds Credentials) error {
	if err := os.MkdirAll(filepath.Dir(cm.configPath), 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(creds)
	if err != nil {
		return err
	}
	return os.WriteFile(cm.configPath, data, 0o600)
}
