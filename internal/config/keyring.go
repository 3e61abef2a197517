package config

import (
	"fmt"
	"log/slog"

	"github.com/zalando/go-keyring"
)

const (
	// KeyringService is the service name this module registers in the OS
	// keychain.
	KeyringService = "rcabrain"

	// KeyringAPIKeyItem is the item the LLM API key is stored under.
	KeyringAPIKeyItem = "llm-api-key"
)

// KeyringManager stores the LLM API key in the OS keychain.
type KeyringManager struct {
	logger *slog.Logger
}

// NewKeyringManager returns a manager logging under the keyring component.
func NewKeyringManager() *KeyringManager {
	return &KeyringManager{logger: slog.Default().With("component", "keyring")}
}

// SaveAPIKey writes the key to the keychain.
func (km *KeyringManager) SaveAPIKey(apiKey string) error {
	if apiKey == "" {
		return fmt.Errorf("api key cannot be empty")
	}
	if err := keyring.Set(KeyringService, KeyringAPIKeyItem, apiKey); err != nil {
		km.logger.Error("keychain write failed", "error", err)
		return fmt.Errorf("failed to save to OS keychain: %w", err)
	}
	return nil
}

// SetAPIKey is an alias for SaveAPIKey.
func (km *KeyringManager) SetAPIKey(apiKey string) error { return km.SaveAPIKey(apiKey) }

// GetAPIKey reads the key from the keychain; absent keys return "" with
// no error.
func (km *KeyringManager) GetAPIKey() (string, error) {
	apiKey, err := keyring.Get(KeyringService, KeyringAPIKeyItem)
	if err == keyring.ErrNotFound {
		return "", nil
	}
	if err != nil {
		km.logger.Error("keychain read failed", "error", err)
		return "", fmt.Errorf("failed to read from OS keychain: %w", err)
	}
	return apiKey, nil
}

// DeleteAPIKey removes the key; deleting an absent key is not an error.
func (km *KeyringManager) DeleteAPIKey() error {
	err := keyring.Delete(KeyringService, KeyringAPIKeyItem)
	if err == keyring.ErrNotFound {
		return nil
	}
	if err != nil {
		km.logger.Error("keychain delete failed", "error", err)
		return fmt.Errorf("failed to delete from OS keychain: %w", err)
	}
	return nil
}

// IsAvailable probes for a usable keychain backend; headless hosts
// without one report false.
func (km *KeyringManager) IsAvailable() bool {
	_, err := keyring.Get(KeyringService, "test-availability")
	if err == nil || err == keyring.ErrNotFound {
		return true
	}
	km.logger.Debug("keychain not available", "error", err)
	return false
}

// MaskAPIKey renders a key safe for display: "sk-proj...abc1".
func MaskAPIKey(apiKey string) string {
	switch {
	case apiKey == "":
		return "(not set)"
	case len(apiKey) < 12:
		return "***"
	default:
		return fmt.Sprintf("%s...%s", apiKey[:7], apiKey[len(apiKey)-4:])
	}
}
