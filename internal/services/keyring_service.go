package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/99designs/keyring"
)

const serviceName = "quickedit"

// providerEnvKeys lists the environment variables consulted per provider,
// after the generic API_KEY.
var providerEnvKeys = map[string][]string{
	"openai":    {"OPENAI_API_KEY"},
	"anthropic": {"ANTHROPIC_API_KEY"},
	"gemini":    {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
}

type KeyringService struct {
	ring keyring.Keyring
}

// NewKeyringService wraps an already opened keyring.
func NewKeyringService(ring keyring.Keyring) *KeyringService {
	return &KeyringService{ring: ring}
}

// OpenKeyring opens the OS credential store, or the named backend when set.
// The file backend keeps its encrypted items under the user config directory
// and reads its passphrase from QUICKEDIT_KEYRING_PASSWORD.
func OpenKeyring(backend string) (*KeyringService, error) {
	cfg := keyring.Config{
		ServiceName:             serviceName,
		KeychainName:            serviceName,
		LibSecretCollectionName: serviceName,
		KWalletAppID:            serviceName,
		KWalletFolder:           serviceName,
		FilePasswordFunc:        keyring.FixedStringPrompt(os.Getenv("QUICKEDIT_KEYRING_PASSWORD")),
	}
	if configDir, err := os.UserConfigDir(); err == nil {
		cfg.FileDir = filepath.Join(configDir, serviceName, "keys")
	}
	if backend = strings.TrimSpace(backend); backend != "" {
		cfg.AllowedBackends = []keyring.BackendType{keyring.BackendType(backend)}
	}
	ring, err := keyring.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	return NewKeyringService(ring), nil
}

func (s *KeyringService) StoreApiKey(provider string, apiKey []byte) error {
	if len(apiKey) == 0 {
		return errors.New("API key is empty")
	}
	if provider == "" {
		return errors.New("provider is required")
	}
	return s.ring.Set(keyring.Item{
		Key:         provider,
		Data:        apiKey,
		Label:       provider + " API key",
		Description: "API key for " + provider + " used by quickedit",
	})
}

func (s *KeyringService) GetApiKey(provider string) (string, error) {
	if provider == "" {
		return "", errors.New("provider is required")
	}
	item, err := s.ring.Get(provider)
	if err != nil {
		return "", err
	}
	return string(item.Data), nil
}

func (s *KeyringService) DeleteApiKey(provider string) error {
	if provider == "" {
		return errors.New("provider is required")
	}
	return s.ring.Remove(provider)
}

// ListApiKeys returns the providers that have a stored key.
func (s *KeyringService) ListApiKeys() ([]string, error) {
	keys, err := s.ring.Keys()
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

// ResolveAPIKey returns the first key found in: the explicit value, the
// generic API_KEY variable, the provider's own variables, the keyring.
// Ollama needs no key and resolves to the empty string.
func ResolveAPIKey(explicit, provider string, ring *KeyringService) (string, error) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return explicit, nil
	}
	if provider == "ollama" {
		return "", nil
	}
	for _, name := range append([]string{"API_KEY"}, providerEnvKeys[provider]...) {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v, nil
		}
	}
	if ring != nil {
		key, err := ring.GetApiKey(provider)
		if err == nil && key != "" {
			return key, nil
		}
		if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
			return "", fmt.Errorf("read %s key from keyring: %w", provider, err)
		}
	}
	return "", fmt.Errorf("no API key configured for provider %s", provider)
}
