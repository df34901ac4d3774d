package services

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearKeyEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"} {
		t.Setenv(name, "")
	}
}

func TestKeyringService_StoreGetDelete(t *testing.T) {
	svc := NewKeyringService(keyring.NewArrayKeyring(nil))

	require.NoError(t, svc.StoreApiKey("openai", []byte("sk-1")))
	require.NoError(t, svc.StoreApiKey("anthropic", []byte("sk-2")))

	key, err := svc.GetApiKey("openai")
	require.NoError(t, err)
	assert.Equal(t, "sk-1", key)

	keys, err := svc.ListApiKeys()
	require.NoError(t, err)
	assert.Equal(t, []string{"anthropic", "openai"}, keys)

	require.NoError(t, svc.DeleteApiKey("openai"))
	_, err = svc.GetApiKey("openai")
	assert.ErrorIs(t, err, keyring.ErrKeyNotFound)

	assert.Error(t, svc.StoreApiKey("openai", nil))
	assert.Error(t, svc.StoreApiKey("", []byte("x")))
}

func TestResolveAPIKey_Order(t *testing.T) {
	clearKeyEnv(t)
	ring := NewKeyringService(keyring.NewArrayKeyring(nil))
	require.NoError(t, ring.StoreApiKey("openai", []byte("from-ring")))

	key, err := ResolveAPIKey("", "openai", ring)
	require.NoError(t, err)
	assert.Equal(t, "from-ring", key)

	t.Setenv("OPENAI_API_KEY", "from-provider-env")
	key, err = ResolveAPIKey("", "openai", ring)
	require.NoError(t, err)
	assert.Equal(t, "from-provider-env", key)

	t.Setenv("API_KEY", "from-generic-env")
	key, err = ResolveAPIKey("", "openai", ring)
	require.NoError(t, err)
	assert.Equal(t, "from-generic-env", key)

	key, err = ResolveAPIKey(" explicit ", "openai", ring)
	require.NoError(t, err)
	assert.Equal(t, "explicit", key)
}

func TestResolveAPIKey_GeminiFallsBackToGoogleKey(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("GOOGLE_API_KEY", "g-key")
	key, err := ResolveAPIKey("", "gemini", nil)
	require.NoError(t, err)
	assert.Equal(t, "g-key", key)
}

func TestResolveAPIKey_Missing(t *testing.T) {
	clearKeyEnv(t)
	_, err := ResolveAPIKey("", "anthropic", NewKeyringService(keyring.NewArrayKeyring(nil)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic")

	key, err := ResolveAPIKey("", "ollama", nil)
	require.NoError(t, err)
	assert.Empty(t, key)
}
