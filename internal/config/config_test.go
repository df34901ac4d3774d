package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRoot() *cobra.Command {
	root := &cobra.Command{Use: "quickedit"}
	InitFlags(root)
	return root
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Provider)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 100, cfg.Cache.Capacity)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 20, cfg.Memory.MaxRecentChanges)
	assert.Equal(t, "127.0.0.1:8787", cfg.Server.Addr)
}

func TestLoad_ConfigFileInWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	content := "provider: anthropic\ncache:\n  ttl: 30s\n  capacity: 5\nmemory:\n  max_recent_changes: 3\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigName+".yaml"), []byte(content), 0o644))

	cfg, err := Load(nil, dir)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.Provider)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, 5, cfg.Cache.Capacity)
	assert.Equal(t, 3, cfg.Memory.MaxRecentChanges)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigName+".yaml"), []byte("provider: anthropic\n"), 0o644))
	t.Setenv("PROVIDER", "gemini")
	t.Setenv("QUICKEDIT_CACHE_CAPACITY", "7")

	cfg, err := Load(nil, dir)
	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.Provider)
	assert.Equal(t, 7, cfg.Cache.Capacity)
}

func TestLoad_FlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("PROVIDER", "gemini")
	root := newRoot()
	require.NoError(t, root.ParseFlags([]string{"--provider", "ollama", "--no-cache", "--model", "llama3"}))

	cfg, err := Load(root, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "ollama", cfg.Provider)
	assert.Equal(t, "llama3", cfg.Model)
	assert.False(t, cfg.Cache.Enabled)
}

func TestLoad_ExplicitConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"provider": "anthropic", "server": {"addr": ":9000"}}`), 0o644))
	root := newRoot()
	require.NoError(t, root.ParseFlags([]string{"--config", path}))

	cfg, err := Load(root, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Addr)

	require.NoError(t, root.ParseFlags([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}))
	_, err = Load(root, t.TempDir())
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig
	cfg.Provider = "nope"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig
	cfg.Memory.MaxRecentChanges = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig
	assert.NoError(t, cfg.Validate())
}
