package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ConfigName is the base name looked up in the working directory.
const ConfigName = "quickedit-config"

// Config is the merged configuration: defaults, config file, environment
// and flags, in increasing precedence.
type Config struct {
	Provider       string         `mapstructure:"provider"`
	APIKey         string         `mapstructure:"api_key"`
	BaseURL        string         `mapstructure:"base_url"`
	Model          string         `mapstructure:"model"`
	HeuristicsFile string         `mapstructure:"heuristics_file"`
	Database       DatabaseConfig `mapstructure:"database"`
	Server         ServerConfig   `mapstructure:"server"`
	Cache          CacheConfig    `mapstructure:"cache"`
	Memory         MemoryConfig   `mapstructure:"memory"`
	Log            LogConfig      `mapstructure:"log"`
	Keyring        KeyringConfig  `mapstructure:"keyring"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type CacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Capacity int           `mapstructure:"capacity"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type MemoryConfig struct {
	MaxRecentChanges int `mapstructure:"max_recent_changes"`
}

type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

type KeyringConfig struct {
	Backend string `mapstructure:"backend"`
}

// DefaultConfig values
var DefaultConfig = Config{
	Provider: "openai",
	Database: DatabaseConfig{Path: filepath.Join(".quickedit", "quickedit.db")},
	Server:   ServerConfig{Addr: "127.0.0.1:8787"},
	Cache:    CacheConfig{Enabled: true, Capacity: 100, TTL: 10 * time.Minute},
	Memory:   MemoryConfig{MaxRecentChanges: 20},
	Log:      LogConfig{File: filepath.Join(".quickedit", "quickedit.log"), Level: "info"},
}

// flagKeys maps persistent flag names to configuration keys.
var flagKeys = map[string]string{
	"provider":  "provider",
	"model":     "model",
	"api-key":   "api_key",
	"base-url":  "base_url",
	"db":        "database.path",
	"log-level": "log.level",
	"log-json":  "log.json",
	"no-cache":  "",
}

// InitFlags registers the persistent flags shared by every command.
func InitFlags(root *cobra.Command) {
	f := root.PersistentFlags()
	f.StringP("config", "c", "", "path to a configuration file (YAML or JSON)")
	f.String("provider", DefaultConfig.Provider, "generation provider: openai, anthropic, gemini or ollama")
	f.String("model", "", "model name used for every complexity tier")
	f.String("api-key", "", "API key for the provider")
	f.String("base-url", "", "custom base URL for the provider API")
	f.String("db", DefaultConfig.Database.Path, "path of the session memory database")
	f.String("log-level", DefaultConfig.Log.Level, "log level: debug, info, warn or error")
	f.Bool("log-json", false, "write logs as JSON")
	f.Bool("no-cache", false, "disable the result cache")
}

// Load builds the configuration for cmd. cmd may be nil, in which case only
// defaults, the config file in cwd and the environment are consulted.
func Load(cmd *cobra.Command, cwd string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("QUICKEDIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnv(v)

	cfgFile := ""
	if cmd != nil {
		if f := cmd.Flags().Lookup("config"); f != nil {
			cfgFile = f.Value.String()
		}
	}
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", cfgFile, err)
		}
	} else {
		v.SetConfigName(ConfigName)
		v.AddConfigPath(cwd)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	if cmd != nil {
		if err := bindFlags(v, cmd); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cmd != nil {
		if f := cmd.Flags().Lookup("no-cache"); f != nil && f.Changed && f.Value.String() == "true" {
			cfg.Cache.Enabled = false
		}
	}
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	return &cfg, cfg.Validate()
}

// Validate rejects values the pipeline cannot run with.
func (c *Config) Validate() error {
	switch c.Provider {
	case "openai", "anthropic", "gemini", "ollama":
	default:
		return fmt.Errorf("unsupported provider %q", c.Provider)
	}
	if c.Cache.Enabled && c.Cache.Capacity <= 0 {
		return fmt.Errorf("cache.capacity must be positive")
	}
	if c.Memory.MaxRecentChanges <= 0 {
		return fmt.Errorf("memory.max_recent_changes must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", DefaultConfig.Provider)
	v.SetDefault("api_key", "")
	v.SetDefault("base_url", "")
	v.SetDefault("model", "")
	v.SetDefault("heuristics_file", "")
	v.SetDefault("database.path", DefaultConfig.Database.Path)
	v.SetDefault("server.addr", DefaultConfig.Server.Addr)
	v.SetDefault("cache.enabled", DefaultConfig.Cache.Enabled)
	v.SetDefault("cache.capacity", DefaultConfig.Cache.Capacity)
	v.SetDefault("cache.ttl", DefaultConfig.Cache.TTL)
	v.SetDefault("memory.max_recent_changes", DefaultConfig.Memory.MaxRecentChanges)
	v.SetDefault("log.file", DefaultConfig.Log.File)
	v.SetDefault("log.level", DefaultConfig.Log.Level)
	v.SetDefault("log.json", false)
	v.SetDefault("keyring.backend", "")
}

// bindEnv adds the unprefixed variables accepted for the common keys.
func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("provider", "QUICKEDIT_PROVIDER", "PROVIDER")
	_ = v.BindEnv("api_key", "QUICKEDIT_API_KEY", "API_KEY")
	_ = v.BindEnv("base_url", "QUICKEDIT_BASE_URL", "BASE_URL")
	_ = v.BindEnv("model", "QUICKEDIT_MODEL", "MODEL")
}

func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for name, key := range flagKeys {
		if key == "" {
			continue
		}
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	if f := cmd.Flags().Lookup("addr"); f != nil {
		if err := v.BindPFlag("server.addr", f); err != nil {
			return fmt.Errorf("bind flag addr: %w", err)
		}
	}
	return nil
}
