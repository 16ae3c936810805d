// Package config loads bridge configuration from file, environment and
// defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides: VFXBRIDGE_STORE_KIND sets store.kind.
const EnvPrefix = "VFXBRIDGE"

// Store kinds.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

// Config is the complete bridge configuration.
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Assets  AssetsConfig  `mapstructure:"assets"`
	Store   StoreConfig   `mapstructure:"store"`
	Redis   RedisConfig   `mapstructure:"redis"`
	SQLite  SQLiteConfig  `mapstructure:"sqlite"`
	Lock    LockConfig    `mapstructure:"lock"`
	Recipes RecipesConfig `mapstructure:"recipes"`
	Watch   WatchConfig   `mapstructure:"watch"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	MCP     MCPConfig     `mapstructure:"mcp"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// AssetsConfig locates the asset tree helper files are written into.
type AssetsConfig struct {
	Dir string `mapstructure:"dir"`
}

// StoreConfig selects the asset store. EncryptionKey, a base64 AES-256 key,
// turns on encryption at rest; FallbackKeys still decrypt after a rotation.
type StoreConfig struct {
	Kind          string   `mapstructure:"kind"`
	Dir           string   `mapstructure:"dir"`
	EncryptionKey string   `mapstructure:"encryption_key"`
	FallbackKeys  []string `mapstructure:"fallback_keys"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type SQLiteConfig struct {
	DSN string `mapstructure:"dsn"`
}

type LockConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// RecipesConfig points at an optional directory of recipe documents.
type RecipesConfig struct {
	Dir string `mapstructure:"dir"`
}

type WatchConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Debounce time.Duration `mapstructure:"debounce"`
}

type HTTPConfig struct {
	Port int `mapstructure:"port"`
}

type MCPConfig struct {
	Transport string `mapstructure:"transport"`
	Port      int    `mapstructure:"port"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("assets.dir", "Assets")
	v.SetDefault("store.kind", StoreFile)
	v.SetDefault("store.dir", ".vfxbridge/assets")
	v.SetDefault("store.encryption_key", "")
	v.SetDefault("store.fallback_keys", []string{})
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "vfxbridge:")
	v.SetDefault("redis.ttl", time.Duration(0))
	v.SetDefault("sqlite.dsn", ".vfxbridge/assets.db")
	v.SetDefault("lock.ttl", 30*time.Second)
	v.SetDefault("recipes.dir", "")
	v.SetDefault("watch.enabled", false)
	v.SetDefault("watch.debounce", 250*time.Millisecond)
	v.SetDefault("http.port", 8080)
	v.SetDefault("mcp.transport", "stdio")
	v.SetDefault("mcp.port", 8081)
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults always decode.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Load reads the configuration. An empty path searches vfxbridge.yaml in the
// working directory and $HOME/.vfxbridge; not finding one is not an error.
// An explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("vfxbridge")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.vfxbridge")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated and numeric settings.
func (c *Config) Validate() error {
	switch c.Store.Kind {
	case StoreMemory, StoreFile, StoreRedis, StoreSQLite:
	default:
		return fmt.Errorf("store.kind must be one of memory, file, redis, sqlite, got: %q", c.Store.Kind)
	}
	switch c.MCP.Transport {
	case "stdio", "sse":
	default:
		return fmt.Errorf("mcp.transport must be stdio or sse, got: %q", c.MCP.Transport)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got: %q", c.Log.Level)
	}
	if c.Lock.TTL <= 0 {
		return fmt.Errorf("lock.ttl must be positive, got: %s", c.Lock.TTL)
	}
	if c.HTTP.Port < 0 || c.MCP.Port < 0 {
		return errors.New("ports must not be negative")
	}
	return nil
}
