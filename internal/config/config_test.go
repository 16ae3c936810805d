package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/vfxbridge/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "Assets", cfg.Assets.Dir)
	assert.Equal(t, config.StoreFile, cfg.Store.Kind)
	assert.Equal(t, ".vfxbridge/assets", cfg.Store.Dir)
	assert.Equal(t, 30*time.Second, cfg.Lock.TTL)
	assert.Equal(t, 250*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "stdio", cfg.MCP.Transport)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: debug
store:
  kind: redis
redis:
  addr: cache:6379
  ttl: 1h
recipes:
  dir: ./recipes
watch:
  enabled: true
  debounce: 1s
`), 0644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, config.StoreRedis, cfg.Store.Kind)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, time.Hour, cfg.Redis.TTL)
	assert.Equal(t, "./recipes", cfg.Recipes.Dir)
	assert.True(t, cfg.Watch.Enabled)
	assert.Equal(t, time.Second, cfg.Watch.Debounce)
	assert.Equal(t, "vfxbridge:", cfg.Redis.Prefix, "unset keys keep defaults")
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("VFXBRIDGE_STORE_KIND", "sqlite")
	t.Setenv("VFXBRIDGE_HTTP_PORT", "9090")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.StoreSQLite, cfg.Store.Kind)
	assert.Equal(t, 9090, cfg.HTTP.Port)
}

func TestLoad_Invalid(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("VFXBRIDGE_STORE_KIND", "postgres")

	_, err := config.Load("")
	assert.ErrorContains(t, err, "store.kind")
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
