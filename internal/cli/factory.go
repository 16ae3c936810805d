package cli

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/vfxbridge"
	"github.com/aretw0/vfxbridge/internal/config"
	"github.com/aretw0/vfxbridge/pkg/adapters/file"
	loamAdapter "github.com/aretw0/vfxbridge/pkg/adapters/loam"
	"github.com/aretw0/vfxbridge/pkg/adapters/memory"
	redisAdapter "github.com/aretw0/vfxbridge/pkg/adapters/redis"
	"github.com/aretw0/vfxbridge/pkg/adapters/sqlite"
	"github.com/aretw0/vfxbridge/pkg/observability"
	"github.com/aretw0/vfxbridge/pkg/persistence/middleware"
	"github.com/aretw0/vfxbridge/pkg/ports"
)

// Runtime is a configured Bridge plus the resources it holds open.
type Runtime struct {
	Bridge  *vfxbridge.Bridge
	Metrics *observability.Metrics
	Config  *config.Config
	Logger  *slog.Logger

	closers []io.Closer
}

// Close releases the store and locker connections.
func (rt *Runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewRuntime builds a Bridge from cfg.
func NewRuntime(cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	rt := &Runtime{
		Metrics: observability.NewMetrics(),
		Config:  cfg,
		Logger:  logger,
	}

	opts := []vfxbridge.Option{
		vfxbridge.WithLogger(logger),
		vfxbridge.WithMetrics(rt.Metrics),
		vfxbridge.WithFileRoot(cfg.Assets.Dir),
		vfxbridge.WithLockTTL(cfg.Lock.TTL),
	}

	store, locker, err := rt.openStore(cfg)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	store, err = encryptStore(store, cfg.Store)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	opts = append(opts, vfxbridge.WithStore(store))
	if locker != nil {
		opts = append(opts, vfxbridge.WithLocker(locker))
	}

	if cfg.Recipes.Dir != "" {
		loader, err := loamAdapter.Open(cfg.Recipes.Dir)
		if err != nil {
			_ = rt.Close()
			return nil, fmt.Errorf("failed to open recipes at %s: %w", cfg.Recipes.Dir, err)
		}
		opts = append(opts, vfxbridge.WithRecipeLoader(loader))
	}

	rt.Bridge = vfxbridge.New(opts...)
	logger.Debug("bridge ready", "store", cfg.Store.Kind, "recipes", cfg.Recipes.Dir, "distributed_lock", locker != nil)
	return rt, nil
}

func (rt *Runtime) openStore(cfg *config.Config) (ports.AssetStore, ports.DistributedLocker, error) {
	switch cfg.Store.Kind {
	case config.StoreMemory:
		return memory.NewStore(), nil, nil
	case config.StoreFile:
		return file.New(cfg.Store.Dir), nil, nil
	case config.StoreRedis:
		store := redisAdapter.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redisAdapter.WithPrefix(cfg.Redis.Prefix),
			redisAdapter.WithTTL(cfg.Redis.TTL),
		)
		rt.closers = append(rt.closers, store)
		return store, redisAdapter.NewLocker(store.Client(), cfg.Redis.Prefix), nil
	case config.StoreSQLite:
		store, err := sqlite.Open(cfg.SQLite.DSN)
		if err != nil {
			return nil, nil, err
		}
		rt.closers = append(rt.closers, store)
		return store, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown store kind %q", cfg.Store.Kind)
	}
}

// encryptStore wraps store with encryption at rest when a key is configured.
func encryptStore(store ports.AssetStore, cfg config.StoreConfig) (ports.AssetStore, error) {
	if cfg.EncryptionKey == "" {
		return store, nil
	}
	active, err := base64.StdEncoding.DecodeString(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("store.encryption_key is not base64: %w", err)
	}
	enc := middleware.EncryptionConfig{ActiveKey: active}
	for i, k := range cfg.FallbackKeys {
		key, err := base64.StdEncoding.DecodeString(k)
		if err != nil {
			return nil, fmt.Errorf("store.fallback_keys[%d] is not base64: %w", i, err)
		}
		enc.FallbackKeys = append(enc.FallbackKeys, key)
	}
	mw, err := middleware.NewEncryptionMiddleware(enc)
	if err != nil {
		return nil, err
	}
	return middleware.Chain(store, mw), nil
}
