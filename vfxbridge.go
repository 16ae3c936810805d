package vfxbridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/vfxbridge/internal/logging"
	"github.com/aretw0/vfxbridge/internal/validator"
	"github.com/aretw0/vfxbridge/pkg/adapters/memory"
	"github.com/aretw0/vfxbridge/pkg/batch"
	"github.com/aretw0/vfxbridge/pkg/contract"
	"github.com/aretw0/vfxbridge/pkg/domain"
	"github.com/aretw0/vfxbridge/pkg/dsl"
	"github.com/aretw0/vfxbridge/pkg/graph"
	"github.com/aretw0/vfxbridge/pkg/observability"
	"github.com/aretw0/vfxbridge/pkg/ops"
	"github.com/aretw0/vfxbridge/pkg/ports"
	"github.com/aretw0/vfxbridge/pkg/registry"
	"github.com/aretw0/vfxbridge/pkg/resolve"
	"github.com/aretw0/vfxbridge/pkg/session"
	"github.com/aretw0/vfxbridge/pkg/vfxsim"
	"github.com/google/uuid"
)

var _ ports.ActionEngine = (*Bridge)(nil)

// Bridge is the entry point for driving VFX graphs.
// It owns the editor, the resolution cache and the action registry, and
// serializes actions per asset path.
type Bridge struct {
	store    ports.AssetStore
	editor   *vfxsim.Editor
	cache    *resolve.Cache
	engine   *ops.Engine
	runner   *batch.Runner
	library  *batch.Library
	registry *registry.Registry
	sessions *session.Manager
	metrics  *observability.Metrics
	logger   *slog.Logger

	locker   ports.DistributedLocker
	lockTTL  time.Duration
	loader   ports.RecipeLoader
	fileRoot string

	// reloading is held for writing by Reload and for reading by every
	// action, so a reload never interleaves with graph work.
	reloading sync.RWMutex
}

// Option defines a functional option for configuring the Bridge.
type Option func(*Bridge)

// WithStore sets the asset store. Defaults to an in-memory store.
func WithStore(store ports.AssetStore) Option {
	return func(b *Bridge) {
		b.store = store
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) {
		b.logger = logger
	}
}

// WithLocker coordinates asset locks with other bridge replicas.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(b *Bridge) {
		b.locker = locker
	}
}

// WithLockTTL sets the distributed lock TTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(b *Bridge) {
		b.lockTTL = ttl
	}
}

// WithMetrics records activity on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(b *Bridge) {
		b.metrics = m
	}
}

// WithRecipeLoader adds user recipes next to the built-in ones.
func WithRecipeLoader(loader ports.RecipeLoader) Option {
	return func(b *Bridge) {
		b.loader = loader
	}
}

// WithFileRoot sets the directory generated helper files are written under.
func WithFileRoot(dir string) Option {
	return func(b *Bridge) {
		b.fileRoot = dir
	}
}

// New assembles a Bridge.
func New(opts ...Option) *Bridge {
	b := &Bridge{}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = logging.NewNop()
	}
	if b.store == nil {
		b.store = memory.NewStore()
	}

	b.editor = vfxsim.New(b.store, vfxsim.WithLogger(b.logger))
	b.cache = resolve.New(b.editor, resolve.WithLogger(b.logger))
	b.editor.OnReload(b.cache.Clear)

	engineOpts := []ops.Option{ops.WithLogger(b.logger)}
	if b.fileRoot != "" {
		engineOpts = append(engineOpts, ops.WithFileRoot(b.fileRoot))
	}
	b.engine = ops.New(b.editor, graph.New(b.cache), engineOpts...)
	b.runner = batch.NewRunner(b.engine, batch.WithLogger(b.logger))

	b.library = batch.NewLibrary(dsl.Recipes()...)
	b.library.SetLogger(b.logger)
	if b.loader != nil {
		b.library.UseLoader(b.loader, "loam")
	}

	b.registry = registry.NewRegistry()
	b.engine.Register(b.registry)
	batch.Register(b.registry, b.runner, b.library)

	sessionOpts := []session.Option{session.WithLogger(b.logger)}
	if b.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(b.locker))
	}
	if b.lockTTL > 0 {
		sessionOpts = append(sessionOpts, session.WithTTL(b.lockTTL))
	}
	b.sessions = session.NewManager(sessionOpts...)

	b.metrics.WatchCache(b.cache.Stats)
	return b
}

// Execute runs one action and returns its envelope. It never panics and
// never returns a nil-ish Result: every failure is classified.
func (b *Bridge) Execute(ctx context.Context, action string, params map[string]any) domain.Result {
	start := time.Now()
	logger := b.logger.With("request_id", uuid.NewString())

	name, _, ok := b.registry.Resolve(action)
	if !ok {
		name = action
	}

	params, path, err := normalize(params)
	var res domain.Result
	if err != nil {
		res = contract.FromError(err)
	} else {
		res = b.locked(ctx, name, path, params)
	}

	elapsed := time.Since(start)
	logger.Debug("action executed", "action", name, "path", path, "duration", elapsed)
	if !res.Success {
		logger.Warn("action failed", "action", name, "path", path, "error_code", res.ErrorCode, "message", res.Message)
	}
	b.metrics.ObserveAction(name, res, elapsed)
	if rep, isReport := res.Data.(batch.Report); isReport {
		b.metrics.ObserveBatch(rep)
	}
	return res
}

func (b *Bridge) locked(ctx context.Context, action, path string, params map[string]any) (res domain.Result) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("action panicked", "action", action, "panic", r)
			res = domain.Fail(domain.CodeInternalException, fmt.Sprintf("Error executing %s: %v", action, r), nil)
		}
	}()
	b.reloading.RLock()
	defer b.reloading.RUnlock()
	err := b.sessions.WithLock(ctx, path, func(ctx context.Context) error {
		res = b.registry.Execute(ctx, action, params)
		return nil
	})
	if err != nil {
		return contract.FromError(domain.Errorf(domain.CodeInternalException, "Could not lock %s: %v", path, err).Wrap(err))
	}
	return res
}

// normalize returns a copy of params with its path cleaned. Params without
// a path pass through.
func normalize(params map[string]any) (map[string]any, string, error) {
	out := make(map[string]any, len(params)+1)
	for k, v := range params {
		out[k] = v
	}
	raw, ok := out["path"].(string)
	if !ok || strings.TrimSpace(raw) == "" {
		return out, "", nil
	}
	path, err := validator.NormalizePath(raw)
	if err != nil {
		return out, "", err
	}
	out["path"] = path
	return out, path, nil
}

// CreateGraph creates and saves an empty graph at path.
func (b *Bridge) CreateGraph(ctx context.Context, path string) error {
	path, err := validator.NormalizePath(path)
	if err != nil {
		return err
	}
	b.reloading.RLock()
	defer b.reloading.RUnlock()
	return b.sessions.WithLock(ctx, path, func(ctx context.Context) error {
		if _, err := b.editor.CreateGraph(ctx, path); err != nil {
			if errors.Is(err, vfxsim.ErrAssetExists) {
				return domain.Errorf(domain.CodeValidation, "A graph already exists at %s", path).Wrap(err)
			}
			return err
		}
		return nil
	})
}

// Reload drops every open graph and the resolution cache. Call it after
// assets changed behind the bridge's back. It waits for running actions and
// blocks new ones until the cache is cleared.
func (b *Bridge) Reload() {
	b.reloading.Lock()
	defer b.reloading.Unlock()
	b.editor.Reload()
}

// Actions lists the action names, sorted.
func (b *Bridge) Actions() []string { return b.registry.Names() }

// Aliases maps alias names to actions.
func (b *Bridge) Aliases() map[string]string { return b.registry.Aliases() }

// Recipes returns the recipe library.
func (b *Bridge) Recipes() *batch.Library { return b.library }

// Editor returns the headless editor holding the graphs.
func (b *Bridge) Editor() *vfxsim.Editor { return b.editor }

// Engine returns the action engine.
func (b *Bridge) Engine() *ops.Engine { return b.engine }

// Cache returns the resolution cache.
func (b *Bridge) Cache() *resolve.Cache { return b.cache }

// Metrics returns the metrics, nil when none were configured.
func (b *Bridge) Metrics() *observability.Metrics { return b.metrics }

// Logger returns the bridge logger.
func (b *Bridge) Logger() *slog.Logger { return b.logger }
