package vfxsim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/aretw0/vfxbridge/internal/logging"
	"github.com/aretw0/vfxbridge/pkg/domain"
	"github.com/aretw0/vfxbridge/pkg/host"
	"github.com/aretw0/vfxbridge/pkg/ports"
)

// ErrAssetExists is returned by CreateGraph when the path is taken.
var ErrAssetExists = errors.New("asset already exists")

// Asset is an open graph asset.
type Asset struct {
	path  string
	graph *Graph
	dirty bool
}

func (a *Asset) Path() string      { return a.path }
func (a *Asset) Root() host.Object { return a.graph }
func (a *Asset) Graph() *Graph     { return a.graph }
func (a *Asset) Dirty() bool       { return a.dirty }
func (a *Asset) SetDirty()         { a.dirty = true }

// Editor is a headless host. It implements host.Host.
type Editor struct {
	store  ports.AssetStore
	logger *slog.Logger
	ids    *idSource

	mu         sync.RWMutex
	generation int
	lib        *library
	open       map[string]*Asset
	reload     []func()
}

// Option configures an Editor.
type Option func(*Editor)

// WithLogger sets the editor logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) {
		e.logger = logger
	}
}

var _ host.Host = (*Editor)(nil)

// New creates an editor persisting graphs in store.
func New(store ports.AssetStore, opts ...Option) *Editor {
	e := &Editor{
		store:  store,
		logger: logging.NewNop(),
		ids:    &idSource{},
		open:   make(map[string]*Asset),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.lib = newLibrary(e.ids, "1")
	e.generation = 1
	return e
}

func (e *Editor) Modules() []*host.Module {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return []*host.Module{e.lib.mod}
}

func (e *Editor) TypeOf(obj any) (*host.Type, bool) {
	return host.TypeOf(e.Modules(), obj)
}

// OpenGraph returns the open asset at path, loading it from the store on
// first use.
func (e *Editor) OpenGraph(ctx context.Context, path string) (host.Asset, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if a, ok := e.open[path]; ok {
		return a, nil
	}
	data, err := e.store.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	g, err := e.lib.decodeGraph(data)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	a := &Asset{path: path, graph: g}
	e.open[path] = a
	e.logger.Debug("graph opened", "path", path, "generation", e.generation)
	return a, nil
}

// CreateGraph creates and saves an empty graph at path.
func (e *Editor) CreateGraph(ctx context.Context, path string) (*Asset, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.open[path]; ok {
		return nil, fmt.Errorf("create %s: %w", path, ErrAssetExists)
	}
	if _, err := e.store.Load(ctx, path); err == nil {
		return nil, fmt.Errorf("create %s: %w", path, ErrAssetExists)
	} else if !errors.Is(err, domain.ErrAssetNotFound) {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	a := &Asset{path: path, graph: e.lib.newGraph(), dirty: true}
	if err := e.save(ctx, a); err != nil {
		return nil, err
	}
	e.open[path] = a
	e.logger.Info("graph created", "path", path)
	return a, nil
}

// Persist marks the asset dirty and writes it to the store.
func (e *Editor) Persist(ctx context.Context, asset host.Asset) error {
	a, ok := asset.(*Asset)
	if !ok {
		return fmt.Errorf("persist: foreign asset %T", asset)
	}
	a.SetDirty()
	return e.save(ctx, a)
}

func (e *Editor) save(ctx context.Context, a *Asset) error {
	data, err := encodeGraph(a.graph)
	if err != nil {
		return fmt.Errorf("persist %s: %w", a.path, err)
	}
	if err := e.store.Save(ctx, a.path, data); err != nil {
		return fmt.Errorf("persist %s: %w", a.path, err)
	}
	a.dirty = false
	return nil
}

// Delete removes the asset from the store and closes it.
func (e *Editor) Delete(ctx context.Context, path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.open, path)
	return e.store.Delete(ctx, path)
}

// List returns the stored asset paths.
func (e *Editor) List(ctx context.Context) ([]string, error) {
	return e.store.List(ctx)
}

// Evict closes path so the next OpenGraph reads the store again.
func (e *Editor) Evict(path string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.open, path)
}

func (e *Editor) OnReload(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reload = append(e.reload, fn)
}

// Reload swaps in a new generation of the object model and closes open
// assets. Registered hooks run after the swap, so lookups they make see the
// new generation.
func (e *Editor) Reload() {
	e.mu.Lock()
	e.generation++
	e.lib = newLibrary(e.ids, strconv.Itoa(e.generation))
	e.open = make(map[string]*Asset)
	gen := e.generation
	hooks := append([]func(){}, e.reload...)
	e.mu.Unlock()

	e.logger.Info("editor reloaded", "generation", gen)
	for _, fn := range hooks {
		fn()
	}
}

// Generation counts reloads, starting at 1.
func (e *Editor) Generation() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.generation
}
