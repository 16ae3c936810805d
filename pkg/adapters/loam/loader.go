package loam

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"
)

// Loader adapts a Loam repository to ports.RecipeLoader.
type Loader struct {
	Repo *loam.TypedRepository[RecipeMetadata]
}

// New creates a new Loam recipe loader.
func New(repo *loam.TypedRepository[RecipeMetadata]) *Loader {
	return &Loader{
		Repo: repo,
	}
}

// Open initializes a read-only Loam repository rooted at dir.
func Open(dir string) (*Loader, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve recipe dir: %w", err)
	}
	repo, err := loam.Init(abs, loam.WithStrict(true), loam.WithReadOnly(true), loam.WithVersioning(false))
	if err != nil {
		return nil, fmt.Errorf("open recipe dir %s: %w", dir, err)
	}
	return New(loam.NewTypedRepository[RecipeMetadata](repo)), nil
}

// GetRecipe returns the recipe as a JSON recipe document.
func (l *Loader) GetRecipe(name string) ([]byte, error) {
	ctx := context.Background()

	// Loam resolves "sparks" to sparks.md.
	doc, err := l.Repo.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("loam get failed for %s: %w", name, err)
	}

	meta := doc.Data
	if meta.Name == "" {
		meta.Name = trimExtension(doc.ID)
	}
	if meta.Description == "" {
		meta.Description = summary(doc.Content)
	}
	if meta.Operations == nil {
		meta.Operations = []map[string]any{}
	}

	bytes, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal recipe %s: %w", name, err)
	}
	return bytes, nil
}

// ListRecipes lists every recipe document, by file name without extension.
func (l *Loader) ListRecipes() ([]string, error) {
	ctx := context.Background()
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	names := make([]string, 0, len(docs))

	for _, doc := range docs {
		name := trimExtension(doc.ID)
		if existing, ok := seen[name]; ok {
			return nil, fmt.Errorf("collision detected: recipe '%s' is defined in both '%s' and '%s'", name, existing, doc.ID)
		}
		seen[name] = doc.ID
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}

// summary returns the first non-empty line of a markdown body.
func summary(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#"))
		if line != "" {
			return line
		}
	}
	return ""
}

// Watch implements ports.Watchable.
func (l *Loader) Watch(ctx context.Context) (<-chan struct{}, error) {
	events, err := l.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan struct{}, 1)

	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-events:
				if !ok {
					return
				}
				// Coalesce: one pending signal is enough for a reload.
				select {
				case ch <- struct{}{}:
				default:
				}
			}
		}
	}()

	return ch, nil
}
