package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Loader implements ports.RecipeLoader and ports.Watchable using an
// in-memory map.
type Loader struct {
	mu       sync.RWMutex
	recipes  map[string][]byte
	watchers map[chan struct{}]struct{}
}

// NewLoader creates a Loader from raw recipe documents keyed by name.
func NewLoader(data map[string]string) *Loader {
	recipes := make(map[string][]byte)
	for k, v := range data {
		recipes[k] = []byte(v)
	}
	return &Loader{recipes: recipes, watchers: make(map[chan struct{}]struct{})}
}

// GetRecipe returns the raw recipe document.
func (l *Loader) GetRecipe(name string) ([]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	content, ok := l.recipes[name]
	if !ok {
		return nil, fmt.Errorf("recipe not found: %s", name)
	}
	return content, nil
}

// ListRecipes returns all recipe names, sorted.
func (l *Loader) ListRecipes() ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	keys := make([]string, 0, len(l.recipes))
	for k := range l.recipes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Set stores a recipe document and signals watchers.
func (l *Loader) Set(name, doc string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.recipes[name] = []byte(doc)
	for ch := range l.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Watch implements ports.Watchable. The channel closes when ctx is done.
func (l *Loader) Watch(ctx context.Context) (<-chan struct{}, error) {
	ch := make(chan struct{}, 1)
	l.mu.Lock()
	l.watchers[ch] = struct{}{}
	l.mu.Unlock()

	go func() {
		<-ctx.Done()
		l.mu.Lock()
		delete(l.watchers, ch)
		close(ch)
		l.mu.Unlock()
	}()
	return ch, nil
}
