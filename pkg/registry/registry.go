package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/vfxbridge/pkg/domain"
)

// Handler executes one action with loosely typed parameters.
type Handler func(ctx context.Context, params map[string]any) domain.Result

// Registry manages the available actions and their aliases.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	aliases  map[string]string
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
		aliases:  make(map[string]string),
	}
}

// Register adds an action to the registry.
// If an action with the same name exists, it is overwritten.
func (r *Registry) Register(name string, fn Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[strings.ToLower(name)] = fn
}

// Alias makes alias an alternative name for canonical.
func (r *Registry) Alias(alias, canonical string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aliases[strings.ToLower(alias)] = strings.ToLower(canonical)
}

// Resolve returns the canonical action name and its handler. Lookup is
// case-insensitive and follows one alias hop.
func (r *Registry) Resolve(name string) (string, Handler, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.aliases[key]; ok {
		key = c
	}
	fn, ok := r.handlers[key]
	return key, fn, ok
}

// Execute looks up an action by name and executes it.
func (r *Registry) Execute(ctx context.Context, name string, params map[string]any) domain.Result {
	if strings.TrimSpace(name) == "" {
		return domain.Fail(domain.CodeMissingAction, "action is required", nil)
	}
	_, fn, ok := r.Resolve(name)
	if !ok {
		return domain.Fail(domain.CodeUnknownAction, fmt.Sprintf("Unknown action '%s'", name),
			map[string]any{"available": r.Names()})
	}
	return fn(ctx, params)
}

// Names lists the registered action names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.handlers))
	for n := range r.handlers {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Aliases returns a copy of the alias table.
func (r *Registry) Aliases() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.aliases))
	for k, v := range r.aliases {
		out[k] = v
	}
	return out
}
