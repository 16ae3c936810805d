package resolve

import (
	"log/slog"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/aretw0/vfxbridge/internal/logging"
	"github.com/aretw0/vfxbridge/pkg/host"
)

// DefaultNamespace scopes Type lookups to the editor's graph namespace.
const DefaultNamespace = "Editor.VFX"

// ModuleSource provides the modules currently loaded by the host.
type ModuleSource interface {
	Modules() []*host.Module
}

// Stats counts cache activity since creation.
type Stats struct {
	TypeScans     int
	TypeHits      int
	MethodLookups int
	MethodHits    int
	MemberLookups int
	MemberHits    int
	Clears        int
}

// Cache is the process-wide resolution cache.
type Cache struct {
	src       ModuleSource
	namespace string
	logger    *slog.Logger

	mu       sync.Mutex
	types    map[string]*host.Type
	subtypes map[string][]*host.Type
	methods  map[string]*host.Method
	members  map[string]*host.Member
	stats    Stats

	// gen advances on Clear. A lookup that started under an older gen
	// returns its result without storing it.
	gen uint64
}

// Option configures a Cache.
type Option func(*Cache)

// WithNamespace changes the namespace prefix used by Type.
func WithNamespace(prefix string) Option {
	return func(c *Cache) {
		c.namespace = prefix
	}
}

// WithLogger configures a logger for cache events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// New creates an empty cache over src.
func New(src ModuleSource, opts ...Option) *Cache {
	c := &Cache{
		src:       src,
		namespace: DefaultNamespace,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.reset()
	return c
}

func (c *Cache) reset() {
	c.types = make(map[string]*host.Type)
	c.subtypes = make(map[string][]*host.Type)
	c.methods = make(map[string]*host.Method)
	c.members = make(map[string]*host.Member)
}

// Clear drops every cached handle. Lookups after Clear rescan lazily.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
	c.gen++
	c.stats.Clears++
	c.logger.Debug("resolution cache cleared")
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *Cache) allTypes() []*host.Type {
	var out []*host.Type
	for _, m := range c.src.Modules() {
		out = append(out, m.Types()...)
	}
	return out
}

// Type resolves a type by exact name inside the configured namespace prefix.
// Misses are cached as nil.
func (c *Cache) Type(name string) *host.Type {
	if strings.TrimSpace(name) == "" {
		return nil
	}
	key := "ns|" + name
	return c.lookupType(key, func(t *host.Type) bool {
		return t.Name == name && strings.HasPrefix(t.Namespace, c.namespace)
	})
}

// ResolveType resolves a type by case-insensitive name or full name. When
// base is given the result must be assignable to it.
func (c *Cache) ResolveType(name string, base *host.Type) *host.Type {
	if strings.TrimSpace(name) == "" {
		return nil
	}
	baseKey := "*"
	if base != nil {
		baseKey = base.FullName()
	}
	key := "ci|" + strings.ToLower(name) + "|" + baseKey
	return c.lookupType(key, func(t *host.Type) bool {
		if !strings.EqualFold(t.Name, name) && !strings.EqualFold(t.FullName(), name) {
			return false
		}
		return base == nil || t.AssignableTo(base)
	})
}

func (c *Cache) lookupType(key string, match func(*host.Type) bool) *host.Type {
	c.mu.Lock()
	if t, ok := c.types[key]; ok {
		c.stats.TypeHits++
		c.mu.Unlock()
		return t
	}
	c.stats.TypeScans++
	gen := c.gen
	c.mu.Unlock()

	var found *host.Type
	for _, t := range c.allTypes() {
		if match(t) {
			found = t
			break
		}
	}

	c.mu.Lock()
	if c.gen == gen {
		c.types[key] = found
	}
	c.mu.Unlock()
	if found == nil {
		c.logger.Debug("type not found", "key", key)
	}
	return found
}

// Subtypes returns every type assignable to base, base included, sorted by name.
func (c *Cache) Subtypes(base *host.Type) []*host.Type {
	if base == nil {
		return nil
	}
	key := base.FullName()
	c.mu.Lock()
	if ts, ok := c.subtypes[key]; ok {
		c.stats.TypeHits++
		c.mu.Unlock()
		return ts
	}
	c.stats.TypeScans++
	gen := c.gen
	c.mu.Unlock()

	var out []*host.Type
	for _, t := range c.allTypes() {
		if t.AssignableTo(base) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	c.mu.Lock()
	if c.gen == gen {
		c.subtypes[key] = out
	}
	c.mu.Unlock()
	return out
}

// TypeOf returns the declared type of a host object.
func (c *Cache) TypeOf(obj any) *host.Type {
	t, _ := host.TypeOf(c.src.Modules(), obj)
	return t
}

// Method resolves name on owner with any signature. When several overloads
// exist the one with the fewest parameters wins.
func (c *Cache) Method(owner *host.Type, name string, flags host.Flags) *host.Method {
	return c.resolveMethod(owner, name, flags, nil)
}

// MethodSig resolves name on owner for an explicit signature. A nil entry in
// sig is a wildcard. The result's parameters are always identical to or
// assignable from sig, or the result is nil.
func (c *Cache) MethodSig(owner *host.Type, name string, flags host.Flags, sig ...reflect.Type) *host.Method {
	if sig == nil {
		sig = []reflect.Type{}
	}
	return c.resolveMethod(owner, name, flags, sig)
}

func (c *Cache) resolveMethod(owner *host.Type, name string, flags host.Flags, sig []reflect.Type) *host.Method {
	if owner == nil || strings.TrimSpace(name) == "" {
		return nil
	}
	key := methodKey(owner, name, flags, sig)

	c.mu.Lock()
	c.stats.MethodLookups++
	if m, ok := c.methods[key]; ok {
		c.stats.MethodHits++
		c.mu.Unlock()
		return m
	}
	gen := c.gen
	c.mu.Unlock()

	candidates := candidates(owner, name, flags)
	m, ambiguous := exact(candidates, sig)
	if m == nil && (ambiguous || sig != nil) {
		m = bestMatch(candidates, sig)
	}

	c.mu.Lock()
	if c.gen == gen {
		c.methods[key] = m
	}
	c.mu.Unlock()
	return m
}

func methodKey(owner *host.Type, name string, flags host.Flags, sig []reflect.Type) string {
	suffix := "any"
	if sig != nil {
		parts := make([]string, len(sig))
		for i, t := range sig {
			if t == nil {
				parts[i] = "*"
				continue
			}
			parts[i] = t.String()
		}
		suffix = strings.Join(parts, ",")
	}
	return owner.FullName() + "::" + name + "::" + strconv.Itoa(int(flags)) + "::" + suffix
}

// candidates collects methods named name on owner and its ancestors,
// most derived first.
func candidates(owner *host.Type, name string, flags host.Flags) []*host.Method {
	var out []*host.Method
	for t := owner; t != nil; t = t.Base {
		for _, m := range t.Methods(flags) {
			if m.Name == name {
				out = append(out, m)
			}
		}
	}
	return out
}

// exact mirrors a strict lookup: with no signature it succeeds only when the
// name is unambiguous; with one it requires identical parameter types.
func exact(cands []*host.Method, sig []reflect.Type) (*host.Method, bool) {
	if sig == nil {
		switch len(cands) {
		case 0:
			return nil, false
		case 1:
			return cands[0], false
		default:
			return nil, true
		}
	}
	for _, t := range sig {
		if t == nil {
			return nil, true
		}
	}
	for _, m := range cands {
		params := m.Params()
		if len(params) != len(sig) {
			continue
		}
		same := true
		for i := range params {
			if params[i] != sig[i] {
				same = false
				break
			}
		}
		if same {
			return m, false
		}
	}
	return nil, false
}

// bestMatch picks the fewest-parameter candidate when sig is empty or nil,
// else the first candidate of equal arity whose every parameter accepts the
// requested type.
func bestMatch(cands []*host.Method, sig []reflect.Type) *host.Method {
	if len(sig) == 0 {
		var best *host.Method
		for _, m := range cands {
			if sig != nil && len(m.Params()) != 0 {
				continue
			}
			if best == nil || len(m.Params()) < len(best.Params()) {
				best = m
			}
		}
		return best
	}
	for _, m := range cands {
		params := m.Params()
		if len(params) != len(sig) {
			continue
		}
		ok := true
		for i, want := range sig {
			if want == nil {
				continue
			}
			if params[i] != want && !host.Assignable(want, params[i]) {
				ok = false
				break
			}
		}
		if ok {
			return m
		}
	}
	return nil
}

// Property resolves a Name()/SetName() property on owner.
func (c *Cache) Property(owner *host.Type, name string) *host.Member {
	return c.member(owner, "p|"+name, func() *host.Member { return owner.Property(name) })
}

// Field resolves a tagged or exported field on owner.
func (c *Cache) Field(owner *host.Type, name string) *host.Member {
	return c.member(owner, "f|"+name, func() *host.Member { return owner.Field(name) })
}

// Member resolves a property first, then a field.
func (c *Cache) Member(owner *host.Type, name string) *host.Member {
	if m := c.Property(owner, name); m != nil {
		return m
	}
	return c.Field(owner, name)
}

func (c *Cache) member(owner *host.Type, key string, find func() *host.Member) *host.Member {
	if owner == nil {
		return nil
	}
	key = owner.FullName() + "::" + key
	c.mu.Lock()
	c.stats.MemberLookups++
	if m, ok := c.members[key]; ok {
		c.stats.MemberHits++
		c.mu.Unlock()
		return m
	}
	gen := c.gen
	c.mu.Unlock()

	m := find()

	c.mu.Lock()
	if c.gen == gen {
		c.members[key] = m
	}
	c.mu.Unlock()
	return m
}
