package ops

import (
	"errors"
	"reflect"
	"strings"

	"github.com/aretw0/vfxbridge/pkg/domain"
	"github.com/aretw0/vfxbridge/pkg/graph"
	"github.com/aretw0/vfxbridge/pkg/host"
)

// Invalidation causes understood by the host consistency pass.
const (
	CauseStructureChanged       = "kStructureChanged"
	CauseConnectionChanged      = "kConnectionChanged"
	CauseParamChanged           = "kParamChanged"
	CauseSettingChanged         = "kSettingChanged"
	CauseExpressionGraphChanged = "kExpressionGraphChanged"
)

const invalidationCauseType = "InvalidationCause"

// SafeInvalidate is the best-effort secondary step of a mutation: it runs
// the host consistency pass for model and reports whether it completed.
// The host pass may panic while other parts of the graph are transiently
// incomplete; such failures are logged at debug level and swallowed.
func (e *Engine) SafeInvalidate(model any, cause string) bool {
	if graph.IsNil(model) {
		return false
	}
	for _, m := range e.graph.Overloads(model, "Invalidate") {
		params := m.Params()
		if len(params) == 0 || params[0].Name() != invalidationCauseType {
			continue
		}
		idx := indexFold(host.EnumNames(params[0]), cause)
		if idx < 0 {
			continue
		}
		args := []any{reflect.ValueOf(idx).Convert(params[0]).Interface()}
		for i := 1; i < len(params); i++ {
			if i == 1 {
				args = append(args, model)
				continue
			}
			args = append(args, nil)
		}
		if _, err := m.Invoke(model, args...); err != nil {
			e.logger.Debug("consistency pass failed", "phase", "invalidate", "cause", cause,
				"type", e.graph.TypeName(model), "err", err)
			return false
		}
		return true
	}
	e.logger.Debug("no Invalidate overload", "phase", "invalidate", "type", e.graph.TypeName(model))
	return false
}

func indexFold(names []string, name string) int {
	for i, n := range names {
		if strings.EqualFold(n, name) {
			return i
		}
	}
	return -1
}

// invalidate is SafeInvalidate unless the call is deferred.
func (c *call) invalidate(model any, cause string) {
	if c.deferred {
		return
	}
	c.SafeInvalidate(model, cause)
}

func (c *call) open(path string) (host.Asset, error) {
	path = strings.TrimSpace(path)
	a, err := c.host.OpenGraph(c.ctx, path)
	if err != nil {
		if errors.Is(err, domain.ErrAssetNotFound) {
			return nil, domain.Errorf(domain.CodeAssetNotFound, "Could not load VFX graph at %s", path).Wrap(err)
		}
		return nil, internal(err, "Could not load VFX graph at %s: %v", path, err)
	}
	return a, nil
}

func (c *call) persist(a host.Asset) error {
	if c.deferred {
		return nil
	}
	if err := c.host.Persist(c.ctx, a); err != nil {
		return internal(err, "Could not save %s: %v", a.Path(), err)
	}
	return nil
}

// node finds id in the asset or returns a not_found error built from label.
func (c *call) node(a host.Asset, id int, label string) (host.Object, error) {
	n := c.graph.Find(a.Root(), id)
	if n == nil {
		return nil, notFound("%s %d not found", label, id)
	}
	return n, nil
}

// typeNamed resolves a concrete host type assignable to base.
func (c *call) typeNamed(name, base string) *host.Type {
	cache := c.graph.Cache()
	bt := cache.Type(base)
	if bt == nil {
		return nil
	}
	t := cache.ResolveType(name, bt)
	if t == nil || t.Abstract {
		return nil
	}
	return t
}

func (c *call) instantiate(t *host.Type) (host.Object, error) {
	obj, err := t.New()
	if err != nil {
		return nil, internal(err, "Could not create %s: %v", t.Name, err)
	}
	o, ok := obj.(host.Object)
	if !ok {
		return nil, domain.Errorf(domain.CodeResolution, "%s is not a graph model", t.Name)
	}
	return o, nil
}

// addChild attaches child under parent with notifications suppressed.
func (c *call) addChild(parent, child host.Object, index int) error {
	_, err := c.graph.Call(parent, "AddChild", child, index, false)
	return err
}

func (c *call) removeChild(parent, child host.Object) error {
	_, err := c.graph.Call(parent, "RemoveChild", child, false)
	return err
}

func (c *call) root(a host.Asset) host.Object { return a.Root() }
