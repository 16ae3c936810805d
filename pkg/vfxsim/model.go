package vfxsim

import (
	"fmt"
	"reflect"

	"github.com/aretw0/vfxbridge/pkg/host"
)

// Node is implemented by every model living in a graph.
type Node interface {
	host.Object
	base() *Model
}

type childAcceptor interface {
	accepts(child Node) bool
}

type invalidationHandler interface {
	onInvalidate(origin Node, cause InvalidationCause)
}

type settingObserver interface {
	settingChanged(name string)
}

type childObserver interface {
	childrenChanged()
}

type detacher interface {
	detached()
}

// Model is the common part of graphs, contexts, blocks, operators and
// parameters.
type Model struct {
	ID  int          `vfx:"-"`
	Pos host.Vector2 `vfx:"m_UIPosition,internal"`

	self     Node
	htype    *host.Type
	lib      *library
	parent   Node
	children []Node
}

func (m *Model) base() *Model { return m }

func (m *Model) InstanceID() int { return m.ID }

// Name is the published type name of the model.
func (m *Model) Name() string {
	if m.htype == nil {
		return ""
	}
	return m.htype.Name
}

func (m *Model) Position() host.Vector2     { return m.Pos }
func (m *Model) SetPosition(p host.Vector2) { m.Pos = p }

func (m *Model) Children() []Node {
	out := make([]Node, len(m.children))
	copy(out, m.children)
	return out
}

func (m *Model) GetParent() Node { return m.parent }

// GetGraph walks up to the owning graph, or returns nil for detached models.
func (m *Model) GetGraph() *Graph {
	var n Node = m.self
	for n != nil {
		if g, ok := n.(*Graph); ok {
			return g
		}
		n = n.base().parent
	}
	return nil
}

// AddChild attaches child at index (-1 appends). It panics when this model
// cannot contain child. With notify set the change is invalidated.
func (m *Model) AddChild(child Node, index int, notify bool) {
	if child == nil || reflect.ValueOf(child).IsNil() {
		panic("AddChild: child is null")
	}
	a, ok := m.self.(childAcceptor)
	if !ok || !a.accepts(child) {
		panic(fmt.Sprintf("AddChild: %s cannot contain %s", m.Name(), child.base().Name()))
	}
	cb := child.base()
	if cb.parent != nil {
		cb.parent.base().detach(child)
	}
	if index < 0 || index > len(m.children) {
		index = len(m.children)
	}
	m.children = append(m.children, nil)
	copy(m.children[index+1:], m.children[index:])
	m.children[index] = child
	cb.parent = m.self
	if o, ok := m.self.(childObserver); ok {
		o.childrenChanged()
	}
	if notify {
		m.Invalidate(KStructureChanged)
	}
}

// RemoveChild detaches child. It panics when child is not attached here.
func (m *Model) RemoveChild(child Node, notify bool) {
	if child == nil || reflect.ValueOf(child).IsNil() || !m.detach(child) {
		panic("RemoveChild: model is not a child")
	}
	if d, ok := child.(detacher); ok {
		d.detached()
	}
	if notify {
		m.Invalidate(KStructureChanged)
	}
}

func (m *Model) detach(child Node) bool {
	for i, c := range m.children {
		if c == child {
			m.children = append(m.children[:i], m.children[i+1:]...)
			child.base().parent = nil
			if o, ok := m.self.(childObserver); ok {
				o.childrenChanged()
			}
			return true
		}
	}
	return false
}

// Invalidate runs the consistency pass from this model up to the root.
func (m *Model) Invalidate(cause InvalidationCause) {
	m.invalidateFrom(cause, m.self)
}

func (m *Model) invalidateFrom(cause InvalidationCause, origin Node) {
	for n := m.self; n != nil; n = n.base().parent {
		if h, ok := n.(invalidationHandler); ok {
			h.onInvalidate(origin, cause)
		}
	}
}

// Setting is a named setting value as reported by GetSettings.
type Setting struct {
	name     string
	value    any
	internal bool
}

func (s *Setting) Name() string   { return s.name }
func (s *Setting) Value() any     { return s.value }
func (s *Setting) Internal() bool { return s.internal }

func (m *Model) settingMember(name string) *host.Member {
	for _, f := range m.htype.Fields() {
		if f.Setting && f.Name == name {
			return f
		}
	}
	return nil
}

// GetSettingValue panics when name is not a setting of this model.
func (m *Model) GetSettingValue(name string) any {
	mem := m.settingMember(name)
	if mem == nil {
		panic(fmt.Sprintf("setting %q not found on %s", name, m.Name()))
	}
	v, err := mem.Get(m.self)
	if err != nil {
		panic(err)
	}
	return v
}

// SetSettingValue panics on unknown settings and on values that cannot be
// cast to the setting type.
func (m *Model) SetSettingValue(name string, value any) {
	mem := m.settingMember(name)
	if mem == nil {
		panic(fmt.Sprintf("setting %q not found on %s", name, m.Name()))
	}
	if err := mem.Set(m.self, value); err != nil {
		panic(fmt.Errorf("invalid cast for setting %s: %w", name, err))
	}
	if o, ok := m.self.(settingObserver); ok {
		o.settingChanged(name)
	}
	m.Invalidate(KSettingChanged)
}

// GetSettings lists settings. Internal ones are included only when
// listHidden is set.
func (m *Model) GetSettings(listHidden bool) []*Setting {
	var out []*Setting
	for _, f := range m.htype.Fields() {
		if !f.Setting || (f.Internal && !listHidden) {
			continue
		}
		v, err := f.Get(m.self)
		if err != nil {
			continue
		}
		out = append(out, &Setting{name: f.Name, value: v, internal: f.Internal})
	}
	return out
}
