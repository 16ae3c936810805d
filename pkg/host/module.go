package host

import (
	"reflect"
	"sync"
)

// Module is a named set of types published by the host.
type Module struct {
	Name string

	mu    sync.RWMutex
	types []*Type
	byGo  map[reflect.Type]*Type
}

// NewModule creates an empty module.
func NewModule(name string) *Module {
	return &Module{
		Name: name,
		byGo: make(map[reflect.Type]*Type),
	}
}

// Types returns the declared types in declaration order.
func (m *Module) Types() []*Type {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Type, len(m.types))
	copy(out, m.types)
	return out
}

// TypeOf returns the declared type of a host object.
func (m *Module) TypeOf(obj any) (*Type, bool) {
	if obj == nil {
		return nil, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.byGo[reflect.TypeOf(obj)]
	return t, ok
}

func (m *Module) add(t *Type) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.types = append(m.types, t)
	if t.Go != nil {
		m.byGo[t.Go] = t
	}
}

// TypeOf searches every module for the declared type of obj.
func TypeOf(modules []*Module, obj any) (*Type, bool) {
	for _, m := range modules {
		if t, ok := m.TypeOf(obj); ok {
			return t, true
		}
	}
	return nil, false
}
