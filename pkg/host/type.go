package host

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"
)

// Type is a host type published in a Module.
type Type struct {
	Name      string
	Namespace string
	Base      *Type
	Abstract  bool
	// Go is the pointer type of instances.
	Go reflect.Type

	ctor    func() any
	methods []*Method

	once    sync.Once
	members []*Member
}

// TypeOption configures a Type during Define.
type TypeOption func(*Type)

// Named overrides the published name (defaults to the Go type name).
func Named(name string) TypeOption {
	return func(t *Type) {
		t.Name = name
	}
}

// Abstract marks the type as non-instantiable.
func Abstract() TypeOption {
	return func(t *Type) {
		t.Abstract = true
	}
}

// Constructor sets the factory used by New.
func Constructor(fn func() any) TypeOption {
	return func(t *Type) {
		t.ctor = fn
	}
}

// Overload publishes fn as an extra public instance method under name.
// fn is a method expression: its first parameter is the receiver.
func Overload(name string, fn any) TypeOption {
	return func(t *Type) {
		t.methods = append(t.methods, newMethod(t, name, Instance|Public, reflect.ValueOf(fn)))
	}
}

// Internal publishes fn as a non-public instance method under name.
func Internal(name string, fn any) TypeOption {
	return func(t *Type) {
		t.methods = append(t.methods, newMethod(t, name, Instance|NonPublic, reflect.ValueOf(fn)))
	}
}

// StaticMethod publishes fn as a static method under name.
func StaticMethod(name string, fn any) TypeOption {
	return func(t *Type) {
		t.methods = append(t.methods, newMethod(t, name, Static|Public, reflect.ValueOf(fn)))
	}
}

// Define declares T in module m. Every exported method of *T becomes a public
// instance method of the declared type.
func Define[T any](m *Module, namespace string, base *Type, opts ...TypeOption) *Type {
	goType := reflect.TypeOf((*T)(nil))
	t := &Type{
		Name:      goType.Elem().Name(),
		Namespace: namespace,
		Base:      base,
		Go:        goType,
	}
	for i := 0; i < goType.NumMethod(); i++ {
		gm := goType.Method(i)
		t.methods = append(t.methods, newMethod(t, gm.Name, Instance|Public, gm.Func))
	}
	for _, opt := range opts {
		opt(t)
	}
	m.add(t)
	return t
}

// FullName returns Namespace.Name.
func (t *Type) FullName() string {
	if t.Namespace == "" {
		return t.Name
	}
	return t.Namespace + "." + t.Name
}

func (t *Type) String() string {
	return t.FullName()
}

// IsSubclassOf reports whether b is a strict ancestor of t.
func (t *Type) IsSubclassOf(b *Type) bool {
	if t == nil || b == nil {
		return false
	}
	for p := t.Base; p != nil; p = p.Base {
		if p == b {
			return true
		}
	}
	return false
}

// AssignableTo reports whether t is b or derives from it.
func (t *Type) AssignableTo(b *Type) bool {
	return t != nil && (t == b || t.IsSubclassOf(b))
}

// Methods returns the methods matching flags, in declaration order.
func (t *Type) Methods(flags Flags) []*Method {
	var out []*Method
	for _, m := range t.methods {
		if flags.matches(m.Flags) {
			out = append(out, m)
		}
	}
	return out
}

// New creates an instance.
func (t *Type) New() (any, error) {
	if t.Abstract {
		return nil, fmt.Errorf("cannot create instance of abstract type %s", t.FullName())
	}
	if t.ctor != nil {
		return t.ctor(), nil
	}
	if t.Go == nil {
		return nil, fmt.Errorf("type %s has no constructor", t.FullName())
	}
	return reflect.New(t.Go.Elem()).Interface(), nil
}

// Property returns the property exposed by Name()/SetName() methods, or nil.
func (t *Type) Property(name string) *Member {
	if name == "" {
		return nil
	}
	getterName := upperFirst(name)
	var getter, setter *Method
	for _, m := range t.Methods(Instance | Public) {
		switch {
		case m.Name == getterName && len(m.params) == 0 && m.fn.Type().NumOut() == 1:
			getter = m
		case m.Name == "Set"+getterName && len(m.params) == 1:
			setter = m
		}
	}
	if getter == nil {
		return nil
	}
	return &Member{
		Name:   name,
		Owner:  t,
		Kind:   PropertyMember,
		typ:    getter.fn.Type().Out(0),
		getter: getter,
		setter: setter,
	}
}

// Field returns the field whose tag name or Go name matches, or nil.
func (t *Type) Field(name string) *Member {
	for _, f := range t.Fields() {
		if f.Name == name || f.goName == name {
			return f
		}
	}
	return nil
}

// Fields returns every exported field of the instance struct.
func (t *Type) Fields() []*Member {
	t.once.Do(func() {
		if t.Go == nil || t.Go.Elem().Kind() != reflect.Struct {
			return
		}
		for _, sf := range reflect.VisibleFields(t.Go.Elem()) {
			if !sf.IsExported() || sf.Anonymous {
				continue
			}
			mem := &Member{
				Name:   sf.Name,
				goName: sf.Name,
				Owner:  t,
				Kind:   FieldMember,
				typ:    sf.Type,
				index:  sf.Index,
			}
			if tag, ok := sf.Tag.Lookup("vfx"); ok {
				if tag == "-" {
					continue
				}
				parts := strings.Split(tag, ",")
				if parts[0] != "" {
					mem.Name = parts[0]
				}
				for _, p := range parts[1:] {
					switch p {
					case "setting":
						mem.Setting = true
					case "internal":
						mem.Internal = true
					}
				}
			}
			t.members = append(t.members, mem)
		}
	})
	return t.members
}

func upperFirst(s string) string {
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
