package host

import (
	"fmt"
	"reflect"
)

// MemberKind distinguishes properties from fields.
type MemberKind int

const (
	PropertyMember MemberKind = iota
	FieldMember
)

// Member is a readable (and possibly writable) property or field.
type Member struct {
	Name     string
	Owner    *Type
	Kind     MemberKind
	Setting  bool
	Internal bool

	goName string
	typ    reflect.Type
	getter *Method
	setter *Method
	index  []int
}

// Type returns the declared value type.
func (m *Member) Type() reflect.Type {
	return m.typ
}

// CanSet reports whether Set can succeed.
func (m *Member) CanSet() bool {
	return m.Kind == FieldMember || m.setter != nil
}

// Get reads the member on obj.
func (m *Member) Get(obj any) (any, error) {
	if m.Kind == PropertyMember {
		out, err := m.getter.Invoke(obj)
		if err != nil {
			return nil, err
		}
		return out[0], nil
	}
	fv, err := m.field(obj)
	if err != nil {
		return nil, err
	}
	return fv.Interface(), nil
}

// Set writes v to the member on obj, converting where allowed.
func (m *Member) Set(obj any, v any) error {
	if m.Kind == PropertyMember {
		if m.setter == nil {
			return fmt.Errorf("property %s is read-only", m.Name)
		}
		_, err := m.setter.Invoke(obj, v)
		return err
	}
	fv, err := m.field(obj)
	if err != nil {
		return err
	}
	cv, err := convert(v, m.typ)
	if err != nil {
		return fmt.Errorf("field %s: %w", m.Name, err)
	}
	fv.Set(cv)
	return nil
}

func (m *Member) field(obj any) (reflect.Value, error) {
	rv := reflect.ValueOf(obj)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return reflect.Value{}, fmt.Errorf("field %s: invalid receiver %T", m.Name, obj)
	}
	fv, err := rv.Elem().FieldByIndexErr(m.index)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("field %s: %w", m.Name, err)
	}
	return fv, nil
}
