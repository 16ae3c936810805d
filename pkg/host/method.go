package host

import (
	"fmt"
	"reflect"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Method is a callable published by a Type.
type Method struct {
	Name  string
	Owner *Type
	Flags Flags

	fn     reflect.Value
	params []reflect.Type
}

func newMethod(owner *Type, name string, flags Flags, fn reflect.Value) *Method {
	ft := fn.Type()
	first := 0
	if flags&Instance != 0 {
		first = 1
	}
	params := make([]reflect.Type, 0, ft.NumIn()-first)
	for i := first; i < ft.NumIn(); i++ {
		params = append(params, ft.In(i))
	}
	return &Method{Name: name, Owner: owner, Flags: flags, fn: fn, params: params}
}

// Params returns the declared parameter types, receiver excluded.
func (m *Method) Params() []reflect.Type {
	return m.params
}

func (m *Method) String() string {
	return fmt.Sprintf("%s.%s/%d", m.Owner.FullName(), m.Name, len(m.params))
}

// InvocationError reports a failed host call.
type InvocationError struct {
	Method string
	Panic  any
	Err    error
}

func (e *InvocationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Method, e.Err)
	}
	return fmt.Sprintf("%s panicked: %v", e.Method, e.Panic)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}

// Invoke calls the method. recv is ignored for static methods. A trailing
// error result is returned as err and dropped from out. Panics raised by the
// host are recovered into an *InvocationError.
func (m *Method) Invoke(recv any, args ...any) (out []any, err error) {
	if len(args) != len(m.params) {
		return nil, &InvocationError{Method: m.Name, Err: fmt.Errorf("expected %d arguments, got %d", len(m.params), len(args))}
	}
	in := make([]reflect.Value, 0, len(args)+1)
	if m.Flags&Instance != 0 {
		rv, cerr := convert(recv, m.fn.Type().In(0))
		if cerr != nil || recv == nil {
			return nil, &InvocationError{Method: m.Name, Err: fmt.Errorf("invalid receiver %T", recv)}
		}
		in = append(in, rv)
	}
	for i, a := range args {
		v, cerr := convert(a, m.params[i])
		if cerr != nil {
			return nil, &InvocationError{Method: m.Name, Err: fmt.Errorf("argument %d: %w", i, cerr)}
		}
		in = append(in, v)
	}

	defer func() {
		if r := recover(); r != nil {
			out = nil
			if e, ok := r.(error); ok {
				err = &InvocationError{Method: m.Name, Panic: r, Err: e}
				return
			}
			err = &InvocationError{Method: m.Name, Panic: r}
		}
	}()

	results := m.fn.Call(in)
	if n := len(results); n > 0 && m.fn.Type().Out(n-1) == errorType {
		if e, _ := results[n-1].Interface().(error); e != nil {
			return nil, &InvocationError{Method: m.Name, Err: e}
		}
		results = results[:n-1]
	}
	out = make([]any, len(results))
	for i, r := range results {
		out[i] = r.Interface()
	}
	return out, nil
}

// convert adapts v to t. Only identity, assignability, numeric widening and
// same-kind conversions are allowed.
func convert(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, nil
	}
	if path, ok := embedPath(rv.Type(), t); ok && !rv.IsNil() {
		return rv.Elem().FieldByIndex(path).Addr(), nil
	}
	if isNumeric(rv.Kind()) && isNumeric(t.Kind()) {
		return rv.Convert(t), nil
	}
	if rv.Kind() == t.Kind() && rv.Type().ConvertibleTo(t) {
		return rv.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %s as %s", rv.Type(), t)
}

// Convert adapts v to t using the same rules as Invoke.
func Convert(v any, t reflect.Type) (any, error) {
	rv, err := convert(v, t)
	if err != nil {
		return nil, err
	}
	return rv.Interface(), nil
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// Assignable reports whether a value of type from may be passed where to is
// declared. Pointers to structs embedding to's element qualify.
func Assignable(from, to reflect.Type) bool {
	if from.AssignableTo(to) {
		return true
	}
	_, ok := embedPath(from, to)
	return ok
}

func embedPath(from, to reflect.Type) ([]int, bool) {
	if from.Kind() != reflect.Pointer || to.Kind() != reflect.Pointer {
		return nil, false
	}
	fe, te := from.Elem(), to.Elem()
	if fe.Kind() != reflect.Struct {
		return nil, false
	}
	for i := 0; i < fe.NumField(); i++ {
		f := fe.Field(i)
		if !f.Anonymous || !f.IsExported() {
			continue
		}
		if f.Type == te {
			return []int{i}, true
		}
		if f.Type.Kind() == reflect.Struct {
			if p, ok := embedPath(reflect.PointerTo(f.Type), to); ok {
				return append([]int{i}, p...), true
			}
		}
	}
	return nil, false
}
