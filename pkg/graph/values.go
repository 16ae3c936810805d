package graph

import (
	"reflect"
	"strings"

	"github.com/aretw0/vfxbridge/pkg/host"
)

var hostValueNames = map[reflect.Kind]string{
	reflect.Float32: "float",
	reflect.Float64: "float",
	reflect.Int:     "int",
	reflect.Int32:   "int",
	reflect.Int64:   "int",
	reflect.Uint:    "uint",
	reflect.Uint32:  "uint",
	reflect.Uint64:  "uint",
	reflect.Bool:    "bool",
	reflect.String:  "string",
}

// ValueTypeName returns the host-facing name of a slot value type.
func ValueTypeName(t reflect.Type) string {
	if t == nil {
		return "unknown"
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() != "" && t.PkgPath() != "" {
		return t.Name()
	}
	if n, ok := hostValueNames[t.Kind()]; ok {
		return n
	}
	return t.String()
}

// Position converts a loose {x,y} map or [x,y] list to a host position.
func Position(v any) (host.Vector2, bool) {
	out, err := Coerce(v, reflect.TypeOf(host.Vector2{}))
	if err != nil {
		return host.Vector2{}, false
	}
	return out.(host.Vector2), true
}

// Capitalize upper-cases the first letter.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
