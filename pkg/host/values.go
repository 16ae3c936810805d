package host

import "reflect"

// Vector2 is a host 2D vector.
type Vector2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Vector3 is a host 3D vector.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Vector4 is a host 4D vector.
type Vector4 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// Color is a host RGBA color.
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

// White is the default color.
var White = Color{R: 1, G: 1, B: 1, A: 1}

// SerializableType names a host type stored as a setting value.
type SerializableType struct {
	Name string `json:"name"`
}

// Enum is implemented by integer-backed host enums.
type Enum interface {
	EnumNames() []string
}

var enumType = reflect.TypeOf((*Enum)(nil)).Elem()

// EnumNames returns the names of an enum type, or nil when t is not one.
func EnumNames(t reflect.Type) []string {
	if t == nil || !t.Implements(enumType) {
		return nil
	}
	return reflect.Zero(t).Interface().(Enum).EnumNames()
}
