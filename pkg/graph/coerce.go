package graph

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/aretw0/vfxbridge/pkg/host"
	"github.com/mitchellh/mapstructure"
)

var (
	vector2Type = reflect.TypeOf(host.Vector2{})
	vector3Type = reflect.TypeOf(host.Vector3{})
	vector4Type = reflect.TypeOf(host.Vector4{})
	colorType   = reflect.TypeOf(host.Color{})
	serialType  = reflect.TypeOf(host.SerializableType{})
)

// Coerce converts a loosely typed input (decoded JSON/YAML) to t. Strategies
// by declared type: numbers, booleans, strings, vectors and colors from
// fixed-length arrays or keyed objects, enums by name or integer, and a
// weakly typed structural decode for everything else.
func Coerce(v any, t reflect.Type) (any, error) {
	if t == nil {
		return v, nil
	}
	if v != nil && reflect.TypeOf(v) == t {
		return v, nil
	}
	if names := host.EnumNames(t); names != nil {
		return coerceEnum(v, t, names)
	}
	switch t {
	case vector2Type, vector3Type, vector4Type:
		return coerceVector(v, t)
	case colorType:
		return coerceColor(v)
	case serialType:
		return coerceSerializable(v)
	}
	switch t.Kind() {
	case reflect.Float32, reflect.Float64:
		f, err := toFloat(v)
		if err != nil {
			return nil, err
		}
		return reflect.ValueOf(f).Convert(t).Interface(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := toInt(v)
		if err != nil {
			return nil, err
		}
		out := reflect.New(t).Elem()
		if out.OverflowInt(i) {
			return nil, fmt.Errorf("%v overflows %s", v, t)
		}
		out.SetInt(i)
		return out.Interface(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := toUint(v)
		if err != nil {
			return nil, err
		}
		out := reflect.New(t).Elem()
		if out.OverflowUint(u) {
			return nil, fmt.Errorf("%v overflows %s", v, t)
		}
		out.SetUint(u)
		return out.Interface(), nil
	case reflect.Bool:
		return toBool(v)
	case reflect.String:
		if v == nil {
			return "", nil
		}
		return reflect.ValueOf(fmt.Sprint(v)).Convert(t).Interface(), nil
	}
	return weakDecode(v, t)
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int8:
		return float64(n), nil
	case int16:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint8:
		return float64(n), nil
	case uint16:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("cannot parse %q as a number", n)
		}
		return f, nil
	}
	return 0, fmt.Errorf("cannot use %T as a number", v)
}

// toInt accepts integers of any width and integral floats. Fractions are
// rejected rather than truncated.
func toInt(v any) (int64, error) {
	if v != nil {
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return rv.Int(), nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			if rv.Uint() > math.MaxInt64 {
				return 0, fmt.Errorf("%v overflows int64", v)
			}
			return int64(rv.Uint()), nil
		}
	}
	if n, ok := v.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
	}
	f, err := toFloat(v)
	if err != nil {
		return 0, err
	}
	if err := integral(v, f); err != nil {
		return 0, err
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("%v overflows int64", v)
	}
	return int64(f), nil
}

func toUint(v any) (uint64, error) {
	if v != nil {
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			return rv.Uint(), nil
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if rv.Int() < 0 {
				return 0, fmt.Errorf("cannot use negative value %v as an unsigned integer", v)
			}
			return uint64(rv.Int()), nil
		}
	}
	if n, ok := v.(json.Number); ok {
		if u, err := strconv.ParseUint(n.String(), 10, 64); err == nil {
			return u, nil
		}
	}
	f, err := toFloat(v)
	if err != nil {
		return 0, err
	}
	if err := integral(v, f); err != nil {
		return 0, err
	}
	if f < 0 {
		return 0, fmt.Errorf("cannot use negative value %v as an unsigned integer", v)
	}
	if f >= math.MaxUint64 {
		return 0, fmt.Errorf("%v overflows uint64", v)
	}
	return uint64(f), nil
}

func integral(v any, f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return fmt.Errorf("%v is not an integer", v)
	}
	return nil
}

func toBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		if err != nil {
			return false, fmt.Errorf("cannot parse %q as a boolean", b)
		}
		return parsed, nil
	}
	f, err := toFloat(v)
	if err != nil {
		return false, fmt.Errorf("cannot use %T as a boolean", v)
	}
	return f != 0, nil
}

func components(v any, keys string) ([]float64, error) {
	switch x := v.(type) {
	case []any:
		out := make([]float64, 0, len(x))
		for _, e := range x {
			f, err := toFloat(e)
			if err != nil {
				return nil, err
			}
			out = append(out, f)
		}
		return out, nil
	case []float64:
		return x, nil
	case map[string]any:
		var out []float64
		for _, k := range keys {
			e, ok := x[string(k)]
			if !ok {
				e, ok = x[strings.ToUpper(string(k))]
			}
			if !ok {
				break
			}
			f, err := toFloat(e)
			if err != nil {
				return nil, err
			}
			out = append(out, f)
		}
		return out, nil
	}
	f, err := toFloat(v)
	if err != nil {
		return nil, fmt.Errorf("cannot use %T as a vector", v)
	}
	return []float64{f, f, f, f}, nil
}

func coerceVector(v any, t reflect.Type) (any, error) {
	n := t.NumField()
	c, err := components(v, "xyzw"[:n])
	if err != nil {
		return nil, err
	}
	if len(c) < n {
		return nil, fmt.Errorf("%s needs %d components, got %d", t.Name(), n, len(c))
	}
	out := reflect.New(t).Elem()
	for i := 0; i < n; i++ {
		out.Field(i).SetFloat(c[i])
	}
	return out.Interface(), nil
}

func coerceColor(v any) (any, error) {
	if s, ok := v.(string); ok {
		return parseHexColor(s)
	}
	c, err := components(v, "rgba")
	if err != nil {
		return nil, err
	}
	if len(c) < 3 {
		return nil, fmt.Errorf("Color needs at least 3 components, got %d", len(c))
	}
	col := host.Color{R: c[0], G: c[1], B: c[2], A: 1}
	if len(c) >= 4 {
		col.A = c[3]
	}
	return col, nil
}

func parseHexColor(s string) (host.Color, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 && len(h) != 8 {
		return host.Color{}, fmt.Errorf("cannot parse %q as a color", s)
	}
	raw, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return host.Color{}, fmt.Errorf("cannot parse %q as a color", s)
	}
	if len(h) == 6 {
		raw = raw<<8 | 0xff
	}
	ch := func(shift uint) float64 { return math.Round(float64(raw>>shift&0xff)/255*1000) / 1000 }
	return host.Color{R: ch(24), G: ch(16), B: ch(8), A: ch(0)}, nil
}

func coerceEnum(v any, t reflect.Type, names []string) (any, error) {
	idx := -1
	switch x := v.(type) {
	case string:
		s := strings.TrimSpace(x)
		if n, err := strconv.Atoi(s); err == nil {
			idx = n
			break
		}
		for i, name := range names {
			if strings.EqualFold(name, s) {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("%q is not a valid %s (expected one of %s)", s, t.Name(), strings.Join(names, ", "))
		}
	default:
		i, err := toInt(v)
		if err != nil {
			return nil, fmt.Errorf("cannot use %v as %s: %w", v, t.Name(), err)
		}
		if i < 0 || i >= int64(len(names)) {
			return nil, fmt.Errorf("%d is out of range for %s", i, t.Name())
		}
		idx = int(i)
	}
	if idx < 0 || idx >= len(names) {
		return nil, fmt.Errorf("%d is out of range for %s", idx, t.Name())
	}
	return reflect.ValueOf(int64(idx)).Convert(t).Interface(), nil
}

func coerceSerializable(v any) (any, error) {
	switch x := v.(type) {
	case string:
		if strings.TrimSpace(x) == "" {
			return nil, fmt.Errorf("empty type name")
		}
		return host.SerializableType{Name: x}, nil
	case map[string]any:
		for _, k := range []string{"typeName", "type", "name"} {
			if s, ok := x[k].(string); ok && s != "" {
				return host.SerializableType{Name: s}, nil
			}
		}
	}
	return nil, fmt.Errorf("cannot use %T as a type name", v)
}

func weakDecode(v any, t reflect.Type) (any, error) {
	out := reflect.New(t)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out.Interface(),
		TagName:          "json",
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(v); err != nil {
		return nil, fmt.Errorf("cannot use %T as %s: %w", v, t, err)
	}
	return out.Elem().Interface(), nil
}
