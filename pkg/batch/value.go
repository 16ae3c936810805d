package batch

import (
	"fmt"
	"strings"
)

// Sentinel marks a reference in the wire form of a batch.
const Sentinel = "$"

// Value is a batch parameter: either a Ref to an identity bound earlier in
// the batch or a Literal passed through unchanged.
type Value interface {
	isValue()
}

// Ref names an identity bound by a previous operation's ref.
type Ref struct {
	Name string
}

// Literal is a plain parameter value.
type Literal struct {
	V any
}

func (Ref) isValue()     {}
func (Literal) isValue() {}

func (r Ref) String() string { return Sentinel + r.Name }

// RefTo builds a reference. A leading sentinel is accepted and dropped.
func RefTo(name string) Ref {
	return Ref{Name: strings.TrimPrefix(strings.TrimSpace(name), Sentinel)}
}

// Lit wraps v as a literal. A Value is returned as is.
func Lit(v any) Value {
	if val, ok := v.(Value); ok {
		return val
	}
	return Literal{V: v}
}

// refKeys are the parameters whose wire strings may carry a reference.
var refKeys = map[string]bool{
	"contextid":         true,
	"nodeid":            true,
	"blockid":           true,
	"fromcontextid":     true,
	"tocontextid":       true,
	"fromnodeid":        true,
	"tonodeid":          true,
	"parentnodeid":      true,
	"childnodeid":       true,
	"sourcecontextid":   true,
	"gpueventcontextid": true,
	"contextref":        true,
	"fromref":           true,
	"toref":             true,
}

// IsRefKey reports whether key may carry a reference in the wire form.
func IsRefKey(key string) bool {
	return refKeys[strings.ToLower(key)]
}

// targetKey maps the contextRef/fromRef/toRef spellings to the id parameter
// they stand for.
func targetKey(key string) string {
	if base, ok := strings.CutSuffix(key, "Ref"); ok && IsRefKey(key) {
		return base + "Id"
	}
	return key
}

// decodeValue turns one wire value into a Value. Strings starting with the
// sentinel become references only under ref-bearing keys.
func decodeValue(key string, v any) Value {
	if s, ok := v.(string); ok && IsRefKey(key) && strings.HasPrefix(s, Sentinel) && len(s) > 1 {
		return RefTo(s)
	}
	return Lit(v)
}

// encodeValue is the inverse of decodeValue.
func encodeValue(v Value) any {
	switch t := v.(type) {
	case Ref:
		return t.String()
	case Literal:
		return t.V
	default:
		return fmt.Sprint(v)
	}
}
