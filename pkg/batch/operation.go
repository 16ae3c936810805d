package batch

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Operation is one step of a batch: an action name, an optional ref bound
// to the identity the action produces, and its parameters.
type Operation struct {
	Op     string
	Ref    string
	Params map[string]Value
}

// Param returns the parameter named key.
func (o Operation) Param(key string) (Value, bool) {
	v, ok := o.Params[key]
	return v, ok
}

// Wire returns the loosely typed form of o, with references written as
// sentinel strings.
func (o Operation) Wire() map[string]any {
	out := make(map[string]any, len(o.Params)+2)
	for k, v := range o.Params {
		out[k] = encodeValue(v)
	}
	out["op"] = o.Op
	if o.Ref != "" {
		out["ref"] = Sentinel + o.Ref
	}
	return out
}

// Keys returns the parameter names, sorted.
func (o Operation) Keys() []string {
	keys := make([]string, 0, len(o.Params))
	for k := range o.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Decode builds an Operation from its wire form. Either "op" or "action"
// names the action.
func Decode(raw map[string]any) (Operation, error) {
	op := Operation{Params: make(map[string]Value, len(raw))}
	for k, v := range raw {
		switch k {
		case "op", "action":
			if s, ok := v.(string); ok && op.Op == "" {
				op.Op = strings.TrimSpace(s)
			}
		case "ref":
			s, ok := v.(string)
			if !ok {
				return Operation{}, fmt.Errorf("ref must be a string, got %T", v)
			}
			op.Ref = RefTo(s).Name
		default:
			op.Params[k] = decodeValue(k, v)
		}
	}
	return op, nil
}

// DecodeAll decodes a list of wire operations as found in action
// parameters. Entries that are not objects are rejected with their index.
// Operations built in Go pass through unchanged.
func DecodeAll(raw any) ([]Operation, error) {
	if ops, ok := raw.([]Operation); ok {
		return ops, nil
	}
	list, ok := raw.([]any)
	if !ok {
		if maps, ok := raw.([]map[string]any); ok {
			list = make([]any, len(maps))
			for i, m := range maps {
				list[i] = m
			}
		} else {
			return nil, fmt.Errorf("operations must be an array, got %T", raw)
		}
	}
	out := make([]Operation, 0, len(list))
	for i, el := range list {
		m, ok := el.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("operation %d must be an object, got %T", i, el)
		}
		op, err := Decode(m)
		if err != nil {
			return nil, fmt.Errorf("operation %d: %w", i, err)
		}
		out = append(out, op)
	}
	return out, nil
}

// UnmarshalJSON decodes the wire form.
func (o *Operation) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	op, err := Decode(raw)
	if err != nil {
		return err
	}
	*o = op
	return nil
}

// MarshalJSON encodes the wire form.
func (o Operation) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.Wire())
}

// UnmarshalYAML decodes the wire form.
func (o *Operation) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	op, err := Decode(raw)
	if err != nil {
		return err
	}
	*o = op
	return nil
}

// MarshalYAML encodes the wire form.
func (o Operation) MarshalYAML() (any, error) {
	return o.Wire(), nil
}
