package graph

import (
	"fmt"
	"log/slog"
	"reflect"
	"strconv"
	"strings"

	"github.com/aretw0/vfxbridge/internal/logging"
	"github.com/aretw0/vfxbridge/pkg/domain"
	"github.com/aretw0/vfxbridge/pkg/host"
	"github.com/aretw0/vfxbridge/pkg/resolve"
)

// Logical names of the host types and members the adapter relies on.
const (
	TypeModel     = "VFXModel"
	TypeContext   = "VFXContext"
	TypeBlock     = "VFXBlock"
	TypeOperator  = "VFXOperator"
	TypeParameter = "VFXParameter"
	TypeSlot      = "VFXSlot"
	TypeGraph     = "VFXGraph"
)

// Adapter reads and writes host objects by logical member names.
type Adapter struct {
	cache  *resolve.Cache
	logger *slog.Logger
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the adapter logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

// New creates an Adapter over cache.
func New(cache *resolve.Cache, opts ...Option) *Adapter {
	a := &Adapter{cache: cache, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Cache returns the resolution cache used by the adapter.
func (a *Adapter) Cache() *resolve.Cache { return a.cache }

// TypeOf returns the host type of obj, or nil.
func (a *Adapter) TypeOf(obj any) *host.Type {
	if isNil(obj) {
		return nil
	}
	return a.cache.TypeOf(obj)
}

// TypeName returns the published type name of obj.
func (a *Adapter) TypeName(obj any) string {
	if t := a.TypeOf(obj); t != nil {
		return t.Name
	}
	if isNil(obj) {
		return ""
	}
	return reflect.TypeOf(obj).String()
}

// IsA reports whether obj is an instance of the host type named base.
func (a *Adapter) IsA(obj any, base string) bool {
	bt := a.cache.Type(base)
	t := a.TypeOf(obj)
	return bt != nil && t != nil && t.AssignableTo(bt)
}

// Get reads a property or field of obj by logical name.
func (a *Adapter) Get(obj any, name string) (any, bool) {
	m := a.cache.Member(a.TypeOf(obj), name)
	if m == nil {
		return nil, false
	}
	v, err := m.Get(obj)
	if err != nil {
		a.logger.Debug("member read failed", "member", name, "err", err)
		return nil, false
	}
	return v, true
}

// Set writes a property or field of obj by logical name.
func (a *Adapter) Set(obj any, name string, v any) error {
	m := a.cache.Member(a.TypeOf(obj), name)
	if m == nil {
		return domain.Errorf(domain.CodeResolution, "member %s not found on %s", name, a.TypeName(obj)).Wrap(domain.ErrResolution)
	}
	return m.Set(obj, v)
}

// Call resolves the method name on obj from the dynamic types of args and
// invokes it. A nil arg matches any parameter type.
func (a *Adapter) Call(obj any, name string, args ...any) ([]any, error) {
	sig := make([]reflect.Type, len(args))
	for i, arg := range args {
		if !isNil(arg) {
			sig[i] = reflect.TypeOf(arg)
		}
	}
	t := a.TypeOf(obj)
	m := a.cache.MethodSig(t, name, host.DefaultFlags, sig...)
	if m == nil {
		return nil, domain.Errorf(domain.CodeResolution, "%s method not found on %s", name, a.TypeName(obj)).Wrap(domain.ErrResolution)
	}
	return m.Invoke(obj, args...)
}

// Overloads returns every method named name on obj, fewest parameters first.
func (a *Adapter) Overloads(obj any, name string) []*host.Method {
	t := a.TypeOf(obj)
	var out []*host.Method
	seen := map[string]bool{}
	for p := t; p != nil; p = p.Base {
		for _, m := range p.Methods(host.DefaultFlags) {
			key := fmt.Sprint(m.Params())
			if m.Name == name && !seen[key] {
				seen[key] = true
				out = append(out, m)
			}
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && len(out[j].Params()) < len(out[j-1].Params()); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// Children returns the direct children of obj.
func (a *Adapter) Children(obj any) []host.Object {
	v, ok := a.Get(obj, "children")
	if !ok {
		return nil
	}
	var out []host.Object
	for _, c := range Elements(v) {
		if o, ok := c.(host.Object); ok && !isNil(o) {
			out = append(out, o)
		}
	}
	return out
}

// Models returns root and every model reachable through children, depth
// first. A subtree that fails to enumerate is omitted.
func (a *Adapter) Models(root host.Object) []host.Object {
	var out []host.Object
	a.walk(root, &out)
	return out
}

func (a *Adapter) walk(obj host.Object, out *[]host.Object) {
	if isNil(obj) {
		return
	}
	*out = append(*out, obj)
	defer func() {
		if r := recover(); r != nil {
			a.logger.Debug("subtree skipped", "id", obj.InstanceID(), "panic", r)
		}
	}()
	for _, c := range a.Children(obj) {
		a.walk(c, out)
	}
}

// Find returns the model with the given id below root, or nil.
func (a *Adapter) Find(root host.Object, id int) host.Object {
	if id == 0 {
		return nil
	}
	for _, m := range a.Models(root) {
		if m.InstanceID() == id {
			return m
		}
	}
	return nil
}

// Parent returns the parent of obj, or nil.
func (a *Adapter) Parent(obj any) host.Object {
	out, err := a.Call(obj, "GetParent")
	if err != nil || len(out) == 0 {
		return nil
	}
	p, _ := out[0].(host.Object)
	if isNil(p) {
		return nil
	}
	return p
}

// Position returns the UI position of obj.
func (a *Adapter) Position(obj any) host.Vector2 {
	v, _ := a.Get(obj, "position")
	p, _ := v.(host.Vector2)
	return p
}

// DisplayName is the exposed name of parameters and the type name otherwise.
func (a *Adapter) DisplayName(obj any) string {
	if a.IsA(obj, TypeParameter) {
		if v, ok := a.Get(obj, "m_ExposedName"); ok {
			if s, _ := v.(string); strings.TrimSpace(s) != "" {
				return s
			}
		}
	}
	if v, ok := a.Get(obj, "name"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return a.TypeName(obj)
}

// Slots returns the slots of obj in one direction.
func (a *Adapter) Slots(obj any, output bool) []any {
	name := "inputSlots"
	if output {
		name = "outputSlots"
	}
	v, ok := a.Get(obj, name)
	if !ok {
		return nil
	}
	var out []any
	for _, s := range Elements(v) {
		if !isNil(s) {
			out = append(out, s)
		}
	}
	return out
}

// FindSlot looks a slot up by name: exact match, then case-insensitive,
// then numeric index ("2" or "[2]"), then the sole slot when name is empty.
// It returns nil when nothing matches.
func (a *Adapter) FindSlot(obj any, name string, output bool) any {
	slots := a.Slots(obj, output)
	names := make([]string, len(slots))
	readable := make([]bool, len(slots))
	for i, s := range slots {
		names[i], readable[i] = a.slotName(s)
	}
	for i, s := range slots {
		if readable[i] && names[i] == name {
			return s
		}
	}
	for i, s := range slots {
		if readable[i] && strings.EqualFold(names[i], name) {
			return s
		}
	}
	if idx, err := strconv.Atoi(strings.Trim(name, "[]")); err == nil && idx >= 0 && idx < len(slots) {
		return slots[idx]
	}
	if name == "" && len(slots) == 1 {
		return slots[0]
	}
	return nil
}

// SlotName returns the slot name, empty when unreadable.
func (a *Adapter) SlotName(slot any) string {
	name, _ := a.slotName(slot)
	return name
}

func (a *Adapter) slotName(slot any) (string, bool) {
	v, ok := a.Get(slot, "name")
	if !ok || v == nil {
		return "", false
	}
	return fmt.Sprint(v), true
}

// SlotOwner returns the model owning slot.
func (a *Adapter) SlotOwner(slot any) host.Object {
	v, ok := a.Get(slot, "owner")
	if !ok {
		return nil
	}
	o, _ := v.(host.Object)
	if isNil(o) {
		return nil
	}
	return o
}

// LinkedSources returns the upstream slots feeding inputSlot.
func (a *Adapter) LinkedSources(inputSlot any) []any {
	v, ok := a.Get(inputSlot, "link")
	if !ok || isNil(v) {
		return nil
	}
	entries := Elements(v)
	if entries == nil {
		entries = []any{v}
	}
	var out []any
	for _, e := range entries {
		if s := a.linkedSlot(e); s != nil {
			out = append(out, s)
		}
	}
	return out
}

// linkedSlot unwraps a link record: a direct slot, then .slot, then .source.
func (a *Adapter) linkedSlot(entry any) any {
	if isNil(entry) {
		return nil
	}
	if a.IsA(entry, TypeSlot) {
		return entry
	}
	for _, f := range []string{"slot", "source"} {
		if m := a.cache.Field(a.TypeOf(entry), f); m != nil {
			if v, err := m.Get(entry); err == nil && !isNil(v) {
				return v
			}
		}
	}
	return nil
}

// SlotInfo describes a slot for diagnostics.
type SlotInfo struct {
	Index     int    `json:"index"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	ValueType string `json:"valueType"`
}

// SlotInfos lists the slots of obj in one direction.
func (a *Adapter) SlotInfos(obj any, output bool) []SlotInfo {
	out := []SlotInfo{}
	for i, s := range a.Slots(obj, output) {
		info := SlotInfo{Index: i, Name: a.SlotName(s), Type: a.TypeName(s), ValueType: "unknown"}
		if v, ok := a.Get(s, "value"); ok && v != nil {
			info.ValueType = ValueTypeName(reflect.TypeOf(v))
		} else if t, ok := a.Get(s, "valueType"); ok {
			if rt, ok := t.(reflect.Type); ok && rt != nil {
				info.ValueType = ValueTypeName(rt)
			}
		}
		out = append(out, info)
	}
	return out
}

// FlowLink is an outbound flow connection of a context.
type FlowLink struct {
	FromFlowIndex int    `json:"fromFlowIndex"`
	ToContextID   int    `json:"toContextId"`
	ToContextType string `json:"toContextType"`
}

// FlowSlots returns the flow ports of a context. name is "inputFlowSlot" or
// "outputFlowSlot".
func (a *Adapter) FlowSlots(ctx any, name string) []any {
	v, ok := a.Get(ctx, name)
	if !ok {
		return nil
	}
	return Elements(v)
}

// FlowLinks returns the outbound flow links of a context.
func (a *Adapter) FlowLinks(ctx any) []FlowLink {
	out := []FlowLink{}
	for i, fs := range a.FlowSlots(ctx, "outputFlowSlot") {
		v, ok := a.Get(fs, "link")
		if !ok {
			continue
		}
		for _, l := range Elements(v) {
			c, ok := a.Get(l, "context")
			if !ok {
				continue
			}
			o, ok := c.(host.Object)
			if !ok || isNil(o) {
				continue
			}
			out = append(out, FlowLink{FromFlowIndex: i, ToContextID: o.InstanceID(), ToContextType: a.TypeName(o)})
		}
	}
	return out
}

// Elements returns the items of a slice or array value, nil otherwise.
func Elements(v any) []any {
	if isNil(v) {
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

// IsNil reports whether v is nil or a typed nil.
func IsNil(v any) bool { return isNil(v) }

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
