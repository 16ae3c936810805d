package vfxsim

import (
	"fmt"
	"reflect"

	"github.com/aretw0/vfxbridge/pkg/host"
)

// Asset reference values carried by slots.
type (
	Texture2D struct {
		Name string `json:"name"`
	}
	Texture3D struct {
		Name string `json:"name"`
	}
	Cubemap struct {
		Name string `json:"name"`
	}
	Mesh struct {
		Name string `json:"name"`
	}
	GraphicsBuffer struct {
		Name string `json:"name"`
	}
	Gradient struct {
		Keys []host.Color `json:"keys"`
	}
	AnimationCurve struct {
		Keys []host.Vector2 `json:"keys"`
	}
)

// Direction of a slot.
type Direction int

const (
	DirectionInput Direction = iota
	DirectionOutput
)

func (d Direction) String() string {
	if d == DirectionOutput {
		return "Output"
	}
	return "Input"
}

// Slot is a typed data port of a node.
type Slot struct {
	Links []*Slot `vfx:"link"`

	id        int
	name      string
	dir       Direction
	owner     Node
	valueType reflect.Type
	value     any
	space     SpaceKind
	spaceable bool
}

func (s *Slot) InstanceID() int         { return s.id }
func (s *Slot) Name() string            { return s.name }
func (s *Slot) Owner() Node             { return s.owner }
func (s *Slot) Direction() Direction    { return s.dir }
func (s *Slot) ValueType() reflect.Type { return s.valueType }
func (s *Slot) Spaceable() bool         { return s.spaceable }
func (s *Slot) Space() SpaceKind        { return s.space }
func (s *Slot) Value() any              { return s.value }

// SetSpace panics on slots that carry no spatial value.
func (s *Slot) SetSpace(space SpaceKind) {
	if !s.spaceable {
		panic(fmt.Sprintf("slot %s is not spaceable", s.name))
	}
	s.space = space
}

// SetValue panics when v cannot be cast to the slot value type.
func (s *Slot) SetValue(v any) {
	cv, err := host.Convert(v, s.valueType)
	if err != nil {
		panic(fmt.Errorf("slot %s: %w", s.name, err))
	}
	s.value = cv
}

// Link connects s with other. Inputs keep a single link, so linking an
// already connected input replaces its link. It returns false for same
// direction, incompatible types and links that would close a cycle.
func (s *Slot) Link(other *Slot, notify bool) bool {
	if other == nil || other == s || other.dir == s.dir {
		return false
	}
	in, out := s, other
	if s.dir == DirectionOutput {
		in, out = other, s
	}
	if !linkCompatible(out.valueType, in.valueType) {
		return false
	}
	if out.owner == in.owner || upstreamOf(out.owner, in.owner, map[Node]bool{}) {
		return false
	}
	for _, l := range in.Links {
		if l == out {
			return true
		}
	}
	in.unlinkAllNotify(false)
	connect(in, out)
	if notify {
		in.owner.base().Invalidate(KConnectionChanged)
	}
	return true
}

func connect(in, out *Slot) {
	in.Links = append(in.Links, out)
	out.Links = append(out.Links, in)
}

// Unlink removes the link to other. It panics when the slots are not linked.
func (s *Slot) Unlink(other *Slot) {
	s.unlinkNotify(other, false)
}

func (s *Slot) unlinkNotify(other *Slot, notify bool) {
	if other == nil || !s.linkedTo(other) {
		panic("Unlink: slots are not linked")
	}
	s.Links = without(s.Links, other)
	other.Links = without(other.Links, s)
	if notify {
		s.owner.base().Invalidate(KConnectionChanged)
	}
}

// UnlinkAll removes every link of the slot.
func (s *Slot) UnlinkAll() {
	s.unlinkAllNotify(false)
}

func (s *Slot) unlinkAllNotify(notify bool) {
	for _, l := range s.Links {
		l.Links = without(l.Links, s)
	}
	had := len(s.Links) > 0
	s.Links = nil
	if notify && had {
		s.owner.base().Invalidate(KConnectionChanged)
	}
}

func (s *Slot) linkedTo(other *Slot) bool {
	for _, l := range s.Links {
		if l == other {
			return true
		}
	}
	return false
}

func without(links []*Slot, s *Slot) []*Slot {
	out := links[:0:0]
	for _, l := range links {
		if l != s {
			out = append(out, l)
		}
	}
	return out
}

var (
	float32Type = reflect.TypeOf(float32(0))
	int32Type   = reflect.TypeOf(int32(0))
	uint32Type  = reflect.TypeOf(uint32(0))
	boolType    = reflect.TypeOf(false)
	vector2Type = reflect.TypeOf(host.Vector2{})
	vector3Type = reflect.TypeOf(host.Vector3{})
	vector4Type = reflect.TypeOf(host.Vector4{})
	colorType   = reflect.TypeOf(host.Color{})
)

func isScalar(t reflect.Type) bool {
	return t == float32Type || t == int32Type || t == uint32Type
}

func isVector(t reflect.Type) bool {
	return t == vector2Type || t == vector3Type || t == vector4Type || t == colorType
}

func linkCompatible(from, to reflect.Type) bool {
	switch {
	case from == to:
		return true
	case isScalar(from) && isScalar(to):
		return true
	case isScalar(from) && isVector(to):
		return true
	case (from == colorType && to == vector4Type) || (from == vector4Type && to == colorType):
		return true
	}
	return false
}

// upstreamOf reports whether target feeds node through input links.
func upstreamOf(node, target Node, seen map[Node]bool) bool {
	if node == nil || seen[node] {
		return false
	}
	seen[node] = true
	sc, ok := node.(slotOwner)
	if !ok {
		return false
	}
	for _, in := range sc.container().inputs {
		for _, l := range in.Links {
			if l.owner == target || upstreamOf(l.owner, target, seen) {
				return true
			}
		}
	}
	return false
}

// SlotContainer is a model with data slots.
type SlotContainer struct {
	Model

	inputs  []*Slot
	outputs []*Slot
}

type slotOwner interface {
	Node
	container() *SlotContainer
}

func (c *SlotContainer) container() *SlotContainer { return c }

func (c *SlotContainer) InputSlots() []*Slot {
	out := make([]*Slot, len(c.inputs))
	copy(out, c.inputs)
	return out
}

func (c *SlotContainer) OutputSlots() []*Slot {
	out := make([]*Slot, len(c.outputs))
	copy(out, c.outputs)
	return out
}

func (c *SlotContainer) newSlot(dir Direction, name string, def any) *Slot {
	s := &Slot{
		id:        c.lib.ids.next(),
		name:      name,
		dir:       dir,
		owner:     c.self,
		valueType: reflect.TypeOf(def),
		value:     def,
	}
	s.spaceable = s.valueType == vector3Type
	return s
}

func (c *SlotContainer) addInput(name string, def any) *Slot {
	s := c.newSlot(DirectionInput, name, def)
	c.inputs = append(c.inputs, s)
	return s
}

func (c *SlotContainer) addOutput(name string, def any) *Slot {
	s := c.newSlot(DirectionOutput, name, def)
	c.outputs = append(c.outputs, s)
	return s
}

// clearInputs drops every input slot and its links.
func (c *SlotContainer) clearInputs() {
	for _, s := range c.inputs {
		s.unlinkAllNotify(false)
	}
	c.inputs = nil
}

func (c *SlotContainer) clearOutputs() {
	for _, s := range c.outputs {
		s.unlinkAllNotify(false)
	}
	c.outputs = nil
}

func (c *SlotContainer) detached() {
	for _, s := range c.inputs {
		s.unlinkAllNotify(false)
	}
	for _, s := range c.outputs {
		s.unlinkAllNotify(false)
	}
	for _, ch := range c.children {
		if d, ok := ch.(detacher); ok {
			d.detached()
		}
	}
}
