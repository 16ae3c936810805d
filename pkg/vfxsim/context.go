package vfxsim

import (
	"fmt"

	"github.com/aretw0/vfxbridge/pkg/host"
)

// Data is the particle data of a system.
type Data struct {
	Cap uint32 `json:"capacity" vfx:"m_Capacity"`
}

func (d *Data) Capacity() uint32     { return d.Cap }
func (d *Data) SetCapacity(c uint32) { d.Cap = c }

// FlowSlot is a context flow port.
type FlowSlot struct {
	Links []*FlowLink `vfx:"link"`
}

// FlowLink points at the context (and its port index) on the other side.
type FlowLink struct {
	Context   Node `vfx:"context"`
	SlotIndex int  `vfx:"slotIndex"`
}

// Context is a stage of a particle system.
type Context struct {
	SlotContainer
	ParticleData *Data `vfx:"m_Data,internal"`

	kind    ContextKind
	inFlow  []*FlowSlot
	outFlow []*FlowSlot
}

type contextNode interface {
	Node
	ctx() *Context
}

func (c *Context) ctx() *Context { return c }

func (c *Context) ContextType() ContextKind { return c.kind }

// Data returns the particle data shared by the system, nil for spawners.
func (c *Context) Data() *Data { return c.ParticleData }

func (c *Context) InputFlowSlot() []*FlowSlot  { return append([]*FlowSlot(nil), c.inFlow...) }
func (c *Context) OutputFlowSlot() []*FlowSlot { return append([]*FlowSlot(nil), c.outFlow...) }

func (c *Context) initContext(kind ContextKind, inputs, outputs int) {
	c.kind = kind
	for i := 0; i < inputs; i++ {
		c.inFlow = append(c.inFlow, &FlowSlot{})
	}
	for i := 0; i < outputs; i++ {
		c.outFlow = append(c.outFlow, &FlowSlot{})
	}
	if kind&(KindInit|KindUpdate|KindOutput) != 0 {
		c.ParticleData = &Data{}
	}
}

func (c *Context) accepts(child Node) bool {
	b, ok := child.(blockNode)
	return ok && b.blk().CompatibleContexts()&c.kind != 0
}

// childrenChanged resizes update output flow: one port per event trigger.
func (c *Context) childrenChanged() {
	if c.kind != KindUpdate {
		return
	}
	want := 1
	for _, ch := range c.children {
		if _, ok := ch.(eventTrigger); ok {
			want++
		}
	}
	for len(c.outFlow) < want {
		c.outFlow = append(c.outFlow, &FlowSlot{})
	}
	for len(c.outFlow) > want {
		last := len(c.outFlow) - 1
		for _, l := range c.outFlow[last].Links {
			l.Context.(contextNode).ctx().dropInFlow(l.SlotIndex, c.self, last)
		}
		c.outFlow = c.outFlow[:last]
	}
}

// LinkTo connects output port fromIndex of this context to input port
// toIndex of target. It panics on disallowed flows.
func (c *Context) LinkTo(target Node, fromIndex int, toIndex int) {
	to, ok := target.(contextNode)
	if !ok {
		panic(fmt.Sprintf("LinkTo: %T is not a context", target))
	}
	linkFlow(c, fromIndex, to.ctx(), toIndex)
}

func (c *Context) linkToDefault(target Node) {
	c.LinkTo(target, 0, 0)
}

// LinkFrom connects output port fromIndex of source to input port toIndex of
// this context.
func (c *Context) LinkFrom(source Node, fromIndex int, toIndex int) {
	from, ok := source.(contextNode)
	if !ok {
		panic(fmt.Sprintf("LinkFrom: %T is not a context", source))
	}
	linkFlow(from.ctx(), fromIndex, c, toIndex)
}

func (c *Context) linkFromDefault(source Node) {
	c.LinkFrom(source, 0, 0)
}

// UnlinkTo removes every flow link from this context to target.
func (c *Context) UnlinkTo(target Node) {
	to, ok := target.(contextNode)
	if !ok {
		panic(fmt.Sprintf("UnlinkTo: %T is not a context", target))
	}
	for i, fs := range c.outFlow {
		kept := fs.Links[:0:0]
		for _, l := range fs.Links {
			if l.Context == target {
				to.ctx().dropInFlow(l.SlotIndex, c.self, i)
				continue
			}
			kept = append(kept, l)
		}
		fs.Links = kept
	}
}

func (c *Context) dropInFlow(index int, source Node, sourceIndex int) {
	if index < 0 || index >= len(c.inFlow) {
		return
	}
	fs := c.inFlow[index]
	kept := fs.Links[:0:0]
	for _, l := range fs.Links {
		if l.Context != source || l.SlotIndex != sourceIndex {
			kept = append(kept, l)
		}
	}
	fs.Links = kept
}

func (c *Context) detached() {
	c.SlotContainer.detached()
	for i, fs := range c.outFlow {
		for _, l := range fs.Links {
			l.Context.(contextNode).ctx().dropInFlow(l.SlotIndex, c.self, i)
		}
		fs.Links = nil
	}
	for i, fs := range c.inFlow {
		for _, l := range fs.Links {
			src := l.Context.(contextNode).ctx()
			if l.SlotIndex < len(src.outFlow) {
				out := src.outFlow[l.SlotIndex]
				kept := out.Links[:0:0]
				for _, ol := range out.Links {
					if ol.Context != c.self || ol.SlotIndex != i {
						kept = append(kept, ol)
					}
				}
				out.Links = kept
			}
		}
		fs.Links = nil
	}
}

func linkFlow(from *Context, fromIndex int, to *Context, toIndex int) {
	if fromIndex < 0 || fromIndex >= len(from.outFlow) {
		panic(fmt.Sprintf("flow output index %d out of range on %s (%d ports)", fromIndex, from.Name(), len(from.outFlow)))
	}
	if toIndex < 0 || toIndex >= len(to.inFlow) {
		panic(fmt.Sprintf("flow input index %d out of range on %s (%d ports)", toIndex, to.Name(), len(to.inFlow)))
	}
	if from == to {
		panic("cannot link a context to itself")
	}
	if !flowAllowed(from.kind, fromIndex, to.kind) {
		panic(fmt.Sprintf("cannot link %s (%s) to %s (%s)", from.Name(), from.kind, to.Name(), to.kind))
	}
	for _, l := range from.outFlow[fromIndex].Links {
		if l.Context == to.self && l.SlotIndex == toIndex {
			return
		}
	}
	from.outFlow[fromIndex].Links = append(from.outFlow[fromIndex].Links, &FlowLink{Context: to.self, SlotIndex: toIndex})
	to.inFlow[toIndex].Links = append(to.inFlow[toIndex].Links, &FlowLink{Context: from.self, SlotIndex: fromIndex})
	if to.ParticleData != nil && from.ParticleData != nil && from.kind != KindGPUEvent && to.kind != KindGPUEvent {
		to.ParticleData = from.ParticleData
	}
}

func flowAllowed(from ContextKind, fromIndex int, to ContextKind) bool {
	switch from {
	case KindSpawner:
		return to == KindInit || to == KindSpawner
	case KindInit:
		return to == KindUpdate || to == KindOutput
	case KindUpdate:
		if fromIndex == 0 {
			return to == KindOutput
		}
		return to == KindGPUEvent
	case KindGPUEvent:
		return to == KindInit
	}
	return false
}

// Spaceable adds the system space setting.
type Spaceable struct {
	Space SpaceKind `vfx:"space,setting"`
}

// OutputSettings are the rendering settings shared by outputs.
type OutputSettings struct {
	BlendMode        BlendMode `vfx:"blendMode,setting"`
	UseAlphaClipping bool      `vfx:"useAlphaClipping,setting"`
	UseSoftParticle  bool      `vfx:"useSoftParticle,setting"`
	CastShadows      bool      `vfx:"castShadows,setting"`
	Sort             SortMode  `vfx:"sort,setting"`
	UV               UVMode    `vfx:"uvMode,setting"`
}

type BasicSpawner struct {
	Context
}

func (s *BasicSpawner) setup() { s.initContext(KindSpawner, 1, 1) }

type BasicInitialize struct {
	Context
	Spaceable
}

func (s *BasicInitialize) setup() {
	s.initContext(KindInit, 1, 1)
	s.ParticleData.Cap = 128
	s.addInput("bounds_center", host.Vector3{})
	s.addInput("bounds_size", host.Vector3{X: 1, Y: 1, Z: 1})
}

type BasicUpdate struct {
	Context
	Spaceable
	UpdatePosition bool `vfx:"updatePosition,setting"`
	AgeParticles   bool `vfx:"ageParticles,setting"`
	ReapParticles  bool `vfx:"reapParticles,setting"`
}

func (s *BasicUpdate) setup() {
	s.initContext(KindUpdate, 1, 1)
	s.UpdatePosition, s.AgeParticles, s.ReapParticles = true, true, true
}

type BasicGPUEvent struct {
	Context
}

func (s *BasicGPUEvent) setup() { s.initContext(KindGPUEvent, 1, 1) }

type PlanarPrimitiveOutput struct {
	Context
	Spaceable
	OutputSettings
	Primitive PrimitiveType `vfx:"primitiveType,setting"`
}

func (s *PlanarPrimitiveOutput) setup() {
	s.initContext(KindOutput, 1, 0)
	s.Primitive = PrimitiveQuad
	s.BlendMode = BlendAlpha
	s.addInput("mainTexture", Texture2D{})
}

type OutputParticleQuadStrip struct {
	Context
	Spaceable
	OutputSettings
}

func (s *OutputParticleQuadStrip) setup() {
	s.initContext(KindOutput, 1, 0)
	s.BlendMode = BlendAlpha
	s.addInput("mainTexture", Texture2D{})
}
