package vfxsim

import (
	"sync/atomic"

	"github.com/aretw0/vfxbridge/pkg/host"
)

// Namespaces of the published types.
const (
	NamespaceCore     = "Editor.VFX"
	NamespaceBlock    = "Editor.VFX.Block"
	NamespaceOperator = "Editor.VFX.Operator"
)

type idSource struct {
	last atomic.Int64
}

func (s *idSource) next() int { return int(s.last.Add(1)) }

// observe makes sure future ids are greater than id.
func (s *idSource) observe(id int) {
	for {
		cur := s.last.Load()
		if int64(id) <= cur || s.last.CompareAndSwap(cur, int64(id)) {
			return
		}
	}
}

type setupper interface {
	Node
	setup()
}

type restorer interface {
	restored()
}

// library is one generation of the published object model.
type library struct {
	mod *host.Module
	ids *idSource

	byFullName map[string]*host.Type
	graph      *host.Type
	parameter  *host.Type
}

func define[T any, P interface {
	*T
	setupper
}](l *library, namespace string, base *host.Type, name string, opts ...host.TypeOption) *host.Type {
	var t *host.Type
	ctor := func() any {
		p := P(new(T))
		b := p.base()
		b.ID = l.ids.next()
		b.self = p
		b.htype = t
		b.lib = l
		p.setup()
		return p
	}
	opts = append([]host.TypeOption{host.Named(name), host.Constructor(ctor)}, opts...)
	t = host.Define[T](l.mod, namespace, base, opts...)
	l.byFullName[t.FullName()] = t
	return t
}

func newLibrary(ids *idSource, generation string) *library {
	l := &library{
		mod:        host.NewModule("VisualEffectGraph.Editor/" + generation),
		ids:        ids,
		byFullName: make(map[string]*host.Type),
	}
	m := l.mod

	model := host.Define[Model](m, NamespaceCore, nil, host.Named("VFXModel"), host.Abstract(),
		host.Internal("Invalidate", (*Model).invalidateFrom))
	container := host.Define[SlotContainer](m, NamespaceCore, model, host.Named("VFXSlotContainerModel"), host.Abstract())
	ctxType := host.Define[Context](m, NamespaceCore, container, host.Named("VFXContext"), host.Abstract(),
		host.Overload("LinkTo", (*Context).linkToDefault),
		host.Overload("LinkFrom", (*Context).linkFromDefault))
	blockType := host.Define[Block](m, NamespaceCore, container, host.Named("VFXBlock"), host.Abstract())
	opType := host.Define[Operator](m, NamespaceCore, container, host.Named("VFXOperator"), host.Abstract())

	host.Define[Slot](m, NamespaceCore, nil, host.Named("VFXSlot"), host.Abstract(),
		host.Overload("Unlink", (*Slot).unlinkNotify),
		host.Overload("UnlinkAll", (*Slot).unlinkAllNotify))
	host.Define[FlowSlot](m, NamespaceCore, nil, host.Named("VFXContextSlot"))
	host.Define[FlowLink](m, NamespaceCore, nil, host.Named("VFXContextLink"))
	host.Define[Data](m, NamespaceCore, nil, host.Named("VFXDataParticle"))
	host.Define[Setting](m, NamespaceCore, nil, host.Named("VFXSetting"))
	host.Define[CustomAttribute](m, NamespaceCore, nil, host.Named("VFXCustomAttributeDescriptor"))

	l.graph = define[Graph](l, NamespaceCore, model, "VFXGraph")
	l.parameter = define[Parameter](l, NamespaceCore, container, "VFXParameter")

	define[BasicSpawner](l, NamespaceCore, ctxType, "VFXBasicSpawner")
	define[BasicInitialize](l, NamespaceCore, ctxType, "VFXBasicInitialize")
	define[BasicUpdate](l, NamespaceCore, ctxType, "VFXBasicUpdate")
	define[BasicGPUEvent](l, NamespaceCore, ctxType, "VFXBasicGPUEvent")
	define[PlanarPrimitiveOutput](l, NamespaceCore, ctxType, "VFXPlanarPrimitiveOutput")
	define[OutputParticleQuadStrip](l, NamespaceCore, ctxType, "VFXOutputParticleQuadStrip")

	define[Add](l, NamespaceOperator, opType, "Add")
	define[Multiply](l, NamespaceOperator, opType, "Multiply")
	define[Sine](l, NamespaceOperator, opType, "Sine")
	define[RandomNumber](l, NamespaceOperator, opType, "Random")
	define[SampleBuffer](l, NamespaceOperator, opType, "SampleBuffer")
	define[CustomHLSL](l, NamespaceOperator, opType, "CustomHLSL")
	define[AttributeParameter](l, NamespaceCore, opType, "VFXAttributeParameter")

	define[SetAttribute](l, NamespaceBlock, blockType, "SetAttribute")
	define[SpawnerConstantRate](l, NamespaceBlock, blockType, "VFXSpawnerConstantRate")
	define[SpawnerVariableRate](l, NamespaceBlock, blockType, "VFXSpawnerVariableRate")
	define[SpawnerBurst](l, NamespaceBlock, blockType, "VFXSpawnerBurst")
	define[SpawnerPeriodicBurst](l, NamespaceBlock, blockType, "VFXSpawnerPeriodicBurst")
	define[TriggerEventOnDie](l, NamespaceBlock, blockType, "TriggerEventOnDie")
	define[TriggerEventRate](l, NamespaceBlock, blockType, "TriggerEventRate")
	define[TriggerEventAlways](l, NamespaceBlock, blockType, "TriggerEventAlways")
	define[Orient](l, NamespaceBlock, blockType, "Orient")
	define[Gravity](l, NamespaceBlock, blockType, "Gravity")
	define[Drag](l, NamespaceBlock, blockType, "Drag")
	define[Turbulence](l, NamespaceBlock, blockType, "Turbulence")
	define[Force](l, NamespaceBlock, blockType, "Force")
	define[CollisionShape](l, NamespaceBlock, blockType, "CollisionShape")
	define[KillShape](l, NamespaceBlock, blockType, "KillShape")
	define[PositionShape](l, NamespaceBlock, blockType, "SetPosition_Shape")
	define[SizeOverLife](l, NamespaceBlock, blockType, "SizeOverLife")
	define[ColorOverLife](l, NamespaceBlock, blockType, "ColorOverLife")
	define[ConnectTarget](l, NamespaceBlock, blockType, "ConnectTarget")
	define[CustomHLSLBlock](l, NamespaceBlock, blockType, "CustomHLSL")
	return l
}

func (l *library) newGraph() *Graph {
	obj, _ := l.graph.New()
	return obj.(*Graph)
}
