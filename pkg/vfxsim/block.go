package vfxsim

import (
	"github.com/aretw0/vfxbridge/pkg/host"
)

// Block is a unit of behaviour nested in a context.
type Block struct {
	SlotContainer
	Disabled bool `vfx:"m_Disabled,internal"`
}

type blockNode interface {
	Node
	blk() *Block
	compatibility() ContextKind
}

type eventTrigger interface {
	triggersEvent()
}

func (b *Block) blk() *Block { return b }

func (b *Block) Enabled() bool     { return !b.Disabled }
func (b *Block) SetEnabled(v bool) { b.Disabled = !v }

// CompatibleContexts lists the context kinds that accept the block.
func (b *Block) CompatibleContexts() ContextKind {
	if bn, ok := b.self.(blockNode); ok {
		return bn.compatibility()
	}
	return 0
}

func (b *Block) accepts(Node) bool { return false }

// SetAttribute writes a particle attribute.
type SetAttribute struct {
	Block
	Attribute   string               `vfx:"attribute,setting"`
	Composition AttributeComposition `vfx:"Composition,setting"`
	Source      AttributeSource      `vfx:"Source,setting"`
	Random      RandomMode           `vfx:"Random,setting"`
	Channels    VariadicChannels     `vfx:"Channels,setting"`

	signature string
}

func (b *SetAttribute) compatibility() ContextKind { return KindInit | KindUpdate | KindOutput }

func (b *SetAttribute) setup() {
	b.Attribute = "position"
	b.Channels = ChannelsXYZ
	b.resync()
}

func (b *SetAttribute) settingChanged(string) { b.resync() }

func (b *SetAttribute) onInvalidate(Node, InvalidationCause) { b.resync() }

func (b *SetAttribute) restored() { b.signature = ""; b.resync() }

// resync rebuilds the input slots when attribute, source or random changed.
func (b *SetAttribute) resync() {
	sig := b.Attribute + "|" + b.Source.String() + "|" + b.Random.String()
	if sig == b.signature {
		return
	}
	b.signature = sig
	b.clearInputs()
	if b.Source == SourceSource {
		return
	}
	def := attributeDefault(b.lib, b.GetGraph(), b.Attribute)
	if b.Random == RandomOff {
		b.addInput(b.Attribute, def)
		return
	}
	b.addInput("A", def)
	b.addInput("B", def)
}

type SpawnerConstantRate struct{ Block }

func (b *SpawnerConstantRate) compatibility() ContextKind { return KindSpawner }
func (b *SpawnerConstantRate) setup()                     { b.addInput("Rate", float32(10)) }

type SpawnerVariableRate struct{ Block }

func (b *SpawnerVariableRate) compatibility() ContextKind { return KindSpawner }
func (b *SpawnerVariableRate) setup() {
	b.addInput("Rate", host.Vector2{X: 0, Y: 10})
	b.addInput("Period", host.Vector2{X: 0, Y: 1})
}

type SpawnerBurst struct{ Block }

func (b *SpawnerBurst) compatibility() ContextKind { return KindSpawner }
func (b *SpawnerBurst) setup() {
	b.addInput("Count", float32(1))
	b.addInput("Delay", float32(0))
}

type SpawnerPeriodicBurst struct{ Block }

func (b *SpawnerPeriodicBurst) compatibility() ContextKind { return KindSpawner }
func (b *SpawnerPeriodicBurst) setup() {
	b.addInput("Count", float32(1))
	b.addInput("Delay", float32(1))
}

type TriggerEventOnDie struct{ Block }

func (b *TriggerEventOnDie) compatibility() ContextKind { return KindUpdate }
func (b *TriggerEventOnDie) triggersEvent()             {}
func (b *TriggerEventOnDie) setup()                     { b.addInput("count", uint32(1)) }

type TriggerEventRate struct{ Block }

func (b *TriggerEventRate) compatibility() ContextKind { return KindUpdate }
func (b *TriggerEventRate) triggersEvent()             {}
func (b *TriggerEventRate) setup()                     { b.addInput("Rate", float32(10)) }

type TriggerEventAlways struct{ Block }

func (b *TriggerEventAlways) compatibility() ContextKind { return KindUpdate }
func (b *TriggerEventAlways) triggersEvent()             {}
func (b *TriggerEventAlways) setup()                     { b.addInput("count", uint32(1)) }

type Orient struct {
	Block
	Mode OrientMode `vfx:"mode,setting"`
}

func (b *Orient) compatibility() ContextKind { return KindOutput }
func (b *Orient) setup()                     {}

type Gravity struct{ Block }

func (b *Gravity) compatibility() ContextKind { return KindUpdate }
func (b *Gravity) setup()                     { b.addInput("Force", host.Vector3{Y: -9.81}) }

type Drag struct{ Block }

func (b *Drag) compatibility() ContextKind { return KindUpdate }
func (b *Drag) setup()                     { b.addInput("dragCoefficient", float32(0.5)) }

type Turbulence struct{ Block }

func (b *Turbulence) compatibility() ContextKind { return KindUpdate }
func (b *Turbulence) setup() {
	b.addInput("Intensity", float32(1))
	b.addInput("Drag", float32(1))
	b.addInput("Frequency", float32(2))
}

type Force struct{ Block }

func (b *Force) compatibility() ContextKind { return KindUpdate }
func (b *Force) setup()                     { b.addInput("Force", host.Vector3{}) }

type CollisionShape struct{ Block }

func (b *CollisionShape) compatibility() ContextKind { return KindUpdate }
func (b *CollisionShape) setup() {
	b.addInput("Center", host.Vector3{})
	b.addInput("Radius", float32(1))
	b.addInput("Bounce", float32(0.1))
}

type KillShape struct{ Block }

func (b *KillShape) compatibility() ContextKind { return KindInit | KindUpdate }
func (b *KillShape) setup() {
	b.addInput("Center", host.Vector3{})
	b.addInput("Size", host.Vector3{X: 1, Y: 1, Z: 1})
}

type PositionShape struct{ Block }

func (b *PositionShape) compatibility() ContextKind { return KindInit | KindUpdate }
func (b *PositionShape) setup() {
	b.addInput("Center", host.Vector3{})
	b.addInput("Radius", float32(1))
}

type SizeOverLife struct{ Block }

func (b *SizeOverLife) compatibility() ContextKind { return KindUpdate | KindOutput }
func (b *SizeOverLife) setup()                     { b.addInput("Size", AnimationCurve{}) }

type ColorOverLife struct{ Block }

func (b *ColorOverLife) compatibility() ContextKind { return KindUpdate | KindOutput }
func (b *ColorOverLife) setup()                     { b.addInput("Color", Gradient{}) }

type ConnectTarget struct{ Block }

func (b *ConnectTarget) compatibility() ContextKind { return KindOutput }
func (b *ConnectTarget) setup()                     { b.addInput("TargetPosition", host.Vector3{}) }

// CustomHLSLBlock runs user shader code per particle.
type CustomHLSLBlock struct {
	Block
	BodyContent string `vfx:"m_BodyContent"`
}

func (b *CustomHLSLBlock) compatibility() ContextKind { return KindInit | KindUpdate | KindOutput }
func (b *CustomHLSLBlock) setup()                     {}
