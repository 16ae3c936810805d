package vfxsim

import "strings"

// InvalidationCause tells the consistency pass what changed.
type InvalidationCause int

const (
	KStructureChanged InvalidationCause = iota
	KConnectionChanged
	KParamChanged
	KSettingChanged
	KSpaceChanged
	KExpressionInvalidated
	KExpressionGraphChanged
	KUIChanged
)

func (InvalidationCause) EnumNames() []string {
	return []string{"kStructureChanged", "kConnectionChanged", "kParamChanged", "kSettingChanged",
		"kSpaceChanged", "kExpressionInvalidated", "kExpressionGraphChanged", "kUIChanged"}
}

func (c InvalidationCause) String() string { return enumString(c.EnumNames(), int(c)) }

// ContextKind is a bit set of context categories.
type ContextKind int

const (
	KindSpawner ContextKind = 1 << iota
	KindInit
	KindUpdate
	KindOutput
	KindGPUEvent
)

var contextKindNames = []string{"Spawner", "Init", "Update", "Output", "GPUEvent"}

func (k ContextKind) String() string {
	var parts []string
	for i, name := range contextKindNames {
		if k&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	if len(parts) == 0 {
		return "None"
	}
	return strings.Join(parts, ", ")
}

// SpaceKind is the coordinate space of a system or slot.
type SpaceKind int

const (
	SpaceLocal SpaceKind = iota
	SpaceWorld
)

func (SpaceKind) EnumNames() []string { return []string{"Local", "World"} }
func (s SpaceKind) String() string    { return enumString(s.EnumNames(), int(s)) }

// AttributeComposition controls how SetAttribute combines values.
type AttributeComposition int

const (
	CompositionOverwrite AttributeComposition = iota
	CompositionAdd
	CompositionMultiply
	CompositionBlend
)

func (AttributeComposition) EnumNames() []string {
	return []string{"Overwrite", "Add", "Multiply", "Blend"}
}
func (c AttributeComposition) String() string { return enumString(c.EnumNames(), int(c)) }

// AttributeSource selects where SetAttribute reads its value.
type AttributeSource int

const (
	SourceSlot AttributeSource = iota
	SourceSource
)

func (AttributeSource) EnumNames() []string { return []string{"Slot", "Source"} }
func (s AttributeSource) String() string    { return enumString(s.EnumNames(), int(s)) }

// RandomMode controls SetAttribute randomisation.
type RandomMode int

const (
	RandomOff RandomMode = iota
	RandomPerComponent
	RandomUniform
)

func (RandomMode) EnumNames() []string { return []string{"Off", "PerComponent", "Uniform"} }
func (r RandomMode) String() string    { return enumString(r.EnumNames(), int(r)) }

// VariadicChannels selects the components written by variadic attributes.
type VariadicChannels int

const (
	ChannelsX VariadicChannels = iota
	ChannelsY
	ChannelsZ
	ChannelsXY
	ChannelsXZ
	ChannelsYZ
	ChannelsXYZ
)

func (VariadicChannels) EnumNames() []string {
	return []string{"X", "Y", "Z", "XY", "XZ", "YZ", "XYZ"}
}
func (v VariadicChannels) String() string { return enumString(v.EnumNames(), int(v)) }

// BlendMode is the output blending.
type BlendMode int

const (
	BlendAdditive BlendMode = iota
	BlendAlpha
	BlendAlphaPremultiplied
	BlendOpaque
)

func (BlendMode) EnumNames() []string {
	return []string{"Additive", "Alpha", "AlphaPremultiplied", "Opaque"}
}
func (b BlendMode) String() string { return enumString(b.EnumNames(), int(b)) }

// PrimitiveType is the planar primitive drawn per particle.
type PrimitiveType int

const (
	PrimitiveTriangle PrimitiveType = iota
	PrimitiveQuad
	PrimitiveOctagon
)

func (PrimitiveType) EnumNames() []string { return []string{"Triangle", "Quad", "Octagon"} }
func (p PrimitiveType) String() string    { return enumString(p.EnumNames(), int(p)) }

// SortMode controls particle sorting.
type SortMode int

const (
	SortAuto SortMode = iota
	SortOff
	SortOn
)

func (SortMode) EnumNames() []string { return []string{"Auto", "Off", "On"} }
func (s SortMode) String() string    { return enumString(s.EnumNames(), int(s)) }

// UVMode controls texture sampling of outputs.
type UVMode int

const (
	UVDefault UVMode = iota
	UVFlipbook
	UVFlipbookBlend
	UVScaleAndBias
)

func (UVMode) EnumNames() []string {
	return []string{"Default", "Flipbook", "FlipbookBlend", "ScaleAndBias"}
}
func (u UVMode) String() string { return enumString(u.EnumNames(), int(u)) }

// OrientMode is the facing mode of the Orient block.
type OrientMode int

const (
	OrientFaceCameraPlane OrientMode = iota
	OrientFaceCameraPosition
	OrientLookAtPosition
	OrientLookAtLine
	OrientAdvanced
	OrientFixedAxis
	OrientAlongVelocity
	OrientCustomZ
	OrientCustomY
)

func (OrientMode) EnumNames() []string {
	return []string{"FaceCameraPlane", "FaceCameraPosition", "LookAtPosition", "LookAtLine",
		"Advanced", "FixedAxis", "AlongVelocity", "CustomZ", "CustomY"}
}
func (o OrientMode) String() string { return enumString(o.EnumNames(), int(o)) }

func enumString(names []string, i int) string {
	if i < 0 || i >= len(names) {
		return "Unknown"
	}
	return names[i]
}
