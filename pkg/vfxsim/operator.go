package vfxsim

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/aretw0/vfxbridge/pkg/host"
)

// Operator is a free-standing expression node.
type Operator struct {
	SlotContainer
}

func (o *Operator) accepts(Node) bool { return false }

type Add struct{ Operator }

func (o *Add) setup() {
	o.addInput("a", float32(0))
	o.addInput("b", float32(0))
	o.addOutput("", float32(0))
}

type Multiply struct{ Operator }

func (o *Multiply) setup() {
	o.addInput("a", float32(1))
	o.addInput("b", float32(1))
	o.addOutput("", float32(0))
}

type Sine struct{ Operator }

func (o *Sine) setup() {
	o.addInput("x", float32(0))
	o.addOutput("", float32(0))
}

type RandomNumber struct {
	Operator
	Constant bool `vfx:"constant,setting"`
}

func (o *RandomNumber) setup() {
	o.addInput("min", float32(0))
	o.addInput("max", float32(1))
	o.addOutput("r", float32(0))
}

// SampleBuffer reads structured elements from a graphics buffer.
type SampleBuffer struct {
	Operator
	Type host.SerializableType `vfx:"m_Type,setting"`

	sampled string
}

func (o *SampleBuffer) setup() {
	o.Type = host.SerializableType{Name: "Vector3"}
	o.addInput("Buffer", GraphicsBuffer{})
	o.addInput("Index", uint32(0))
	o.resync()
}

func (o *SampleBuffer) settingChanged(string) { o.resync() }
func (o *SampleBuffer) restored()             { o.sampled = ""; o.resync() }

func (o *SampleBuffer) resync() {
	if o.sampled == o.Type.Name && len(o.outputs) > 0 {
		return
	}
	o.sampled = o.Type.Name
	o.clearOutputs()
	def, ok := valueTypes[lower(o.Type.Name)]
	if !ok {
		def = host.Vector3{}
	}
	o.addOutput("s", def)
}

// CustomHLSL evaluates a user shader function.
type CustomHLSL struct {
	Operator
	HLSLCode string `vfx:"m_HLSLCode"`
}

func (o *CustomHLSL) setup() {
	o.addInput("x", float32(0))
	o.addOutput("", float32(0))
}

// AttributeParameter reads a particle attribute.
type AttributeParameter struct {
	Operator
	Attribute string `vfx:"attribute,setting"`

	read string
}

func (o *AttributeParameter) setup() {
	o.Attribute = "position"
	o.resync()
}

func (o *AttributeParameter) settingChanged(string)                { o.resync() }
func (o *AttributeParameter) onInvalidate(Node, InvalidationCause) { o.resync() }
func (o *AttributeParameter) restored()                            { o.read = ""; o.resync() }

func (o *AttributeParameter) resync() {
	if o.read == o.Attribute {
		return
	}
	o.read = o.Attribute
	o.clearOutputs()
	o.addOutput(o.Attribute, attributeDefault(o.lib, o.GetGraph(), o.Attribute))
}

// valueTypes maps serializable type names to slot defaults.
var valueTypes = map[string]any{
	"float":          float32(0),
	"single":         float32(0),
	"int":            int32(0),
	"int32":          int32(0),
	"uint":           uint32(0),
	"uint32":         uint32(0),
	"bool":           false,
	"boolean":        false,
	"vector2":        host.Vector2{},
	"vector3":        host.Vector3{},
	"vector4":        host.Vector4{},
	"color":          host.Color{},
	"texture2d":      Texture2D{},
	"texture3d":      Texture3D{},
	"cubemap":        Cubemap{},
	"mesh":           Mesh{},
	"graphicsbuffer": GraphicsBuffer{},
	"gradient":       Gradient{},
	"animationcurve": AnimationCurve{},
}

func lower(s string) string { return strings.ToLower(s) }

// Parameter is an exposed graph property. It has exactly one output slot
// once initialised.
type Parameter struct {
	SlotContainer
	Label     string                `vfx:"m_ExposedName"`
	IsExposed bool                  `vfx:"m_Exposed"`
	Type      host.SerializableType `vfx:"m_Type"`
}

func (p *Parameter) setup() {}

func (p *Parameter) accepts(Node) bool { return false }

func (p *Parameter) ExposedName() string        { return p.Label }
func (p *Parameter) SetExposedName(name string) { p.Label = name }
func (p *Parameter) Exposed() bool              { return p.IsExposed }
func (p *Parameter) SetExposed(v bool)          { p.IsExposed = v }

// Init creates the output slot for t. It panics on unknown types.
func (p *Parameter) Init(t host.SerializableType) {
	def, ok := valueTypes[lower(t.Name)]
	if !ok {
		panic(fmt.Sprintf("unsupported parameter type %q", t.Name))
	}
	p.Type = t
	p.clearOutputs()
	p.addOutput("o", def)
}

// ValueType is the Go type of the parameter value, nil before Init.
func (p *Parameter) ValueType() reflect.Type {
	if len(p.outputs) == 0 {
		return nil
	}
	return p.outputs[0].valueType
}

func (p *Parameter) restored() {
	if p.Type.Name != "" {
		p.Init(p.Type)
	}
}
