package ops

import (
	"sort"
	"strings"

	"github.com/aretw0/vfxbridge/pkg/graph"
)

// BlockAlias maps a friendly block name to a host block type and the
// settings applied after creation.
type BlockAlias struct {
	Type        string            `json:"type"`
	Description string            `json:"description"`
	Settings    map[string]string `json:"settings,omitempty"`
}

// Attribute describes a built-in particle attribute.
type Attribute struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	DefaultValue string `json:"defaultValue"`
	Category     string `json:"category"`
	ReadOnly     bool   `json:"readOnly"`
	Variadic     bool   `json:"variadic"`
}

// BuiltInAttributes lists every built-in particle attribute.
var BuiltInAttributes = []Attribute{
	{Name: "position", Type: "Vector3", DefaultValue: "(0,0,0)", Category: "simulation"},
	{Name: "velocity", Type: "Vector3", DefaultValue: "(0,0,0)", Category: "simulation"},
	{Name: "age", Type: "float", DefaultValue: "0", Category: "simulation"},
	{Name: "lifetime", Type: "float", DefaultValue: "0", Category: "simulation"},
	{Name: "alive", Type: "bool", DefaultValue: "true", Category: "simulation"},
	{Name: "size", Type: "float", DefaultValue: "0.1", Category: "simulation"},
	{Name: "mass", Type: "float", DefaultValue: "1", Category: "simulation"},
	{Name: "direction", Type: "Vector3", DefaultValue: "(0,0,1)", Category: "simulation"},
	{Name: "angle", Type: "Vector3", DefaultValue: "(0,0,0)", Category: "simulation", Variadic: true},
	{Name: "angularVelocity", Type: "Vector3", DefaultValue: "(0,0,0)", Category: "simulation", Variadic: true},
	{Name: "oldPosition", Type: "Vector3", DefaultValue: "(0,0,0)", Category: "simulation"},
	{Name: "targetPosition", Type: "Vector3", DefaultValue: "(0,0,0)", Category: "simulation"},
	{Name: "color", Type: "Vector3", DefaultValue: "(1,1,1)", Category: "rendering"},
	{Name: "alpha", Type: "float", DefaultValue: "1", Category: "rendering"},
	{Name: "scale", Type: "Vector3", DefaultValue: "(1,1,1)", Category: "rendering", Variadic: true},
	{Name: "pivot", Type: "Vector3", DefaultValue: "(0,0,0)", Category: "rendering"},
	{Name: "texIndex", Type: "float", DefaultValue: "0", Category: "rendering"},
	{Name: "axisX", Type: "Vector3", DefaultValue: "(1,0,0)", Category: "rendering"},
	{Name: "axisY", Type: "Vector3", DefaultValue: "(0,1,0)", Category: "rendering"},
	{Name: "axisZ", Type: "Vector3", DefaultValue: "(0,0,1)", Category: "rendering"},
	{Name: "particleId", Type: "uint", DefaultValue: "0", Category: "system", ReadOnly: true},
	{Name: "seed", Type: "uint", DefaultValue: "0", Category: "system", ReadOnly: true},
	{Name: "spawnCount", Type: "float", DefaultValue: "0", Category: "system", ReadOnly: true},
	{Name: "spawnTime", Type: "float", DefaultValue: "0", Category: "system", ReadOnly: true},
	{Name: "spawnIndex", Type: "uint", DefaultValue: "0", Category: "system", ReadOnly: true},
	{Name: "particleIndexInStrip", Type: "uint", DefaultValue: "0", Category: "system", ReadOnly: true},
	{Name: "particleCountInStrip", Type: "uint", DefaultValue: "0", Category: "system", ReadOnly: true},
	{Name: "stripIndex", Type: "uint", DefaultValue: "0", Category: "system", ReadOnly: true},
	{Name: "collisionEventCount", Type: "uint", DefaultValue: "0", Category: "collision", ReadOnly: true},
	{Name: "collisionEventNormal", Type: "Vector3", DefaultValue: "(0,0,0)", Category: "collision", ReadOnly: true},
	{Name: "collisionEventPosition", Type: "Vector3", DefaultValue: "(0,0,0)", Category: "collision", ReadOnly: true},
	{Name: "hasCollisionEvent", Type: "bool", DefaultValue: "false", Category: "collision", ReadOnly: true},
}

var writableAttributes = []string{
	"position", "velocity", "color", "alpha", "size", "scale",
	"lifetime", "age", "angle", "angularVelocity", "mass",
	"direction", "oldPosition", "targetPosition", "pivot",
	"texIndex", "alive",
}

var compositions = []string{"Overwrite", "Add", "Multiply", "Blend"}

// blockAliases is keyed by lower-cased alias.
var blockAliases = buildBlockAliases()

func setAttributeAlias(attr, composition string) BlockAlias {
	verb := composition
	if composition == "Overwrite" {
		verb = "Set"
	}
	return BlockAlias{
		Type:        "SetAttribute",
		Description: verb + " " + attr,
		Settings:    map[string]string{"attribute": attr, "Composition": composition},
	}
}

func buildBlockAliases() map[string]BlockAlias {
	m := map[string]BlockAlias{}
	add := func(alias string, a BlockAlias) { m[strings.ToLower(alias)] = a }
	direct := func(alias, typ, desc string) { add(alias, BlockAlias{Type: typ, Description: desc}) }

	for _, attr := range writableAttributes {
		capName := graph.Capitalize(attr)
		for _, comp := range compositions {
			prefix := comp
			if comp == "Overwrite" {
				prefix = "Set"
			}
			add(prefix+capName, setAttributeAlias(attr, comp))
		}
		add("InheritSource"+capName, BlockAlias{
			Type:        "SetAttribute",
			Description: "Inherit " + attr + " from source",
			Settings:    map[string]string{"attribute": attr, "Composition": "Overwrite", "Source": "Source"},
		})
	}

	direct("SetPositionShape", "SetPosition_Shape", "Position from shape")
	direct("SetPositionMesh", "SetPosition_Mesh", "Position from mesh surface")
	direct("SetPositionSequential", "SetPosition_Sequential", "Position from sequence")
	direct("SetPositionDepth", "SetPosition_Depth", "Position from depth buffer")
	direct("SetAttributeFromCurve", "AttributeFromCurve", "Attribute from curve/gradient")
	direct("SetAttributeFromMap", "AttributeFromMap", "Attribute from texture map")

	direct("Gravity", "Gravity", "Gravity force")
	direct("LinearDrag", "Drag", "Linear drag")
	direct("Turbulence", "Turbulence", "Turbulence noise force")
	direct("Force", "Force", "Constant force vector")
	direct("ConformToSphere", "ConformToSphere", "Attract to sphere")
	direct("ConformToSDF", "ConformToSignedDistanceField", "Attract to SDF")
	direct("VectorFieldForce", "VectorForceField", "Force from vector field")

	direct("CollisionShape", "CollisionShape", "Shape collision")
	direct("CollisionDepthBuffer", "CollideWithDepthBuffer", "Depth buffer collision")
	direct("KillShape", "KillShape", "Kill on shape contact")
	direct("TriggerShape", "TriggerShape", "Shape collision trigger")

	direct("ConstantSpawnRate", "VFXSpawnerConstantRate", "Constant spawn rate")
	direct("VariableSpawnRate", "VFXSpawnerVariableRate", "Variable spawn rate")
	direct("SpawnBurst", "VFXSpawnerBurst", "Single burst")
	direct("PeriodicBurst", "VFXSpawnerPeriodicBurst", "Periodic bursts")

	direct("TriggerEventOnDie", "TriggerEventOnDie", "GPU event on death")
	direct("TriggerEventRate", "TriggerEventRate", "GPU event at rate")
	direct("TriggerEventAlways", "TriggerEventAlways", "GPU event every frame")

	direct("Orient", "Orient", "Particle orientation")
	direct("FlipbookPlayer", "FlipbookPlayer", "Flipbook animation")
	direct("CameraFade", "CameraFade", "Fade near camera")
	direct("SizeOverLife", "SizeOverLife", "Size over lifetime")
	direct("ColorOverLife", "ColorOverLife", "Color over lifetime")

	direct("ConnectTarget", "ConnectTarget", "Connect particle strips to target")
	add("SetStripProgress", setAttributeAlias("stripProgress", "Overwrite"))
	return m
}

// ResolveBlockAlias looks a block alias up, case-insensitively.
func ResolveBlockAlias(name string) (BlockAlias, bool) {
	a, ok := blockAliases[strings.ToLower(strings.TrimSpace(name))]
	return a, ok
}

// BlockAliasNames lists the aliases, sorted.
func BlockAliasNames() []string {
	out := make([]string, 0, len(blockAliases))
	for k := range blockAliases {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ResolveGetAttribute maps "GetVelocity" style names to the attribute read.
func ResolveGetAttribute(name string) (string, bool) {
	if len(name) < 3 || !strings.EqualFold(name[:3], "get") {
		return "", false
	}
	suffix := name[3:]
	for _, a := range BuiltInAttributes {
		if strings.EqualFold(suffix, a.Name) {
			return a.Name, true
		}
	}
	return "", false
}

// findAttribute returns the built-in attribute named name, ignoring case.
func findAttribute(name string) (Attribute, bool) {
	for _, a := range BuiltInAttributes {
		if strings.EqualFold(a.Name, name) {
			return a, true
		}
	}
	return Attribute{}, false
}
