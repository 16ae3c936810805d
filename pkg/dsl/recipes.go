package dsl

import "github.com/aretw0/vfxbridge/pkg/batch"

// RecipeArgs are the arguments the built-in recipes accept.
type RecipeArgs struct {
	Capacity   int    `mapstructure:"capacity"`
	BufferName string `mapstructure:"bufferName"`
	StructType string `mapstructure:"structType"`
}

// DefaultRecipeArgs are used for arguments the caller leaves out.
var DefaultRecipeArgs = RecipeArgs{
	Capacity:   10000,
	BufferName: "EntityBuffer",
	StructType: "Vector3",
}

// Recipes returns the built-in recipes.
func Recipes() []batch.Recipe {
	return []batch.Recipe{
		builtin("ecs_buffer_particles",
			"Particle system driven by a GraphicsBuffer of entity data, read through a SampleBuffer operator.",
			ecsBufferParticles),
		builtin("simple_spawn_particles",
			"Constant-rate particles with lifetime, random velocity and color set on initialize.",
			simpleSpawnParticles),
		builtin("gpu_event_chain",
			"Parent system whose dying particles trigger a child initialize/update/output chain.",
			gpuEventChain),
		builtin("particle_strip_trail",
			"Particle strips rendered with a quad strip output.",
			particleStripTrail),
	}
}

func builtin(name, description string, fn func(*Builder, RecipeArgs)) batch.Recipe {
	return batch.Recipe{
		Name:        name,
		Description: description,
		Source:      "builtin",
		Expand: func(args batch.Args) ([]batch.Operation, error) {
			a := DefaultRecipeArgs
			if err := args.Decode(&a); err != nil {
				return nil, err
			}
			b := New()
			fn(b, a)
			return b.Build(), nil
		},
	}
}

// system adds a linked spawn, init, update and output chain on row 0.
func system(b *Builder, output string) {
	b.Node("spawn", "VFXBasicSpawner").At(-600, 0)
	b.Node("init", "VFXBasicInitialize").At(-200, 0)
	b.Node("update", "VFXBasicUpdate").At(200, 0)
	b.Node("output", output).At(600, 0)
	b.Chain("spawn", "init", "update", "output")
}

func ecsBufferParticles(b *Builder, a RecipeArgs) {
	system(b, "VFXPlanarPrimitiveOutput")
	b.Capacity("init", a.Capacity)
	b.Property("buf", a.BufferName, "GraphicsBuffer")
	b.Node("sampler", "SampleBuffer").At(-200, -300)
	b.Op("set_node_setting").Ref("nodeId", "sampler").Set("settingName", "m_Type").Set("value", a.StructType)
	b.Attribute("init", "position", "Overwrite")
	b.Attribute("update", "position", "Overwrite")
	b.Block("spawn", "ConstantSpawnRate")
}

func simpleSpawnParticles(b *Builder, a RecipeArgs) {
	system(b, "VFXPlanarPrimitiveOutput")
	b.Capacity("init", a.Capacity)
	b.Block("spawn", "ConstantSpawnRate")
	b.Attribute("init", "lifetime", "Overwrite")
	b.Attribute("init", "velocity", "Overwrite").Set("random", "Uniform")
	b.Attribute("init", "color", "Overwrite")
}

func gpuEventChain(b *Builder, _ RecipeArgs) {
	system(b, "VFXPlanarPrimitiveOutput")
	b.Block("update", "TriggerEventOnDie")
	b.Node("childInit", "VFXBasicInitialize").At(-200, 500)
	b.Node("childUpdate", "VFXBasicUpdate").At(200, 500)
	b.Node("childOutput", "VFXPlanarPrimitiveOutput").At(600, 500)
	b.Chain("childInit", "childUpdate", "childOutput")
}

func particleStripTrail(b *Builder, a RecipeArgs) {
	system(b, "VFXOutputParticleQuadStrip")
	b.Capacity("init", a.Capacity)
	b.Block("spawn", "ConstantSpawnRate")
	b.Attribute("init", "lifetime", "Overwrite")
}
