package batch_test

import (
	"strings"
	"testing"

	"github.com/aretw0/vfxbridge/pkg/adapters/memory"
	"github.com/aretw0/vfxbridge/pkg/batch"
	"github.com/aretw0/vfxbridge/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sparks = `
name: sparks
description: Burst of sparks
defaults:
  capacity: 500
operations:
  - op: add_node
    ref: init
    type: VFXBasicInitialize
  - op: set_capacity
    contextId: $init
    capacity: "{{ capacity }}"
`

func TestDocument_Expand(t *testing.T) {
	doc, err := batch.ParseDocument([]byte(sparks))
	require.NoError(t, err)
	r := doc.Recipe("test")

	ops, err := r.Expand(nil)
	require.NoError(t, err)
	require.Len(t, ops, 2)
	v, _ := ops[1].Param("capacity")
	assert.Equal(t, batch.Literal{V: 500}, v)
	ref, _ := ops[1].Param("contextId")
	assert.Equal(t, batch.Ref{Name: "init"}, ref)

	ops, err = r.Expand(batch.Args{"capacity": 64})
	require.NoError(t, err)
	v, _ = ops[1].Param("capacity")
	assert.Equal(t, batch.Literal{V: 64}, v)
}

func TestDocument_MissingPlaceholder(t *testing.T) {
	doc, err := batch.ParseDocument([]byte(`
operations:
  - op: add_node
    type: "{{ kind }}"
`))
	require.NoError(t, err)
	_, err = doc.Recipe("test").Expand(nil)
	assert.ErrorContains(t, err, "no value for {{ kind }}")

	_, err = batch.ParseDocument([]byte(`name: empty`))
	assert.Error(t, err)
}

func TestLibrary_Loader(t *testing.T) {
	lib := batch.NewLibrary(dsl.Recipes()...)
	lib.UseLoader(memory.NewLoader(map[string]string{
		"sparks":                 sparks,
		"broken":                 "operations: 3",
		"simple_spawn_particles": sparks,
	}), "memory")

	r, ok := lib.Get("sparks")
	require.True(t, ok)
	assert.Equal(t, "memory", r.Source)
	assert.Equal(t, "Burst of sparks", r.Description)

	builtin, ok := lib.Get("SIMPLE_SPAWN_PARTICLES")
	require.True(t, ok)
	assert.Equal(t, "builtin", builtin.Source, "built-in names win")

	_, ok = lib.Get("broken")
	assert.False(t, ok)
	_, ok = lib.Get("nope")
	assert.False(t, ok)

	assert.Equal(t, []string{
		"ecs_buffer_particles", "gpu_event_chain", "particle_strip_trail", "simple_spawn_particles", "sparks",
	}, lib.Names())
}

func TestLibrary_Invalidate(t *testing.T) {
	recipes := map[string]string{"sparks": sparks}
	loader := memory.NewLoader(recipes)
	lib := batch.NewLibrary()
	lib.UseLoader(loader, "memory")

	r, ok := lib.Get("sparks")
	require.True(t, ok)
	assert.Equal(t, "Burst of sparks", r.Description)

	loader.Set("sparks", strings.Replace(sparks, "Burst of sparks", "Shower", 1))
	r, _ = lib.Get("sparks")
	assert.Equal(t, "Burst of sparks", r.Description, "parsed documents are cached")

	lib.Invalidate()
	r, _ = lib.Get("sparks")
	assert.Equal(t, "Shower", r.Description)
}
