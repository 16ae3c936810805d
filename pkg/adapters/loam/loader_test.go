package loam_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/loam"

	"github.com/aretw0/vfxbridge/internal/testutils"
	loamadapter "github.com/aretw0/vfxbridge/pkg/adapters/loam"
	"github.com/aretw0/vfxbridge/pkg/batch"
	"github.com/aretw0/vfxbridge/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_Contract(t *testing.T) {
	_, loader := testutils.RecipeLoader(t, map[string]string{"sparks.md": testutils.SparksRecipe})

	tests.RecipeLoaderContractTest(t, loader, map[string][]byte{
		"sparks": []byte(`{"name":"sparks","description":"Sparks","operations":[{"op":"add_node","ref":"spawn","type":"VFXBasicSpawner"}]}`),
	})
}

func TestLoader_ImpliedNameAndDescription(t *testing.T) {
	_, loader := testutils.RecipeLoader(t, map[string]string{"trail.md": `---
defaults:
  capacity: 500
operations:
  - op: add_node
    ref: init
    type: VFXBasicInitialize
  - op: set_capacity
    contextRef: $init
    capacity: "{{ capacity }}"
---
# Trail

Long trails.`})

	data, err := loader.GetRecipe("trail")
	require.NoError(t, err)

	doc, err := batch.ParseDocument(data)
	require.NoError(t, err)
	assert.Equal(t, "trail", doc.Name)
	assert.Equal(t, "Trail", doc.Description)
	require.Len(t, doc.Operations, 2)

	ops, err := doc.Recipe("loam").Expand(batch.Args{"capacity": 64})
	require.NoError(t, err)
	ref, _ := ops[1].Param("contextRef")
	assert.Equal(t, batch.Ref{Name: "init"}, ref)
	capacity, _ := ops[1].Param("capacity")
	assert.Equal(t, batch.Literal{V: 64}, capacity)
}

func TestLoader_Library(t *testing.T) {
	_, loader := testutils.RecipeLoader(t, map[string]string{"sparks.md": testutils.SparksRecipe})

	lib := batch.NewLibrary()
	lib.UseLoader(loader, "loam")

	r, ok := lib.Get("sparks")
	require.True(t, ok)
	assert.Equal(t, "loam", r.Source)
	assert.Equal(t, []string{"sparks"}, lib.Names())
}

func TestLoader_ListRecipes_DetectsCollisions(t *testing.T) {
	_, loader := testutils.RecipeLoader(t, map[string]string{
		"foo.md":   testutils.SparksRecipe,
		"foo.json": `{"name": "foo", "operations": []}`,
	})

	_, err := loader.ListRecipes()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collision detected")
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	testutils.SeedFiles(t, dir, map[string]string{"sparks.md": testutils.SparksRecipe})

	loader, err := loamadapter.Open(dir)
	require.NoError(t, err)
	names, err := loader.ListRecipes()
	require.NoError(t, err)
	assert.Equal(t, []string{"sparks"}, names)
}

func TestLoader_Watch_ClosesOnCancel(t *testing.T) {
	_, repo := testutils.RecipeRepo(t, nil)
	loader := loamadapter.New(loam.NewTypedRepository[loamadapter.RecipeMetadata](repo))

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := loader.Watch(ctx)
	require.NoError(t, err)
	cancel()

	done := make(chan struct{})
	go func() {
		for range ch {
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("watch channel not closed after cancel")
	}
}
