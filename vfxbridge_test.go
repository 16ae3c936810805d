package vfxbridge_test

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/vfxbridge"
	"github.com/aretw0/vfxbridge/internal/logging"
	"github.com/aretw0/vfxbridge/internal/testutils"
	"github.com/aretw0/vfxbridge/pkg/adapters/memory"
	"github.com/aretw0/vfxbridge/pkg/batch"
	"github.com/aretw0/vfxbridge/pkg/domain"
	"github.com/aretw0/vfxbridge/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPath = "Assets/VFX/Bridge.vfx"

func newBridge(t *testing.T, opts ...vfxbridge.Option) *vfxbridge.Bridge {
	t.Helper()
	b := vfxbridge.New(append([]vfxbridge.Option{vfxbridge.WithFileRoot(t.TempDir())}, opts...)...)
	require.NoError(t, b.CreateGraph(context.Background(), testPath))
	return b
}

func TestExecute_AddNode(t *testing.T) {
	b := newBridge(t)
	res := b.Execute(context.Background(), "add_node", map[string]any{"path": testPath, "type": "VFXBasicSpawner"})
	require.True(t, res.Success, res.Message)
	assert.NotZero(t, res.ID)
	assert.Equal(t, domain.Version, res.Version)

	res = b.Execute(context.Background(), "info", map[string]any{"path": testPath})
	require.True(t, res.Success, res.Message)
	assert.Equal(t, 1, res.Data.(map[string]any)["nodeCount"])
}

func TestExecute_UnknownAndMissingAction(t *testing.T) {
	b := newBridge(t)
	res := b.Execute(context.Background(), "frobnicate", nil)
	assert.Equal(t, domain.CodeUnknownAction, res.ErrorCode)

	res = b.Execute(context.Background(), "", nil)
	assert.Equal(t, domain.CodeMissingAction, res.ErrorCode)
}

func TestExecute_NormalizesPath(t *testing.T) {
	b := newBridge(t)
	res := b.Execute(context.Background(), "add_node", map[string]any{
		"path": `Assets\VFX\Bridge.vfx`,
		"type": "Add",
	})
	require.True(t, res.Success, res.Message)

	res = b.Execute(context.Background(), "add_node", map[string]any{"path": "../Bridge.vfx", "type": "Add"})
	assert.False(t, res.Success)
	assert.Equal(t, domain.CodeValidation, res.ErrorCode)
}

func TestExecute_DoesNotMutateParams(t *testing.T) {
	b := newBridge(t)
	params := map[string]any{"path": " " + testPath, "type": "Add"}
	b.Execute(context.Background(), "add_node", params)
	assert.Equal(t, " "+testPath, params["path"])
}

func TestExecute_ConcurrentSamePath(t *testing.T) {
	b := newBridge(t)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := b.Execute(context.Background(), "add_node", map[string]any{"path": testPath, "type": "Add"})
			assert.True(t, res.Success, res.Message)
		}()
	}
	wg.Wait()

	res := b.Execute(context.Background(), "get_graph_info", map[string]any{"path": testPath})
	require.True(t, res.Success, res.Message)
	assert.Equal(t, 20, res.Data.(map[string]any)["nodeCount"])
}

func TestExecute_ConcurrentPaths(t *testing.T) {
	b := newBridge(t)
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		path := fmt.Sprintf("Assets/VFX/P%d.vfx", i)
		require.NoError(t, b.CreateGraph(context.Background(), path))
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				res := b.Execute(context.Background(), "add_node", map[string]any{"path": path, "type": "Add"})
				assert.True(t, res.Success, res.Message)
			}
		}()
	}
	wg.Wait()
}

func TestCreateGraph_Exists(t *testing.T) {
	b := newBridge(t)
	err := b.CreateGraph(context.Background(), testPath)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestReload_RescansTypes(t *testing.T) {
	b := newBridge(t)
	ctx := context.Background()
	require.True(t, b.Execute(ctx, "add_node", map[string]any{"path": testPath, "type": "Add"}).Success)
	require.True(t, b.Execute(ctx, "add_node", map[string]any{"path": testPath, "type": "Add"}).Success)
	scans := b.Cache().Stats().TypeScans

	b.Reload()
	assert.Equal(t, 1, b.Cache().Stats().Clears)

	res := b.Execute(ctx, "add_node", map[string]any{"path": testPath, "type": "Add"})
	require.True(t, res.Success, res.Message)
	assert.Greater(t, b.Cache().Stats().TypeScans, scans)

	res = b.Execute(ctx, "get_graph_info", map[string]any{"path": testPath})
	assert.Equal(t, 3, res.Data.(map[string]any)["nodeCount"], "graph reloaded from the store")
}

func TestReload_HookLookupsSeeNewGeneration(t *testing.T) {
	b := newBridge(t)
	ctx := context.Background()
	b.Editor().OnReload(func() {
		for _, name := range []string{"VFXContext", "VFXModel", "VFXBlock"} {
			assert.NotNil(t, b.Cache().Type(name))
		}
	})

	b.Reload()

	res := b.Execute(ctx, "add_node", map[string]any{"path": testPath, "type": "VFXBasicUpdate"})
	require.True(t, res.Success, res.Message)
}

func TestReload_DuringActions(t *testing.T) {
	b := newBridge(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				res := b.Execute(ctx, "add_node", map[string]any{"path": testPath, "type": "VFXBasicUpdate"})
				assert.True(t, res.Success, res.Message)
			}
		}()
	}
	for i := 0; i < 5; i++ {
		b.Reload()
	}
	wg.Wait()

	res := b.Execute(ctx, "get_graph_info", map[string]any{"path": testPath})
	require.True(t, res.Success, res.Message)
	assert.Equal(t, 40, res.Data.(map[string]any)["nodeCount"])
	assert.Equal(t, 6, b.Editor().Generation())
}

func TestExecute_BatchAndMetrics(t *testing.T) {
	m := observability.NewMetrics()
	b := newBridge(t, vfxbridge.WithMetrics(m))

	res := b.Execute(context.Background(), "recipe", map[string]any{"path": testPath, "recipe": "simple_spawn_particles"})
	require.True(t, res.Success, res.Message)
	rep := res.Data.(batch.Report)
	assert.Zero(t, rep.Failed)

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["vfxbridge_actions_total"])
	assert.True(t, names["vfxbridge_batch_operations_total"])
	assert.True(t, names["vfxbridge_resolve_type_scans_total"])
}

func TestExecute_Logging(t *testing.T) {
	var buf bytes.Buffer
	b := newBridge(t, vfxbridge.WithLogger(logging.NewWithWriter(&buf, slog.LevelDebug)))

	b.Execute(context.Background(), "add_node", map[string]any{"path": testPath, "type": "Nope"})
	out := buf.String()
	assert.Contains(t, out, "request_id=")
	assert.Contains(t, out, "error_code=not_found")
	assert.Contains(t, out, "action=add_node")
}

func TestWatchRecipes(t *testing.T) {
	loader := memory.NewLoader(map[string]string{"sparks": `
description: one
operations:
  - op: add_node
    type: Add
`})
	b := newBridge(t, vfxbridge.WithRecipeLoader(loader))
	r, ok := b.Recipes().Get("sparks")
	require.True(t, ok)
	assert.Equal(t, "one", r.Description)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.WatchRecipes(ctx) }()

	assert.Eventually(t, func() bool {
		loader.Set("sparks", `
description: two
operations:
  - op: add_node
    type: Add
`)
		r, _ := b.Recipes().Get("sparks")
		return r.Description == "two"
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestExecute_LoamRecipe(t *testing.T) {
	_, loader := testutils.RecipeLoader(t, map[string]string{"sparks.md": testutils.SparksRecipe})
	b := newBridge(t, vfxbridge.WithRecipeLoader(loader))

	res := b.Execute(context.Background(), "recipe", map[string]any{"path": testPath, "recipe": "sparks"})
	require.True(t, res.Success, res.Message)
	rep := res.Data.(batch.Report)
	assert.Zero(t, rep.Failed)

	res = b.Execute(context.Background(), "get_graph_info", map[string]any{"path": testPath})
	require.True(t, res.Success, res.Message)
	assert.Equal(t, 1, res.Data.(map[string]any)["nodeCount"])
}

func TestWatchRecipes_NotWatchable(t *testing.T) {
	b := newBridge(t)
	assert.ErrorIs(t, b.WatchRecipes(context.Background()), vfxbridge.ErrNotWatchable)
}
