package batch_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/aretw0/vfxbridge/pkg/adapters/memory"
	"github.com/aretw0/vfxbridge/pkg/batch"
	"github.com/aretw0/vfxbridge/pkg/domain"
	"github.com/aretw0/vfxbridge/pkg/dsl"
	"github.com/aretw0/vfxbridge/pkg/graph"
	"github.com/aretw0/vfxbridge/pkg/ops"
	"github.com/aretw0/vfxbridge/pkg/registry"
	"github.com/aretw0/vfxbridge/pkg/resolve"
	"github.com/aretw0/vfxbridge/pkg/vfxsim"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPath = "Assets/VFX/Batch.vfx"

// countingStore counts saves.
type countingStore struct {
	*memory.Store
	saves atomic.Int32
}

func (s *countingStore) Save(ctx context.Context, path string, data []byte) error {
	s.saves.Add(1)
	return s.Store.Save(ctx, path, data)
}

type fixture struct {
	store  *countingStore
	ed     *vfxsim.Editor
	eng    *ops.Engine
	runner *batch.Runner
	reg    *registry.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := &countingStore{Store: memory.NewStore()}
	ed := vfxsim.New(store)
	_, err := ed.CreateGraph(context.Background(), testPath)
	require.NoError(t, err)
	eng := ops.New(ed, graph.New(resolve.New(ed)), ops.WithFileRoot(t.TempDir()))
	runner := batch.NewRunner(eng)
	reg := registry.NewRegistry()
	eng.Register(reg)
	batch.Register(reg, runner, batch.NewLibrary(dsl.Recipes()...))
	return &fixture{store: store, ed: ed, eng: eng, runner: runner, reg: reg}
}

func TestDecode_WireForm(t *testing.T) {
	op, err := batch.Decode(map[string]any{
		"action":        "link_contexts",
		"ref":           "$link",
		"fromContextId": "$Spawn",
		"toContextId":   12,
		"name":          "$notARef",
	})
	require.NoError(t, err)

	assert.Equal(t, "link_contexts", op.Op)
	assert.Equal(t, "link", op.Ref)
	from, _ := op.Param("fromContextId")
	assert.Equal(t, batch.Ref{Name: "Spawn"}, from)
	to, _ := op.Param("toContextId")
	assert.Equal(t, batch.Literal{V: 12}, to)
	name, _ := op.Param("name")
	assert.Equal(t, batch.Literal{V: "$notARef"}, name, "only ref-bearing keys carry refs")

	want := map[string]any{
		"op":            "link_contexts",
		"ref":           "$link",
		"fromContextId": "$Spawn",
		"toContextId":   12,
		"name":          "$notARef",
	}
	if diff := cmp.Diff(want, op.Wire()); diff != "" {
		t.Errorf("Wire() mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeAll_Rejects(t *testing.T) {
	_, err := batch.DecodeAll("nope")
	assert.Error(t, err)
	_, err = batch.DecodeAll([]any{map[string]any{"op": "add_node"}, 3})
	assert.ErrorContains(t, err, "operation 1")
}

func TestParseFile(t *testing.T) {
	yml := []byte(`
path: Assets/VFX/Batch.vfx
operations:
  - op: add_node
    ref: spawn
    type: VFXBasicSpawner
    position: [-600, 0]
  - op: set_capacity
    contextRef: $spawn
    capacity: 10
`)
	f, err := batch.ParseFile(yml, ".yaml")
	require.NoError(t, err)
	assert.Equal(t, testPath, f.Path)
	require.Len(t, f.Operations, 2)
	assert.Equal(t, "spawn", f.Operations[0].Ref)
	ref, _ := f.Operations[1].Param("contextRef")
	assert.Equal(t, batch.Ref{Name: "spawn"}, ref)

	js := []byte(`{"path":"a.vfx","operations":[{"op":"add_node","ref":"x","type":"Add"}]}`)
	f, err = batch.ParseFile(js, ".JSON")
	require.NoError(t, err)
	assert.Equal(t, "a.vfx", f.Path)
	assert.Equal(t, "add_node", f.Operations[0].Op)
}

func TestRun_RefsAndPartialFailure(t *testing.T) {
	f := newFixture(t)
	b := dsl.New()
	b.Node("spawn", "VFXBasicSpawner").At(-600, 0)
	b.Node("init", "VFXBasicInitialize").At(-200, 0)
	b.Node("bogus", "NoSuchNode")
	b.Link("SPAWN", "init")
	b.Capacity("bogus", 10)
	b.Op("set_capacity").Ref("contextRef", "init").Set("capacity", 5000)

	rep, err := f.runner.Run(context.Background(), testPath, b.Build())
	require.NoError(t, err)

	assert.Equal(t, 6, rep.TotalOperations)
	assert.Equal(t, 4, rep.Succeeded)
	assert.Equal(t, 2, rep.Failed)
	assert.Equal(t, "Batch complete: 4/6 operations succeeded", rep.Message())

	assert.Contains(t, rep.Refs, "spawn")
	assert.Contains(t, rep.Refs, "init")
	assert.NotContains(t, rep.Refs, "bogus", "failed operations bind nothing")

	assert.False(t, rep.Results[2].Success)
	assert.Equal(t, 2, rep.Results[2].Index)
	assert.True(t, rep.Results[3].Success, rep.Results[3].Message)

	unresolved := rep.Results[4]
	assert.False(t, unresolved.Success)
	assert.Equal(t, domain.CodeValidation, unresolved.ErrorCode)
	assert.Equal(t, "unresolved reference $bogus", unresolved.Message)

	assert.True(t, rep.Results[5].Success, rep.Results[5].Message)
	assert.Equal(t, rep.Refs["init"], rep.Results[1].ID)
}

func TestRun_RefAliasOverridesExplicitID(t *testing.T) {
	f := newFixture(t)
	b := dsl.New()
	b.Node("init", "VFXBasicInitialize")
	b.Op("set_capacity").Ref("contextRef", "init").Set("contextId", 999999).Set("capacity", 700)
	b.Op("set_capacity").Set("contextRef", 999999).Ref("contextId", "init").Set("capacity", 900)

	rep, err := f.runner.Run(context.Background(), testPath, b.Build())
	require.NoError(t, err)
	require.Zero(t, rep.Failed, "the reference picked the init context over id 999999")

	a, err := f.ed.OpenGraph(context.Background(), testPath)
	require.NoError(t, err)
	initCtx := f.eng.Adapter().Find(a.Root(), rep.Refs["init"]).(*vfxsim.BasicInitialize)
	assert.EqualValues(t, 900, initCtx.Data().Capacity(), "a literal alias leaves the explicit id alone")
}

func TestRun_SavesOnce(t *testing.T) {
	f := newFixture(t)
	before := f.store.saves.Load()

	b := dsl.New()
	b.Node("spawn", "VFXBasicSpawner")
	b.Node("init", "VFXBasicInitialize")
	b.Node("update", "VFXBasicUpdate")
	b.Chain("spawn", "init", "update")
	b.Block("spawn", "ConstantSpawnRate")

	rep, err := f.runner.Run(context.Background(), testPath, b.Build())
	require.NoError(t, err)
	assert.Zero(t, rep.Failed)
	assert.Equal(t, before+1, f.store.saves.Load())

	a, err := f.ed.OpenGraph(context.Background(), testPath)
	require.NoError(t, err)
	assert.Len(t, f.eng.Adapter().Children(a.Root()), 3)
}

func TestRun_Validation(t *testing.T) {
	f := newFixture(t)
	_, err := f.runner.Run(context.Background(), testPath, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.runner.Run(context.Background(), "Assets/VFX/Missing.vfx",
		dsl.New().Node("x", "Add").Then().Build())
	assert.ErrorIs(t, err, domain.ErrAssetNotFound)
}

func TestRun_MissingOp(t *testing.T) {
	f := newFixture(t)
	rep, err := f.runner.Run(context.Background(), testPath, []batch.Operation{{Params: map[string]batch.Value{}}})
	require.NoError(t, err)
	assert.Equal(t, domain.CodeMissingAction, rep.Results[0].ErrorCode)
}

func TestExecuteAction_WireOperations(t *testing.T) {
	f := newFixture(t)
	res := f.reg.Execute(context.Background(), "batch", map[string]any{
		"path": testPath,
		"operations": []any{
			map[string]any{"op": "add_node", "ref": "a", "type": "Add"},
			map[string]any{"op": "add_node", "ref": "$b", "type": "Add"},
			map[string]any{"op": "connect_nodes", "fromNodeId": "$a", "toNodeId": "$b", "fromSlot": "0", "toSlot": "a"},
		},
	})
	require.True(t, res.Success, res.Message)
	rep, ok := res.Data.(batch.Report)
	require.True(t, ok, "data is %T", res.Data)
	assert.Equal(t, 3, rep.Succeeded, "%+v", rep.Results)

	res = f.reg.Execute(context.Background(), "batch_execute", map[string]any{"path": testPath})
	assert.False(t, res.Success)
	assert.Equal(t, domain.CodeValidation, res.ErrorCode)
	assert.Equal(t, "path and operations array are required", res.Message)
}

func TestRecipes_Builtin(t *testing.T) {
	for _, name := range []string{"simple_spawn_particles", "ecs_buffer_particles", "gpu_event_chain", "particle_strip_trail"} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			res := f.reg.Execute(context.Background(), "recipe", map[string]any{
				"path":     testPath,
				"recipe":   name,
				"capacity": "2048",
			})
			require.True(t, res.Success, res.Message)
			rep := res.Data.(batch.Report)
			assert.Zero(t, rep.Failed, "%+v", rep.Results)
			assert.Contains(t, rep.Refs, "spawn")
			assert.Contains(t, rep.Refs, "output")
		})
	}
}

func TestRecipes_Unknown(t *testing.T) {
	f := newFixture(t)
	res := f.reg.Execute(context.Background(), "create_from_recipe", map[string]any{"path": testPath, "recipe": "nope"})
	assert.False(t, res.Success)
	assert.Equal(t, domain.CodeNotFound, res.ErrorCode)
	assert.Equal(t, "Unknown recipe 'nope'", res.Message)
	details := res.Details.(map[string]any)
	assert.Equal(t, []string{"ecs_buffer_particles", "gpu_event_chain", "particle_strip_trail", "simple_spawn_particles"},
		details["available"])
}
