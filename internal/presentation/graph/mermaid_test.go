package graph_test

import (
	"context"
	"strings"
	"testing"

	"github.com/aretw0/vfxbridge/internal/presentation/graph"
	"github.com/aretw0/vfxbridge/pkg/adapters/memory"
	pgraph "github.com/aretw0/vfxbridge/pkg/graph"
	"github.com/aretw0/vfxbridge/pkg/ops"
	"github.com/aretw0/vfxbridge/pkg/resolve"
	"github.com/aretw0/vfxbridge/pkg/vfxsim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		view     graph.View
		contains []string
	}{
		{
			name: "Context Shape And Blocks",
			view: graph.View{Nodes: []graph.Node{
				{ID: 1, Type: "VFXBasicSpawner", Name: "Spawn", Kind: graph.KindContext, Blocks: []string{"VFXSpawnerConstantRate"}},
			}},
			contains: []string{
				`n1["Spawn <br/> <i>VFXBasicSpawner</i> <br/> • VFXSpawnerConstantRate"]`,
				"class n1 context;",
			},
		},
		{
			name: "Operator Shape",
			view: graph.View{Nodes: []graph.Node{{ID: 2, Type: "Add", Name: "Add", Kind: graph.KindOperator}}},
			contains: []string{
				`n2(["Add"])`,
			},
		},
		{
			name: "Parameter Shape",
			view: graph.View{Nodes: []graph.Node{{ID: 3, Type: "VFXParameter", Name: "Speed", Kind: graph.KindParameter}}},
			contains: []string{
				`n3[/"Speed <br/> <i>VFXParameter</i>"/]`,
				"class n3 parameter;",
			},
		},
		{
			name: "Links",
			view: graph.View{
				Flow: []graph.FlowEdge{{From: 1, To: 4}},
				Data: []ops.Connection{{FromNodeID: 2, FromSlot: "o", ToNodeID: 5, ToSlot: "a"}},
			},
			contains: []string{
				"n1 ==> n4",
				`n2 -. "o → a" .-> n5`,
			},
		},
		{
			name: "Quotes Escaped",
			view: graph.View{Nodes: []graph.Node{{ID: 6, Type: "Add", Name: `say "hi"`, Kind: graph.KindOperator}}},
			contains: []string{
				`say 'hi'`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(tt.view)
			assert.True(t, strings.HasPrefix(got, "graph TD\n"))
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
		})
	}
}

func TestCapture(t *testing.T) {
	ctx := context.Background()
	ed := vfxsim.New(memory.NewStore())
	a, err := ed.CreateGraph(ctx, "Assets/VFX/M.vfx")
	require.NoError(t, err)
	eng := ops.New(ed, pgraph.New(resolve.New(ed)), ops.WithFileRoot(t.TempDir()))

	exec := func(action string, params map[string]any) int {
		params["path"] = "Assets/VFX/M.vfx"
		res := eng.Execute(ctx, action, params)
		require.True(t, res.Success, res.Message)
		return res.ID
	}
	spawn := exec("add_node", map[string]any{"type": "VFXBasicSpawner"})
	initCtx := exec("add_node", map[string]any{"type": "VFXBasicInitialize"})
	exec("link_contexts", map[string]any{"fromContextId": spawn, "toContextId": initCtx})
	exec("add_block", map[string]any{"contextId": spawn, "blockType": "ConstantSpawnRate"})
	exec("add_node", map[string]any{"type": "Add"})

	v := graph.Capture(eng, a.Root())
	require.Len(t, v.Nodes, 3)
	assert.Equal(t, graph.KindContext, v.Nodes[0].Kind)
	assert.Equal(t, []string{"VFXSpawnerConstantRate"}, v.Nodes[0].Blocks)
	assert.Equal(t, graph.KindOperator, v.Nodes[2].Kind)
	assert.Equal(t, []graph.FlowEdge{{From: spawn, To: initCtx}}, v.Flow)
}
