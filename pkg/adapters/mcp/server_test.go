package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aretw0/vfxbridge"
	"github.com/aretw0/vfxbridge/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const testPath = "Assets/VFX/Mcp.vfx"

func newServer(t *testing.T) *Server {
	t.Helper()
	b := vfxbridge.New(vfxbridge.WithFileRoot(t.TempDir()))
	require.NoError(t, b.CreateGraph(context.Background(), testPath))
	return NewServer(b)
}

func call(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func envelope(t *testing.T, out *mcp.CallToolResult) domain.Result {
	t.Helper()
	require.NotEmpty(t, out.Content)
	text, ok := out.Content[0].(mcp.TextContent)
	require.True(t, ok, "content is %T", out.Content[0])

	var res domain.Result
	require.NoError(t, json.Unmarshal([]byte(text.Text), &res), text.Text)
	return res
}

func TestGraphTool(t *testing.T) {
	s := newServer(t)

	out, err := s.handleGraph(context.Background(), call("vfx_graph", map[string]any{
		"action": "add_node",
		"params": `{"path":"` + testPath + `","type":"VFXBasicSpawner"}`,
	}))
	require.NoError(t, err)
	assert.False(t, out.IsError)
	res := envelope(t, out)
	assert.True(t, res.Success, res.Message)
	assert.NotZero(t, res.ID)

	out, err = s.handleGraph(context.Background(), call("vfx_graph", map[string]any{
		"action": "info",
		"params": map[string]any{"path": testPath},
	}))
	require.NoError(t, err)
	res = envelope(t, out)
	assert.EqualValues(t, 1, res.Data.(map[string]any)["nodeCount"])
}

func TestGraphTool_Failures(t *testing.T) {
	s := newServer(t)

	out, err := s.handleGraph(context.Background(), call("vfx_graph", map[string]any{"action": "frobnicate"}))
	require.NoError(t, err)
	assert.True(t, out.IsError)
	assert.Equal(t, domain.CodeUnknownAction, envelope(t, out).ErrorCode)

	out, err = s.handleGraph(context.Background(), call("vfx_graph", map[string]any{
		"action": "add_node",
		"params": `[1]`,
	}))
	require.NoError(t, err)
	assert.True(t, out.IsError)
}

func TestBatchTool(t *testing.T) {
	s := newServer(t)

	out, err := s.handleBatch(context.Background(), call("vfx_batch", map[string]any{
		"path": testPath,
		"operations": `[
			{"op":"add_node","ref":"spawn","type":"VFXBasicSpawner"},
			{"op":"add_node","ref":"init","type":"VFXBasicInitialize"},
			{"op":"link_contexts","fromContextId":"$spawn","toContextId":"$init"}
		]`,
	}))
	require.NoError(t, err)
	res := envelope(t, out)
	require.True(t, res.Success, res.Message)
	assert.Equal(t, "Batch complete: 3/3 operations succeeded", res.Message)

	out, err = s.handleBatch(context.Background(), call("vfx_batch", map[string]any{
		"path":       testPath,
		"operations": `not json`,
	}))
	require.NoError(t, err)
	assert.True(t, out.IsError)
}

func TestRecipeTool(t *testing.T) {
	s := newServer(t)

	out, err := s.handleRecipe(context.Background(), call("vfx_recipe", map[string]any{
		"path":   testPath,
		"recipe": "simple_spawn_particles",
		"args":   `{"capacity": 128}`,
	}))
	require.NoError(t, err)
	res := envelope(t, out)
	require.True(t, res.Success, res.Message)
	assert.EqualValues(t, 0, res.Data.(map[string]any)["failed"])
}

func TestDecodeObject(t *testing.T) {
	m, err := decodeObject(nil)
	require.NoError(t, err)
	assert.Empty(t, m)

	m, err = decodeObject(" ")
	require.NoError(t, err)
	assert.Empty(t, m)

	src := map[string]any{"a": 1}
	m, err = decodeObject(src)
	require.NoError(t, err)
	m["b"] = 2
	assert.NotContains(t, src, "b")

	_, err = decodeObject(3)
	assert.Error(t, err)
}

func TestResources(t *testing.T) {
	s := newServer(t)

	contents, err := jsonResource(ActionsURI, map[string]any{
		"actions": s.exec.Actions(),
		"aliases": s.exec.Aliases(),
	})
	require.NoError(t, err)
	text := contents[0].(mcp.TextResourceContents)
	assert.Equal(t, ActionsURI, text.URI)
	assert.Contains(t, text.Text, `"add_node"`)
	assert.Contains(t, text.Text, `"batch":"batch_execute"`)
}

func TestServeSSE_Shutdown(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	s := newServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ServeSSE(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("ServeSSE did not stop")
	}
}
