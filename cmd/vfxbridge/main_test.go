package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/vfxbridge/internal/cli"
	"github.com/aretw0/vfxbridge/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPath = "Assets/VFX/Cmd.vfx"

// project writes a config using a file store under a temp dir.
func project(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfg := "log:\n  level: error\nstore:\n  kind: file\n  dir: " + filepath.ToSlash(filepath.Join(dir, "store")) +
		"\nassets:\n  dir: " + filepath.ToSlash(filepath.Join(dir, "Assets")) + "\n"
	path := filepath.Join(dir, "vfxbridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func runJSON(t *testing.T, args ...string) (domain.Result, error) {
	t.Helper()
	out, err := run(t, append(args, "-o", "json")...)
	var res domain.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res), out)
	return res, err
}

func TestCLI_NewExecInspect(t *testing.T) {
	cfg := project(t)

	out, err := run(t, "new", testPath, "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "Created "+testPath)

	res, err := runJSON(t, "exec", "add_node", "--config", cfg, "--path", testPath, "--params", `{"type":"VFXBasicSpawner"}`)
	require.NoError(t, err)
	assert.True(t, res.Success, res.Message)

	res, err = runJSON(t, "inspect", testPath, "--config", cfg)
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Data.(map[string]any)["nodeCount"])

	out, err = run(t, "inspect", testPath, "--mermaid", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "graph TD")
	assert.Contains(t, out, "VFXBasicSpawner")
}

func TestCLI_ExecFailure(t *testing.T) {
	cfg := project(t)

	res, err := runJSON(t, "exec", "add_node", "--config", cfg, "--path", "Assets/VFX/Missing.vfx", "--params", `{"type":"Add"}`)
	var failed cli.ErrActionFailed
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, domain.CodeAssetNotFound, res.ErrorCode)

	_, err = run(t, "exec", "add_node", "--config", cfg, "--params", `[1]`)
	assert.ErrorContains(t, err, "--params must be a JSON object")
}

func TestCLI_BatchAndRecipe(t *testing.T) {
	cfg := project(t)
	_, err := run(t, "new", testPath, "--config", cfg)
	require.NoError(t, err)

	file := filepath.Join(t.TempDir(), "fire.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
path: `+testPath+`
operations:
  - op: add_node
    ref: spawn
    type: VFXBasicSpawner
  - op: add_node
    ref: init
    type: VFXBasicInitialize
  - op: link_contexts
    fromContextId: $spawn
    toContextId: $init
`), 0o644))

	res, err := runJSON(t, "batch", file, "--config", cfg)
	require.NoError(t, err)
	assert.Equal(t, "Batch complete: 3/3 operations succeeded", res.Message)

	res, err = runJSON(t, "recipe", "gpu_event_chain", "--config", cfg, "--path", testPath)
	require.NoError(t, err)
	assert.True(t, res.Success, res.Message)

	res, err = runJSON(t, "recipe", "--config", cfg)
	require.NoError(t, err)
	assert.Equal(t, "Found 4 recipes", res.Message)
}

func TestCLI_ActionsAndVersion(t *testing.T) {
	out, err := run(t, "actions")
	require.NoError(t, err)
	assert.Contains(t, out, "add_node\n")
	assert.Contains(t, out, "batch -> batch_execute\n")

	out, err = run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "vfxbridge version")
	assert.Contains(t, out, domain.Version)
}

func TestCLI_BadConfig(t *testing.T) {
	_, err := run(t, "new", testPath, "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
