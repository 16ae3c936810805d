package cli_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/vfxbridge/internal/cli"
	"github.com/aretw0/vfxbridge/internal/config"
	"github.com/aretw0/vfxbridge/internal/logging"
	"github.com/aretw0/vfxbridge/pkg/adapters/file"
	"github.com/aretw0/vfxbridge/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPath = "Assets/VFX/Cli.vfx"

func testConfig(t *testing.T, kind string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Store.Kind = kind
	cfg.Store.Dir = filepath.Join(t.TempDir(), "assets")
	cfg.Assets.Dir = t.TempDir()
	cfg.SQLite.DSN = ":memory:"
	return cfg
}

func TestNewRuntime_Stores(t *testing.T) {
	mr := miniredis.RunT(t)

	for _, kind := range []string{config.StoreMemory, config.StoreFile, config.StoreSQLite, config.StoreRedis} {
		t.Run(kind, func(t *testing.T) {
			cfg := testConfig(t, kind)
			cfg.Redis.Addr = mr.Addr()

			rt, err := cli.NewRuntime(cfg, logging.NewNop())
			require.NoError(t, err)
			defer func() { assert.NoError(t, rt.Close()) }()

			ctx := context.Background()
			require.NoError(t, rt.Bridge.CreateGraph(ctx, testPath))
			res := rt.Bridge.Execute(ctx, "add_node", map[string]any{"path": testPath, "type": "VFXBasicSpawner"})
			require.True(t, res.Success, res.Message)
		})
	}
}

func TestNewRuntime_FileStorePersists(t *testing.T) {
	cfg := testConfig(t, config.StoreFile)
	ctx := context.Background()

	rt, err := cli.NewRuntime(cfg, logging.NewNop())
	require.NoError(t, err)
	require.NoError(t, rt.Bridge.CreateGraph(ctx, testPath))
	res := rt.Bridge.Execute(ctx, "add_node", map[string]any{"path": testPath, "type": "Add"})
	require.True(t, res.Success, res.Message)

	again, err := cli.NewRuntime(cfg, logging.NewNop())
	require.NoError(t, err)
	res = again.Bridge.Execute(ctx, "info", map[string]any{"path": testPath})
	require.True(t, res.Success, res.Message)
	assert.Equal(t, 1, res.Data.(map[string]any)["nodeCount"])
}

func TestNewRuntime_EncryptedStore(t *testing.T) {
	cfg := testConfig(t, config.StoreFile)
	cfg.Store.EncryptionKey = base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))
	ctx := context.Background()

	rt, err := cli.NewRuntime(cfg, logging.NewNop())
	require.NoError(t, err)
	require.NoError(t, rt.Bridge.CreateGraph(ctx, testPath))
	res := rt.Bridge.Execute(ctx, "add_node", map[string]any{"path": testPath, "type": "VFXBasicSpawner"})
	require.True(t, res.Success, res.Message)

	raw, err := file.New(cfg.Store.Dir).Load(ctx, testPath)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "VFXBasicSpawner")

	cfg.Store.EncryptionKey = "not base64!"
	_, err = cli.NewRuntime(cfg, logging.NewNop())
	assert.ErrorContains(t, err, "store.encryption_key")
}

func TestNewRuntime_Recipes(t *testing.T) {
	cfg := testConfig(t, config.StoreMemory)
	cfg.Recipes.Dir = t.TempDir()
	recipe := "---\noperations:\n  - op: add_node\n    ref: spawn\n    type: VFXBasicSpawner\n---\n# One spawner\n"
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Recipes.Dir, "single.md"), []byte(recipe), 0o644))

	rt, err := cli.NewRuntime(cfg, logging.NewNop())
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, rt.Bridge.CreateGraph(ctx, testPath))

	res := rt.Bridge.Execute(ctx, "recipe", map[string]any{"path": testPath, "recipe": "single"})
	require.True(t, res.Success, res.Message)
	assert.Equal(t, "Batch complete: 1/1 operations succeeded", res.Message)
}

func TestPrintResult(t *testing.T) {
	res := domain.Created(7, "Added Add", nil)

	var buf bytes.Buffer
	require.NoError(t, cli.PrintResult(&buf, res, cli.FormatJSON, false))
	var back domain.Result
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, 7, back.ID)

	buf.Reset()
	require.NoError(t, cli.PrintResult(&buf, res, cli.FormatText, false))
	assert.Contains(t, buf.String(), "Added Add")
	assert.Contains(t, buf.String(), "**id:** 7")

	assert.Error(t, cli.PrintResult(&buf, res, "xml", false))
}

func TestCheck(t *testing.T) {
	assert.NoError(t, cli.Check(domain.OK("fine", nil)))

	err := cli.Check(domain.Fail(domain.CodeNotFound, "gone", nil))
	var failed cli.ErrActionFailed
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, domain.CodeNotFound, failed.Code)
}

func TestServe(t *testing.T) {
	cfg := testConfig(t, config.StoreMemory)
	rt, err := cli.NewRuntime(cfg, logging.NewNop())
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- cli.Serve(ctx, rt, cli.ServeOptions{Listener: ln}) }()

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "ok")

	resp, err = client.Get("http://" + ln.Addr().String() + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not stop")
	}
}
