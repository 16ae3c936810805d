package watch_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/vfxbridge/internal/watch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func start(t *testing.T, dir string) (<-chan []string, func()) {
	t.Helper()
	changes := make(chan []string, 16)
	w, err := watch.New(dir, func(files []string) { changes <- files }, watch.WithDebounce(50*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	return changes, func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("Run did not return after cancel")
		}
	}
}

func TestWatcher_ReportsChanges(t *testing.T) {
	defer goleak.VerifyNone(t)
	dir := t.TempDir()
	changes, stop := start(t, dir)
	defer stop()

	path := filepath.Join(dir, "Fire.vfx")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))

	select {
	case files := <-changes:
		assert.Contains(t, files, path)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}

func TestWatcher_Debounces(t *testing.T) {
	defer goleak.VerifyNone(t)
	dir := t.TempDir()
	changes, stop := start(t, dir)
	defer stop()

	for _, name := range []string{"a.vfx", "b.vfx", "c.vfx"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0644))
	}

	var seen []string
	deadline := time.After(5 * time.Second)
	for len(dedupe(seen)) < 3 {
		select {
		case files := <-changes:
			seen = append(seen, files...)
		case <-deadline:
			t.Fatalf("only saw %v", seen)
		}
	}
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "a.vfx"), filepath.Join(dir, "b.vfx"), filepath.Join(dir, "c.vfx"),
	}, dedupe(seen))
}

func TestWatcher_IgnoresHiddenFiles(t *testing.T) {
	defer goleak.VerifyNone(t)
	dir := t.TempDir()
	changes, stop := start(t, dir)
	defer stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".tmp-a.vfx-123"), []byte("{}"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.vfx"), []byte("{}"), 0644))

	select {
	case files := <-changes:
		assert.Equal(t, []string{filepath.Join(dir, "b.vfx")}, files)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}

func dedupe(in []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
