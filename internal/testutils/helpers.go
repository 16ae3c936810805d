// Package testutils holds recipe fixtures shared by adapter and facade tests.
package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/stretchr/testify/require"

	loamadapter "github.com/aretw0/vfxbridge/pkg/adapters/loam"
)

// SparksRecipe is a one-operation markdown recipe named "sparks".
const SparksRecipe = `---
name: sparks
description: Sparks
operations:
  - op: add_node
    ref: spawn
    type: VFXBasicSpawner
---
Sparks from a spawner.`

// RecipeRepo initializes a Loam repository in a temp dir and seeds it with
// recipe files keyed by file name. It returns the absolute dir and the repo.
func RecipeRepo(t *testing.T, files map[string]string, opts ...loam.Option) (string, core.Repository) {
	t.Helper()

	// loam resolves ids against an absolute root.
	dir, err := filepath.Abs(t.TempDir())
	require.NoError(t, err, "Failed to get absolute path for temp dir")

	repo, err := loam.Init(dir, opts...)
	require.NoError(t, err, "Failed to init loam repo")

	SeedFiles(t, dir, files)
	return dir, repo
}

// RecipeLoader is RecipeRepo wrapped in the recipe loader adapter.
func RecipeLoader(t *testing.T, files map[string]string, opts ...loam.Option) (string, *loamadapter.Loader) {
	t.Helper()
	dir, repo := RecipeRepo(t, files, opts...)
	return dir, loamadapter.New(loam.NewTypedRepository[loamadapter.RecipeMetadata](repo))
}

// SeedFiles writes files below dir, creating parent directories.
func SeedFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}
