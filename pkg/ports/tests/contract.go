package tests

import (
	"sort"
	"testing"

	"github.com/aretw0/vfxbridge/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RecipeLoaderContractTest verifies that an adapter complies with
// ports.RecipeLoader. setupData maps recipe names to the documents the
// loader was seeded with.
func RecipeLoaderContractTest(t *testing.T, loader ports.RecipeLoader, setupData map[string][]byte) {
	t.Helper()

	t.Run("GetRecipe_Success", func(t *testing.T) {
		for name, want := range setupData {
			got, err := loader.GetRecipe(name)
			require.NoError(t, err, "recipe %s", name)
			assert.JSONEq(t, string(want), string(got), "content mismatch for %s", name)
		}
	})

	t.Run("GetRecipe_NotFound", func(t *testing.T) {
		_, err := loader.GetRecipe("non-existent-recipe")
		assert.Error(t, err)
	})

	t.Run("ListRecipes", func(t *testing.T) {
		names, err := loader.ListRecipes()
		require.NoError(t, err)

		want := make([]string, 0, len(setupData))
		for name := range setupData {
			want = append(want, name)
		}
		sort.Strings(want)
		sort.Strings(names)
		assert.Equal(t, want, names)
	})
}
