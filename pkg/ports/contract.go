package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/vfxbridge/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunAssetStoreContract verifies that an AssetStore implementation adheres
// to the interface contract.
func RunAssetStoreContract(t *testing.T, store AssetStore) {
	ctx := context.Background()
	path := "Assets/VFX/contract-" + time.Now().Format("20060102150405") + ".vfx"

	t.Run("Save and Load", func(t *testing.T) {
		data := []byte(`{"format":1}`)
		require.NoError(t, store.Save(ctx, path, data), "Save should not return error")

		loaded, err := store.Load(ctx, path)
		require.NoError(t, err, "Load should not return error")
		assert.JSONEq(t, string(data), string(loaded))
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, path, []byte(`{"format":2}`)))

		loaded, err := store.Load(ctx, path)
		require.NoError(t, err)
		assert.JSONEq(t, `{"format":2}`, string(loaded))
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, path+".missing")
		assert.ErrorIs(t, err, domain.ErrAssetNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, path, []byte(`{}`)))
		require.NoError(t, store.Delete(ctx, path), "Delete should not return error")

		_, err := store.Load(ctx, path)
		assert.ErrorIs(t, err, domain.ErrAssetNotFound, "Load after Delete should return ErrAssetNotFound")
		assert.NoError(t, store.Delete(ctx, path), "deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		p1 := path + "-1"
		p2 := path + "-2"
		_ = store.Save(ctx, p1, []byte(`{}`))
		_ = store.Save(ctx, p2, []byte(`{}`))
		defer func() {
			_ = store.Delete(ctx, p1)
			_ = store.Delete(ctx, p2)
		}()

		paths, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, paths, p1)
		assert.Contains(t, paths, p2)
		assert.IsNonDecreasing(t, paths)
	})
}
