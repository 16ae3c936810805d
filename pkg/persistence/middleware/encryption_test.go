package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"testing"

	"github.com/aretw0/vfxbridge/pkg/adapters/memory"
	"github.com/aretw0/vfxbridge/pkg/persistence/middleware"
	"github.com/aretw0/vfxbridge/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const assetPath = "Assets/VFX/Secret.vfx"

func generateKey(t *testing.T) []byte {
	k := make([]byte, middleware.KeySize)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func encrypted(t *testing.T, next ports.AssetStore, cfg middleware.EncryptionConfig) ports.AssetStore {
	t.Helper()
	mw, err := middleware.NewEncryptionMiddleware(cfg)
	require.NoError(t, err)
	return middleware.Chain(next, mw)
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	ports.RunAssetStoreContract(t, encrypted(t, memory.NewStore(), middleware.EncryptionConfig{ActiveKey: generateKey(t)}))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewStore()
	secure := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ctx := context.Background()

	plain := []byte(`{"nodes":[{"type":"VFXBasicSpawner","name":"my-secret-sauce"}]}`)
	require.NoError(t, secure.Save(ctx, assetPath, plain))

	stored, err := underlying.Load(ctx, assetPath)
	require.NoError(t, err)
	assert.NotContains(t, string(stored), "my-secret-sauce")
	assert.Contains(t, string(stored), "__encrypted__")

	loaded, err := secure.Load(ctx, assetPath)
	require.NoError(t, err)
	assert.Equal(t, plain, loaded)

	paths, err := secure.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{assetPath}, paths)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewStore()
	oldKey, newKey := generateKey(t), generateKey(t)
	ctx := context.Background()

	oldStore := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: oldKey})
	require.NoError(t, oldStore.Save(ctx, assetPath, []byte(`{"v":"old"}`)))

	newStore := encrypted(t, underlying, middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})
	loaded, err := newStore.Load(ctx, assetPath)
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":"old"}`, string(loaded))

	require.NoError(t, newStore.Save(ctx, assetPath, []byte(`{"v":"new"}`)))
	_, err = oldStore.Load(ctx, assetPath)
	assert.Error(t, err, "the old key alone cannot read assets written with the new key")
}

func TestEncryptionMiddleware_RejectsPlainAssets(t *testing.T) {
	underlying := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, underlying.Save(ctx, assetPath, []byte(`{"format":1}`)))

	secure := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	_, err := secure.Load(ctx, assetPath)
	assert.ErrorContains(t, err, "missing encrypted data envelope")
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	assert.Error(t, err)

	_, err = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    generateKey(t),
		FallbackKeys: [][]byte{[]byte("short")},
	})
	assert.Error(t, err)
}
