package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/vfxbridge/pkg/adapters/memory"
	"github.com/aretw0/vfxbridge/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Contract(t *testing.T) {
	ports.RunAssetStoreContract(t, memory.NewStore())
}

func TestStore_Isolation(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()

	data := []byte(`{"a":1}`)
	require.NoError(t, s.Save(ctx, "x.vfx", data))
	data[2] = 'b'

	got, err := s.Load(ctx, "x.vfx")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(got))

	got[2] = 'c'
	again, _ := s.Load(ctx, "x.vfx")
	assert.Equal(t, `{"a":1}`, string(again))
}
