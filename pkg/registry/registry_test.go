package registry_test

import (
	"context"
	"testing"

	"github.com/aretw0/vfxbridge/pkg/domain"
	"github.com/aretw0/vfxbridge/pkg/registry"
	"github.com/stretchr/testify/assert"
)

func TestRegistry(t *testing.T) {
	r := registry.NewRegistry()
	r.Register("remove_node", func(ctx context.Context, params map[string]any) domain.Result {
		return domain.OK("removed", params["nodeId"])
	})
	r.Alias("delete_node", "remove_node")

	res := r.Execute(context.Background(), "DELETE_NODE", map[string]any{"nodeId": 3})
	assert.True(t, res.Success)
	assert.Equal(t, 3, res.Data)

	name, _, ok := r.Resolve("delete_node")
	assert.True(t, ok)
	assert.Equal(t, "remove_node", name)

	res = r.Execute(context.Background(), "nope", nil)
	assert.Equal(t, domain.CodeUnknownAction, res.ErrorCode)

	res = r.Execute(context.Background(), "", nil)
	assert.Equal(t, domain.CodeMissingAction, res.ErrorCode)

	assert.Equal(t, []string{"remove_node"}, r.Names())
}
