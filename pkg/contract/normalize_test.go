package contract_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aretw0/vfxbridge/pkg/contract"
	"github.com/aretw0/vfxbridge/pkg/domain"
	"github.com/aretw0/vfxbridge/pkg/host"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		msg  string
		want domain.ErrorCode
	}{
		{"Path and nodeId are required", domain.CodeValidation},
		{"Asset not found: Assets/x.vfx", domain.CodeAssetNotFound},
		{"Node not found", domain.CodeNotFound},
		{"Created asset successfully", domain.CodeUnknown},
		{"reflection failure on VFXSlot", domain.CodeResolution},
		{"boom", domain.CodeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.Equal(t, tt.want, contract.Classify(tt.msg))
		})
	}
}

func TestNormalize_Nil(t *testing.T) {
	res := contract.Normalize(nil, "add_node")
	assert.False(t, res.Success)
	assert.Equal(t, domain.CodeUnknown, res.ErrorCode)
	assert.Equal(t, "Action 'add_node' returned no result.", res.Message)
}

func TestNormalize_LegacyMap(t *testing.T) {
	t.Run("explicit code is preserved", func(t *testing.T) {
		res := contract.Normalize(map[string]any{
			"success":    false,
			"message":    "Node not found",
			"error_code": "resolution_error",
		}, "remove_node")
		assert.Equal(t, domain.CodeResolution, res.ErrorCode)
	})

	t.Run("missing code is inferred", func(t *testing.T) {
		res := contract.Normalize(map[string]any{"success": false, "message": "Node 12 not found"}, "remove_node")
		assert.Equal(t, domain.CodeNotFound, res.ErrorCode)
		details := res.Details.(map[string]any)
		assert.Equal(t, "remove_node", details["action"])
	})

	t.Run("success folds loose fields into data", func(t *testing.T) {
		res := contract.Normalize(map[string]any{"success": true, "message": "Added", "nodeId": 4}, "add_node")
		assert.True(t, res.Success)
		assert.Equal(t, "Added", res.Message)
		assert.Equal(t, map[string]any{"nodeId": 4}, res.Data)
		assert.Equal(t, domain.Version, res.Version)
	})

	t.Run("failure without message", func(t *testing.T) {
		res := contract.Normalize(map[string]any{"success": false}, "remove_node")
		assert.False(t, res.Success)
		assert.Equal(t, "Operation failed", res.Message)
	})

	t.Run("id decoded from JSON", func(t *testing.T) {
		res := contract.Normalize(map[string]any{"success": true, "id": float64(42)}, "add_node")
		assert.Equal(t, 42, res.ID)

		res = contract.Normalize(map[string]any{"success": true, "id": 7}, "add_node")
		assert.Equal(t, 7, res.ID)

		res = contract.Normalize(map[string]any{"success": true, "id": 1.5}, "add_node")
		assert.Zero(t, res.ID)
	})

	t.Run("success without message", func(t *testing.T) {
		res := contract.Normalize(map[string]any{"success": true, "data": 1}, "x")
		assert.Equal(t, "OK", res.Message)
		assert.Equal(t, 1, res.Data)
	})
}

func TestNormalize_Errors(t *testing.T) {
	ae := domain.Errorf(domain.CodeValidation, "name is required").WithDetails(map[string]any{"field": "name"})
	res := contract.Normalize(fmt.Errorf("wrapped: %w", ae), "add_property")
	assert.Equal(t, domain.CodeValidation, res.ErrorCode)
	assert.Equal(t, "name is required", res.Message)

	res = contract.Normalize(&host.InvocationError{Method: "LinkTo", Panic: "bad flow"}, "link_contexts")
	assert.Equal(t, domain.CodeInternalException, res.ErrorCode)

	res = contract.Normalize(fmt.Errorf("open x: %w", domain.ErrAssetNotFound), "save_graph")
	assert.Equal(t, domain.CodeAssetNotFound, res.ErrorCode)

	res = contract.Normalize(errors.New("something odd"), "x")
	assert.Equal(t, domain.CodeUnknown, res.ErrorCode)
}

func TestNormalize_Result(t *testing.T) {
	res := contract.Normalize(domain.Result{Success: false, Message: "Block 3 not found"}, "remove_block")
	assert.Equal(t, domain.CodeNotFound, res.ErrorCode)
	assert.Equal(t, domain.Version, res.Version)

	ok := domain.Created(7, "Added X", nil)
	assert.Equal(t, ok, contract.Normalize(ok, "add_node"))
}
