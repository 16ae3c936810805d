package validator_test

import (
	"errors"
	"testing"

	"github.com/aretw0/vfxbridge/internal/validator"
	"github.com/aretw0/vfxbridge/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"Assets/VFX/Fire.vfx":        "Assets/VFX/Fire.vfx",
		"  Assets/VFX/Fire.vfx ":     "Assets/VFX/Fire.vfx",
		`Assets\VFX\Fire.vfx`:        "Assets/VFX/Fire.vfx",
		"Assets/./VFX//Fire.vfx":     "Assets/VFX/Fire.vfx",
		"Assets/Old/../VFX/Fire.vfx": "Assets/VFX/Fire.vfx",
	}
	for in, want := range cases {
		got, err := validator.NormalizePath(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestNormalizePath_Rejects(t *testing.T) {
	for _, in := range []string{"", "  ", "/etc/passwd", `C:\Assets\a.vfx`, "..", "../a.vfx", "Assets/../../a.vfx"} {
		_, err := validator.NormalizePath(in)
		assert.ErrorIs(t, err, domain.ErrValidation, "%q", in)
	}
}

func TestRequired(t *testing.T) {
	params := map[string]any{"path": "a.vfx", "type": " ", "nodeId": nil, "capacity": 0}
	assert.NoError(t, validator.Required(params, "path", "capacity"))

	err := validator.Required(params, "path", "type", "nodeId", "name")
	require.ErrorIs(t, err, domain.ErrValidation)

	var ae *domain.ActionError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "Missing required parameters: name, nodeId, type", ae.Message)
	assert.Equal(t, map[string]any{"missing": []string{"name", "nodeId", "type"}}, ae.Details)
}
