package graph_test

import (
	"reflect"
	"testing"

	"github.com/aretw0/vfxbridge/pkg/graph"
	"github.com/aretw0/vfxbridge/pkg/host"
	"github.com/aretw0/vfxbridge/pkg/vfxsim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerce(t *testing.T) {
	tests := []struct {
		name string
		in   any
		to   any
		want any
	}{
		{"float from int", 3, float32(0), float32(3)},
		{"float from string", "2.5", float32(0), float32(2.5)},
		{"uint from float", 12.0, uint32(0), uint32(12)},
		{"int from uint", uint(5), 0, 5},
		{"int from integral float", 7.0, 0, 7},
		{"int8 from int16", int16(-100), int8(0), int8(-100)},
		{"uint8 from uint16", uint16(200), uint8(0), uint8(200)},
		{"int64 keeps precision", int64(1<<60 + 1), int64(0), int64(1<<60 + 1)},
		{"int32 from string", " 42 ", int32(0), int32(42)},
		{"float from int8", int8(3), float64(0), 3.0},
		{"bool from string", "true", false, true},
		{"bool from number", 0.0, false, false},
		{"vector3 from list", []any{1.0, 2.0, 3.0}, host.Vector3{}, host.Vector3{X: 1, Y: 2, Z: 3}},
		{"vector2 from object", map[string]any{"x": 1.0, "y": -1.0}, host.Vector2{}, host.Vector2{X: 1, Y: -1}},
		{"color defaults alpha", []any{1.0, 0.5, 0.0}, host.Color{}, host.Color{R: 1, G: 0.5, A: 1}},
		{"color from hex", "#ff0000", host.Color{}, host.Color{R: 1, A: 1}},
		{"enum by name", "uniform", vfxsim.RandomOff, vfxsim.RandomUniform},
		{"enum by integer", 2.0, vfxsim.CompositionOverwrite, vfxsim.CompositionMultiply},
		{"enum by integer string", "1", vfxsim.SpaceLocal, vfxsim.SpaceWorld},
		{"serializable from object", map[string]any{"typeName": "Vector3"}, host.SerializableType{}, host.SerializableType{Name: "Vector3"}},
		{"struct by weak decode", map[string]any{"name": "Noise"}, vfxsim.Texture2D{}, vfxsim.Texture2D{Name: "Noise"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := graph.Coerce(tt.in, reflect.TypeOf(tt.to))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCoerce_Failures(t *testing.T) {
	for name, tc := range map[string]struct {
		in any
		to any
	}{
		"short vector":      {[]any{1.0}, host.Vector3{}},
		"negative uint":     {-1.0, uint32(0)},
		"unknown enum name": {"Sideways", vfxsim.SpaceLocal},
		"enum out of range": {9.0, vfxsim.SpaceLocal},
		"not a number":      {"abc", float32(0)},
		"fraction to int":   {2.7, 0},
		"fraction string":   {"2.5", int32(0)},
		"int8 overflow":     {300.0, int8(0)},
		"int64 overflow":    {1e20, 0},
		"uint8 overflow":    {uint16(256), uint8(0)},
		"negative int":      {-3, uint(0)},
		"fractional enum":   {1.5, vfxsim.SpaceLocal},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := graph.Coerce(tc.in, reflect.TypeOf(tc.to))
			assert.Error(t, err)
		})
	}
}

func TestValueTypeName(t *testing.T) {
	assert.Equal(t, "float", graph.ValueTypeName(reflect.TypeOf(float32(0))))
	assert.Equal(t, "uint", graph.ValueTypeName(reflect.TypeOf(uint32(0))))
	assert.Equal(t, "Vector3", graph.ValueTypeName(reflect.TypeOf(host.Vector3{})))
	assert.Equal(t, "GraphicsBuffer", graph.ValueTypeName(reflect.TypeOf(vfxsim.GraphicsBuffer{})))
}
