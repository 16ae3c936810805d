package vfxsim

import "github.com/aretw0/vfxbridge/pkg/host"

// attributeDefaults holds the value type (through its default) of every
// built-in particle attribute.
var attributeDefaults = map[string]any{
	"position":               host.Vector3{},
	"velocity":               host.Vector3{},
	"age":                    float32(0),
	"lifetime":               float32(0),
	"alive":                  true,
	"size":                   float32(0.1),
	"mass":                   float32(1),
	"direction":              host.Vector3{Z: 1},
	"angle":                  host.Vector3{},
	"angularVelocity":        host.Vector3{},
	"oldPosition":            host.Vector3{},
	"targetPosition":         host.Vector3{},
	"color":                  host.Vector3{X: 1, Y: 1, Z: 1},
	"alpha":                  float32(1),
	"scale":                  host.Vector3{X: 1, Y: 1, Z: 1},
	"pivot":                  host.Vector3{},
	"texIndex":               float32(0),
	"axisX":                  host.Vector3{X: 1},
	"axisY":                  host.Vector3{Y: 1},
	"axisZ":                  host.Vector3{Z: 1},
	"stripProgress":          float32(0),
	"particleId":             uint32(0),
	"seed":                   uint32(0),
	"spawnCount":             float32(0),
	"spawnTime":              float32(0),
	"spawnIndex":             uint32(0),
	"particleIndexInStrip":   uint32(0),
	"particleCountInStrip":   uint32(0),
	"stripIndex":             uint32(0),
	"collisionEventCount":    uint32(0),
	"collisionEventNormal":   host.Vector3{},
	"collisionEventPosition": host.Vector3{},
	"hasCollisionEvent":      false,
}

// customAttributeDefaults maps custom attribute type names to zero values.
var customAttributeDefaults = map[string]any{
	"float":   float32(0),
	"int":     int32(0),
	"uint":    uint32(0),
	"bool":    false,
	"vector2": host.Vector2{},
	"vector3": host.Vector3{},
	"vector4": host.Vector4{},
}

func attributeDefault(_ *library, g *Graph, name string) any {
	if v, ok := attributeDefaults[name]; ok {
		return v
	}
	if g != nil {
		for _, ca := range g.CustomAttributes {
			if ca.Name == name {
				if v, ok := customAttributeDefaults[lower(ca.Type)]; ok {
					return v
				}
			}
		}
	}
	return float32(0)
}
