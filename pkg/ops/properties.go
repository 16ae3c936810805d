package ops

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/aretw0/vfxbridge/pkg/domain"
	"github.com/aretw0/vfxbridge/pkg/graph"
	"github.com/aretw0/vfxbridge/pkg/host"
)

// propertyTypes maps accepted property type spellings to the canonical
// value type name.
var propertyTypes = map[string]string{
	"float":          "float",
	"int":            "int",
	"uint":           "uint",
	"bool":           "bool",
	"vector2":        "Vector2",
	"vector3":        "Vector3",
	"vector4":        "Vector4",
	"color":          "Color",
	"gradient":       "Gradient",
	"animationcurve": "AnimationCurve",
	"curve":          "AnimationCurve",
	"texture2d":      "Texture2D",
	"texture":        "Texture2D",
	"texture3d":      "Texture3D",
	"cubemap":        "Cubemap",
	"mesh":           "Mesh",
	"graphicsbuffer": "GraphicsBuffer",
	"buffer":         "GraphicsBuffer",
}

const supportedPropertyTypes = "float, int, uint, bool, Vector2, Vector3, Vector4, Color, Gradient, " +
	"AnimationCurve, Texture2D, Texture3D, Cubemap, Mesh, GraphicsBuffer"

// PropertyType returns the canonical name of a property type, ignoring case
// and accepting the short aliases curve, texture and buffer.
func PropertyType(name string) (string, bool) {
	t, ok := propertyTypes[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}

func (c *call) addProperty(p Params) (domain.Result, error) {
	a := struct {
		Path    string `mapstructure:"path"`
		Name    string `mapstructure:"name"`
		Type    string `mapstructure:"type"`
		Exposed bool   `mapstructure:"exposed"`
	}{Exposed: true}
	if err := Decode(p, &a); err != nil {
		return domain.Result{}, err
	}
	if blank(a.Path) || blank(a.Name) || blank(a.Type) {
		return domain.Result{}, required("Path, name, and type are required")
	}
	typeName, ok := PropertyType(a.Type)
	if !ok {
		return domain.Result{}, domain.Errorf(domain.CodeValidation,
			"Unknown property type '%s'. Supported: %s", a.Type, supportedPropertyTypes)
	}
	asset, err := c.open(a.Path)
	if err != nil {
		return domain.Result{}, err
	}
	t := c.graph.Cache().Type(graph.TypeParameter)
	if t == nil {
		return domain.Result{}, domain.Errorf(domain.CodeResolution, "VFXParameter type not found")
	}
	param, err := c.instantiate(t)
	if err != nil {
		return domain.Result{}, err
	}

	// The parameter is named and initialised before it joins the graph: the
	// consistency pass fails on a parameter without its output slot.
	if err := c.graph.Set(param, "exposedName", a.Name); err != nil {
		if ferr := c.graph.Set(param, "m_ExposedName", a.Name); ferr != nil {
			return domain.Result{}, internal(ferr, "Error adding property: %s", message(ferr))
		}
	}
	if err := c.graph.Set(param, "exposed", a.Exposed); err != nil {
		_ = c.graph.Set(param, "m_Exposed", a.Exposed)
	}
	if _, err := c.graph.Call(param, "Init", host.SerializableType{Name: typeName}); err != nil {
		if errors.Is(err, domain.ErrResolution) {
			return domain.Result{}, domain.Errorf(domain.CodeResolution,
				"VFXParameter.Init method not found; cannot initialize parameter slots").Wrap(err)
		}
		return domain.Result{}, internal(err, "Error adding property: %s", message(err))
	}
	root := asset.Root()
	if err := c.addChild(root, param, -1); err != nil {
		return domain.Result{}, internal(err, "Error adding property: %s", message(err))
	}
	c.invalidate(root, CauseStructureChanged)

	data := map[string]any{"id": param.InstanceID(), "name": a.Name, "type": typeName, "exposed": a.Exposed}
	if v := p.Raw("value"); v != nil {
		if slot := c.propertySlot(param); slot != nil {
			if applied, err := c.setSlotValue(slot, v); err != nil {
				data["valueError"] = message(err)
			} else {
				data["value"] = applied
			}
		}
	}
	if err := c.persist(asset); err != nil {
		return domain.Result{}, err
	}
	kind := "internal"
	if a.Exposed {
		kind = "exposed"
	}
	return domain.Created(param.InstanceID(),
		fmt.Sprintf("Added %s property '%s' of type %s", kind, a.Name, typeName), data), nil
}

// propertySlot is the output slot carrying a parameter's value.
func (c *call) propertySlot(param host.Object) any {
	slots := c.graph.Slots(param, true)
	if len(slots) == 0 {
		return nil
	}
	return slots[0]
}

// Property describes one graph parameter.
type Property struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Exposed bool   `json:"exposed"`
	Value   any    `json:"value,omitempty"`
}

// Properties lists the parameters of the graph below root.
func (e *Engine) Properties(root host.Object) []Property {
	out := []Property{}
	for _, m := range e.graph.Models(root) {
		if !e.graph.IsA(m, graph.TypeParameter) {
			continue
		}
		prop := Property{ID: m.InstanceID()}
		if v, ok := e.graph.Get(m, "exposedName"); ok {
			prop.Name, _ = v.(string)
		}
		if v, ok := e.graph.Get(m, "exposed"); ok {
			prop.Exposed, _ = v.(bool)
		}
		if v, ok := e.graph.Get(m, "m_Type"); ok {
			if st, ok := v.(host.SerializableType); ok {
				prop.Type = st.Name
			}
		}
		slots := e.graph.Slots(m, true)
		if len(slots) > 0 {
			if vt, ok := e.graph.Get(slots[0], "valueType"); ok && prop.Type == "" {
				if rt, ok := vt.(reflect.Type); ok && rt != nil {
					prop.Type = graph.ValueTypeName(rt)
				}
			}
			if v, ok := e.graph.Get(slots[0], "value"); ok {
				prop.Value = v
			}
		}
		out = append(out, prop)
	}
	return out
}

func (c *call) listProperties(p Params) (domain.Result, error) {
	var a struct {
		Path string `mapstructure:"path"`
	}
	if err := Decode(p, &a); err != nil {
		return domain.Result{}, err
	}
	if blank(a.Path) {
		return domain.Result{}, required("Path is required")
	}
	asset, err := c.open(a.Path)
	if err != nil {
		return domain.Result{}, err
	}
	if c.graph.Cache().Type(graph.TypeParameter) == nil {
		return domain.Result{}, domain.Errorf(domain.CodeResolution, "VFXParameter type not found")
	}
	props := c.Properties(asset.Root())
	return domain.OK(fmt.Sprintf("Found %d properties", len(props)), map[string]any{
		"count":      len(props),
		"properties": props,
	}), nil
}

type propertyRef struct {
	Path   string `mapstructure:"path"`
	NodeID int    `mapstructure:"nodeId"`
	Name   string `mapstructure:"name"`
}

func (r propertyRef) label() string {
	if !blank(r.Name) {
		return r.Name
	}
	return strconv.Itoa(r.NodeID)
}

// findProperty resolves a parameter by id or by exposed name.
func (c *call) findProperty(a host.Asset, r propertyRef) host.Object {
	if r.NodeID != 0 {
		n := c.graph.Find(a.Root(), r.NodeID)
		if n == nil || !c.graph.IsA(n, graph.TypeParameter) {
			return nil
		}
		return n
	}
	for _, m := range c.graph.Models(a.Root()) {
		if !c.graph.IsA(m, graph.TypeParameter) {
			continue
		}
		if v, ok := c.graph.Get(m, "exposedName"); ok && v == r.Name {
			return m
		}
	}
	return nil
}

func (c *call) removeProperty(p Params) (domain.Result, error) {
	var a propertyRef
	if err := Decode(p, &a); err != nil {
		return domain.Result{}, err
	}
	if blank(a.Path) {
		return domain.Result{}, required("Path is required")
	}
	if a.NodeID == 0 && blank(a.Name) {
		return domain.Result{}, required("Either nodeId or name is required")
	}
	asset, err := c.open(a.Path)
	if err != nil {
		return domain.Result{}, err
	}
	target := c.findProperty(asset, a)
	if target == nil {
		return domain.Result{}, notFound("Property not found")
	}
	root := asset.Root()
	if err := c.removeChild(root, target); err != nil {
		return domain.Result{}, internal(err, "Error removing property: %s", message(err))
	}
	c.invalidate(root, CauseStructureChanged)
	if err := c.persist(asset); err != nil {
		return domain.Result{}, err
	}
	return domain.OK(fmt.Sprintf("Removed property '%s'", a.label()), map[string]any{"removedId": target.InstanceID()}), nil
}

func (c *call) setPropertyValue(p Params) (domain.Result, error) {
	var a propertyRef
	if err := Decode(p, &a); err != nil {
		return domain.Result{}, err
	}
	value := p.Raw("value")
	if blank(a.Path) || value == nil {
		return domain.Result{}, required("Path and value are required")
	}
	if a.NodeID == 0 && blank(a.Name) {
		return domain.Result{}, required("Either nodeId or name is required")
	}
	asset, err := c.open(a.Path)
	if err != nil {
		return domain.Result{}, err
	}
	target := c.findProperty(asset, a)
	if target == nil {
		return domain.Result{}, notFound("Property not found")
	}
	slot := c.propertySlot(target)
	if slot == nil {
		return domain.Result{}, domain.Errorf(domain.CodeResolution, "Property '%s' has no output slot", a.label())
	}
	applied, err := c.setSlotValue(slot, value)
	if err != nil {
		return domain.Result{}, domain.Errorf(domain.CodeValidation, "Error setting property value: %s", message(err)).Wrap(err)
	}
	c.invalidate(target, CauseParamChanged)
	if err := c.persist(asset); err != nil {
		return domain.Result{}, err
	}
	return domain.OK(fmt.Sprintf("Set default value for '%s'", a.label()), map[string]any{
		"id":    target.InstanceID(),
		"value": applied,
	}), nil
}
