package ops

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/vfxbridge/pkg/domain"
	"github.com/aretw0/vfxbridge/pkg/graph"
	"github.com/aretw0/vfxbridge/pkg/host"
)

// CustomAttribute is a user-declared attribute of one graph.
type CustomAttribute struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Custom      bool   `json:"custom"`
}

// CustomAttributes reads the attributes declared on the graph root.
func (e *Engine) CustomAttributes(root host.Object) []CustomAttribute {
	out := []CustomAttribute{}
	v, ok := e.graph.Get(root, "m_CustomAttributes")
	if !ok {
		return out
	}
	for _, el := range graph.Elements(v) {
		ca := CustomAttribute{Custom: true}
		if n, ok := e.graph.Get(el, "name"); ok {
			ca.Name, _ = n.(string)
		}
		if t, ok := e.graph.Get(el, "type"); ok {
			ca.Type, _ = t.(string)
		}
		if d, ok := e.graph.Get(el, "description"); ok {
			ca.Description, _ = d.(string)
		}
		if ca.Name != "" {
			out = append(out, ca)
		}
	}
	return out
}

func (c *call) listAttributes(p Params) (domain.Result, error) {
	var a struct {
		Path     string `mapstructure:"path"`
		Category string `mapstructure:"category"`
	}
	if err := Decode(p, &a); err != nil {
		return domain.Result{}, err
	}

	builtIn := []map[string]any{}
	for _, attr := range BuiltInAttributes {
		if !blank(a.Category) && !strings.EqualFold(attr.Category, a.Category) {
			continue
		}
		entry := map[string]any{
			"name":             attr.Name,
			"type":             attr.Type,
			"defaultValue":     attr.DefaultValue,
			"category":         attr.Category,
			"readOnly":         attr.ReadOnly,
			"variadic":         attr.Variadic,
			"getOperatorAlias": "Get" + graph.Capitalize(attr.Name),
		}
		if !attr.ReadOnly {
			entry["setBlockAlias"] = "Set" + graph.Capitalize(attr.Name)
		}
		builtIn = append(builtIn, entry)
	}

	custom := []CustomAttribute{}
	if !blank(a.Path) {
		asset, err := c.open(a.Path)
		if err != nil {
			return domain.Result{}, err
		}
		custom = c.CustomAttributes(asset.Root())
	}
	return domain.OK(fmt.Sprintf("Found %d built-in + %d custom attributes", len(builtIn), len(custom)),
		map[string]any{"builtIn": builtIn, "custom": custom}), nil
}

type customAttributeArgs struct {
	Path        string `mapstructure:"path"`
	Name        string `mapstructure:"name"`
	Type        string `mapstructure:"type"`
	Description string `mapstructure:"description"`
}

func (c *call) addCustomAttribute(p Params) (domain.Result, error) {
	a := customAttributeArgs{Type: "float"}
	if err := Decode(p, &a); err != nil {
		return domain.Result{}, err
	}
	if blank(a.Path) || blank(a.Name) {
		return domain.Result{}, required("path and name are required")
	}
	asset, err := c.open(a.Path)
	if err != nil {
		return domain.Result{}, err
	}
	root := asset.Root()
	if _, err := c.graph.Call(root, "AddCustomAttribute", a.Name, a.Type, a.Description); err != nil {
		if errors.Is(err, domain.ErrResolution) {
			return domain.Result{}, err
		}
		return domain.Result{}, domain.Errorf(domain.CodeValidation,
			"Error adding custom attribute: %s", message(err)).Wrap(err)
	}
	c.invalidate(root, CauseStructureChanged)
	if err := c.persist(asset); err != nil {
		return domain.Result{}, err
	}
	return domain.OK(fmt.Sprintf("Added custom attribute '%s' (%s)", a.Name, a.Type), map[string]any{
		"name":        a.Name,
		"type":        a.Type,
		"description": a.Description,
	}), nil
}

func (c *call) removeCustomAttribute(p Params) (domain.Result, error) {
	var a customAttributeArgs
	if err := Decode(p, &a); err != nil {
		return domain.Result{}, err
	}
	if blank(a.Path) || blank(a.Name) {
		return domain.Result{}, required("path and name are required")
	}
	asset, err := c.open(a.Path)
	if err != nil {
		return domain.Result{}, err
	}
	root := asset.Root()
	out, err := c.graph.Call(root, "RemoveCustomAttribute", a.Name)
	if err != nil {
		return domain.Result{}, internal(err, "Error removing custom attribute: %s", message(err))
	}
	if len(out) > 0 {
		if removed, ok := out[0].(bool); ok && !removed {
			return domain.Result{}, notFound("Custom attribute '%s' not found", a.Name)
		}
	}
	c.invalidate(root, CauseStructureChanged)
	if err := c.persist(asset); err != nil {
		return domain.Result{}, err
	}
	return domain.OK(fmt.Sprintf("Removed custom attribute '%s'", a.Name), map[string]any{"name": a.Name}), nil
}
