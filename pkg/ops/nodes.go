package ops

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/vfxbridge/pkg/domain"
	"github.com/aretw0/vfxbridge/pkg/graph"
	"github.com/aretw0/vfxbridge/pkg/host"
)

type nodeRef struct {
	Path   string `mapstructure:"path"`
	NodeID int    `mapstructure:"nodeId"`
	ID     int    `mapstructure:"id"`
}

func (r nodeRef) id() int {
	if r.NodeID != 0 {
		return r.NodeID
	}
	return r.ID
}

func (c *call) getGraphInfo(p Params) (domain.Result, error) {
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
	root := asset.Root()
	nodes := []map[string]any{}
	for _, m := range c.graph.Models(root) {
		if m == root || c.graph.IsA(m, graph.TypeBlock) {
			continue
		}
		pos := c.graph.Position(m)
		isContext := c.graph.IsA(m, graph.TypeContext)
		info := map[string]any{
			"id":          m.InstanceID(),
			"type":        c.graph.TypeName(m),
			"name":        c.graph.DisplayName(m),
			"position":    map[string]any{"x": pos.X, "y": pos.Y},
			"inputSlots":  c.graph.SlotInfos(m, false),
			"outputSlots": c.graph.SlotInfos(m, true),
			"isContext":   isContext,
		}
		if isContext {
			info["blocks"] = c.blockInfos(m)
			info["flowOutputLinks"] = c.graph.FlowLinks(m)
		}
		nodes = append(nodes, info)
	}
	return domain.OK(fmt.Sprintf("Found %d nodes in %s", len(nodes), a.Path), map[string]any{
		"assetPath": a.Path,
		"nodeCount": len(nodes),
		"nodes":     nodes,
	}), nil
}

func (c *call) blockInfos(ctx host.Object) []map[string]any {
	out := []map[string]any{}
	for _, ch := range c.graph.Children(ctx) {
		if !c.graph.IsA(ch, graph.TypeBlock) {
			continue
		}
		info := map[string]any{
			"id":          ch.InstanceID(),
			"type":        c.graph.TypeName(ch),
			"index":       len(out),
			"inputSlots":  c.graph.SlotInfos(ch, false),
			"outputSlots": c.graph.SlotInfos(ch, true),
			"hint":        "This block's id can be used with set_node_property, get_node_settings, and set_node_setting.",
		}
		if v, ok := c.graph.Get(ch, "enabled"); ok {
			info["enabled"] = v
		}
		out = append(out, info)
	}
	return out
}

// category names the role of a host type.
func (c *call) category(t *host.Type) string {
	cache := c.graph.Cache()
	for _, k := range []struct{ base, name string }{
		{graph.TypeContext, "context"},
		{graph.TypeBlock, "block"},
		{graph.TypeOperator, "operator"},
		{graph.TypeParameter, "parameter"},
		{graph.TypeSlot, "slot"},
	} {
		if bt := cache.Type(k.base); bt != nil && t.AssignableTo(bt) {
			return k.name
		}
	}
	return "unknown"
}

func (c *call) listNodeTypes(p Params) (domain.Result, error) {
	var a struct {
		Filter   string `mapstructure:"filter"`
		Category string `mapstructure:"category"`
	}
	if err := Decode(p, &a); err != nil {
		return domain.Result{}, err
	}
	cache := c.graph.Cache()
	base := cache.Type(graph.TypeModel)
	if base == nil {
		return domain.Result{}, domain.Errorf(domain.CodeResolution, "Could not find VFXModel base type")
	}
	type entry struct {
		Name     string `json:"name"`
		Category string `json:"category"`
		FullName string `json:"fullName"`
	}
	types := []entry{}
	for _, t := range cache.Subtypes(base) {
		if t.Abstract || t == base {
			continue
		}
		cat := c.category(t)
		if a.Filter != "" && !strings.Contains(strings.ToLower(t.Name), strings.ToLower(a.Filter)) {
			continue
		}
		if a.Category != "" && !strings.EqualFold(cat, a.Category) {
			continue
		}
		types = append(types, entry{Name: t.Name, Category: cat, FullName: t.FullName()})
	}
	sort.SliceStable(types, func(i, j int) bool {
		if types[i].Category != types[j].Category {
			return types[i].Category < types[j].Category
		}
		return types[i].Name < types[j].Name
	})
	return domain.OK(fmt.Sprintf("Found %d node types", len(types)), map[string]any{
		"count": len(types),
		"types": types,
	}), nil
}

func (c *call) addNode(p Params) (domain.Result, error) {
	var a struct {
		Path     string `mapstructure:"path"`
		Type     string `mapstructure:"type"`
		NodeType string `mapstructure:"nodeType"`
	}
	if err := Decode(p, &a); err != nil {
		return domain.Result{}, err
	}
	typeName := first(a.Type, a.NodeType)
	if blank(a.Path) || blank(typeName) {
		return domain.Result{}, required("Path and Type are required")
	}
	asset, err := c.open(a.Path)
	if err != nil {
		return domain.Result{}, err
	}
	t := c.typeNamed(typeName, graph.TypeModel)
	if t == nil {
		return domain.Result{}, notFound("Node type '%s' not found", typeName)
	}
	node, err := c.instantiate(t)
	if err != nil {
		return domain.Result{}, err
	}
	if raw := p.Raw("position"); raw != nil {
		if pos, ok := graph.Position(raw); ok {
			if err := c.graph.Set(node, "position", pos); err != nil {
				c.logger.Debug("position not applied", "type", t.Name, "err", err)
			}
		}
	}
	root := asset.Root()
	if err := c.addChild(root, node, -1); err != nil {
		return domain.Result{}, internal(err, "Error adding node: %s", message(err))
	}
	c.invalidate(root, CauseStructureChanged)
	if err := c.persist(asset); err != nil {
		return domain.Result{}, err
	}
	return domain.Created(node.InstanceID(), "Added "+t.Name, map[string]any{
		"id":   node.InstanceID(),
		"type": t.Name,
	}), nil
}

func (c *call) removeNode(p Params) (domain.Result, error) {
	var a nodeRef
	if err := Decode(p, &a); err != nil {
		return domain.Result{}, err
	}
	id := a.id()
	if blank(a.Path) || id == 0 {
		return domain.Result{}, required("Path and nodeId are required")
	}
	asset, err := c.open(a.Path)
	if err != nil {
		return domain.Result{}, err
	}
	node, err := c.node(asset, id, "Node")
	if err != nil {
		return domain.Result{}, err
	}
	if c.graph.IsA(node, graph.TypeBlock) {
		return c.removeBlock(Params{"path": a.Path, "blockId": id})
	}
	root := asset.Root()
	typeName := c.graph.TypeName(node)
	var warning string
	if c.graph.IsA(node, graph.TypeContext) && len(c.graph.FlowLinks(node)) > 0 {
		warning = "Context had active flow links; they were removed with it."
	}
	if err := c.removeChild(root, node); err != nil {
		return domain.Result{}, internal(err, "Error removing node: %s", message(err))
	}
	c.invalidate(root, CauseStructureChanged)
	if err := c.persist(asset); err != nil {
		return domain.Result{}, err
	}
	data := map[string]any{"removedId": id, "type": typeName}
	if warning != "" {
		data["warning"] = warning
	}
	return domain.OK(fmt.Sprintf("Removed node %s (id:%d)", typeName, id), data), nil
}

func (c *call) moveNode(p Params) (domain.Result, error) {
	var a nodeRef
	if err := Decode(p, &a); err != nil {
		return domain.Result{}, err
	}
	raw := p.Raw("position")
	if blank(a.Path) || a.id() == 0 || raw == nil {
		return domain.Result{}, required("Path, nodeId, and position are required")
	}
	pos, ok := graph.Position(raw)
	if !ok {
		return domain.Result{}, required("position must be [x, y] or {x, y}; a valid position is required")
	}
	asset, err := c.open(a.Path)
	if err != nil {
		return domain.Result{}, err
	}
	node, err := c.node(asset, a.id(), "Node")
	if err != nil {
		return domain.Result{}, err
	}
	if err := c.graph.Set(node, "position", pos); err != nil {
		return domain.Result{}, domain.Errorf(domain.CodeResolution, "position property not found on node").Wrap(err)
	}
	if err := c.persist(asset); err != nil {
		return domain.Result{}, err
	}
	return domain.OK(fmt.Sprintf("Moved %s to (%g, %g)", c.graph.TypeName(node), pos.X, pos.Y),
		map[string]any{"x": pos.X, "y": pos.Y}), nil
}

func (c *call) duplicateNode(p Params) (domain.Result, error) {
	var a nodeRef
	if err := Decode(p, &a); err != nil {
		return domain.Result{}, err
	}
	if blank(a.Path) || a.id() == 0 {
		return domain.Result{}, required("Path and nodeId are required")
	}
	asset, err := c.open(a.Path)
	if err != nil {
		return domain.Result{}, err
	}
	src, err := c.node(asset, a.id(), "Node")
	if err != nil {
		return domain.Result{}, err
	}
	t := c.graph.TypeOf(src)
	if t == nil {
		return domain.Result{}, domain.Errorf(domain.CodeResolution, "Could not resolve the type of node %d", a.id())
	}
	dup, err := c.instantiate(t)
	if err != nil {
		return domain.Result{}, err
	}
	var warnings []string
	pos := c.graph.Position(src)
	if err := c.graph.Set(dup, "position", host.Vector2{X: pos.X + 50, Y: pos.Y + 50}); err != nil {
		c.logger.Warn("position not applied", "type", t.Name, "err", err)
		warnings = append(warnings, "position not applied: "+message(err))
	}
	for _, f := range t.Fields() {
		if !f.Setting {
			continue
		}
		if v, err := f.Get(src); err == nil {
			if err := f.Set(dup, v); err != nil {
				c.logger.Debug("setting not copied", "setting", f.Name, "err", err)
				warnings = append(warnings, fmt.Sprintf("setting %s not copied: %v", f.Name, err))
			}
		}
	}
	root := asset.Root()
	if err := c.addChild(root, dup, -1); err != nil {
		return domain.Result{}, internal(err, "Error duplicating node: %s", message(err))
	}
	c.invalidate(root, CauseStructureChanged)
	if err := c.persist(asset); err != nil {
		return domain.Result{}, err
	}
	return domain.Created(dup.InstanceID(),
		fmt.Sprintf("Duplicated %s (source:%d -> new:%d)", t.Name, src.InstanceID(), dup.InstanceID()),
		dupData(src.InstanceID(), dup.InstanceID(), t.Name, warnings)), nil
}

func dupData(sourceID, newID int, typeName string, warnings []string) map[string]any {
	out := map[string]any{"sourceId": sourceID, "newId": newID, "type": typeName}
	if len(warnings) > 0 {
		out["warnings"] = warnings
	}
	return out
}

func (c *call) setNodeProperty(p Params) (domain.Result, error) {
	var a nodeRef
	if err := Decode(p, &a); err != nil {
		return domain.Result{}, err
	}
	var prop struct {
		Property string `mapstructure:"property"`
	}
	if err := Decode(p, &prop); err != nil {
		return domain.Result{}, err
	}
	value := p.Raw("value")
	if blank(a.Path) || a.id() == 0 || blank(prop.Property) || value == nil {
		return domain.Result{}, required("Path, NodeId, Property, and Value are required")
	}
	asset, err := c.open(a.Path)
	if err != nil {
		return domain.Result{}, err
	}
	node, err := c.node(asset, a.id(), "Node")
	if err != nil {
		return domain.Result{}, err
	}
	slot := c.graph.FindSlot(node, prop.Property, false)
	if slot == nil {
		return domain.Result{}, notFound("Input property '%s' not found on node", prop.Property).
			WithDetails(map[string]any{"availableSlots": c.graph.SlotInfos(node, false)})
	}
	applied, err := c.setSlotValue(slot, value)
	if err != nil {
		return domain.Result{}, internal(err, "Error setting property: %s", message(err))
	}
	c.invalidate(node, CauseParamChanged)
	if err := c.persist(asset); err != nil {
		return domain.Result{}, err
	}
	return domain.OK(fmt.Sprintf("Set %s to %v", prop.Property, applied), map[string]any{
		"nodeId":   a.id(),
		"property": c.graph.SlotName(slot),
		"value":    applied,
	}), nil
}

// setSlotValue coerces value to the type of the slot's current value.
func (c *call) setSlotValue(slot, value any) (any, error) {
	target := c.slotValueType(slot)
	v, err := graph.Coerce(value, target)
	if err != nil {
		return nil, err
	}
	if err := c.graph.Set(slot, "value", v); err != nil {
		return nil, err
	}
	return v, nil
}
