package ops

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/vfxbridge/pkg/domain"
	"github.com/aretw0/vfxbridge/pkg/graph"
	"github.com/aretw0/vfxbridge/pkg/host"
)

type blockRef struct {
	Path    string `mapstructure:"path"`
	BlockID int    `mapstructure:"blockId"`
	ID      int    `mapstructure:"id"`
}

func (r blockRef) id() int {
	if r.BlockID != 0 {
		return r.BlockID
	}
	return r.ID
}

// block finds id and checks that it is a block.
func (c *call) block(a host.Asset, id int) (host.Object, error) {
	n, err := c.node(a, id, "Block")
	if err != nil {
		return nil, err
	}
	if !c.graph.IsA(n, graph.TypeBlock) {
		return nil, domain.Errorf(domain.CodeValidation, "Node %d is not a VFXBlock", id)
	}
	return n, nil
}

// owningContext returns the context holding block, scanning every context
// when the block does not report its parent.
func (c *call) owningContext(a host.Asset, block host.Object) host.Object {
	if p := c.graph.Parent(block); p != nil {
		return p
	}
	for _, m := range c.graph.Models(a.Root()) {
		if !c.graph.IsA(m, graph.TypeContext) {
			continue
		}
		for _, ch := range c.graph.Children(m) {
			if ch.InstanceID() == block.InstanceID() {
				return m
			}
		}
	}
	return nil
}

func (c *call) addBlock(p Params) (domain.Result, error) {
	a := struct {
		Path      string `mapstructure:"path"`
		ContextID int    `mapstructure:"contextId"`
		BlockType string `mapstructure:"blockType"`
		Type      string `mapstructure:"type"`
		Index     int    `mapstructure:"index"`
	}{Index: -1}
	if err := Decode(p, &a); err != nil {
		return domain.Result{}, err
	}
	name := first(a.BlockType, a.Type)
	if blank(a.Path) || a.ContextID == 0 || blank(name) {
		return domain.Result{}, required("Path, contextId, and blockType (or type) are required")
	}
	asset, err := c.open(a.Path)
	if err != nil {
		return domain.Result{}, err
	}
	ctx, err := c.node(asset, a.ContextID, "Context node")
	if err != nil {
		return domain.Result{}, err
	}
	if !c.graph.IsA(ctx, graph.TypeContext) {
		return domain.Result{}, domain.Errorf(domain.CodeValidation, "Node %d is not a VFXContext", a.ContextID)
	}

	alias, aliased := ResolveBlockAlias(name)
	typeName := name
	if aliased {
		typeName = alias.Type
	}
	t := c.typeNamed(typeName, graph.TypeBlock)
	if t == nil {
		return domain.Result{}, notFound("Block type '%s' not found (must be a VFXBlock subclass)", name).
			WithDetails(map[string]any{"aliases": BlockAliasNames()})
	}
	blk, err := c.instantiate(t)
	if err != nil {
		return domain.Result{}, err
	}
	if err := c.addChild(ctx, blk, a.Index); err != nil {
		return domain.Result{}, internal(err, "Error adding block: %s", message(err)).WithDetails(map[string]any{
			"blockType":   t.Name,
			"contextType": c.graph.TypeName(ctx),
		})
	}
	applied, failed := c.applySettings(blk, alias.Settings)
	c.invalidate(ctx, CauseStructureChanged)
	if err := c.persist(asset); err != nil {
		return domain.Result{}, err
	}
	data := map[string]any{"id": blk.InstanceID(), "blockType": t.Name}
	if aliased {
		data["alias"] = name
		data["appliedSettings"] = applied
		if len(failed) > 0 {
			data["failedSettings"] = failed
		}
	}
	return domain.Created(blk.InstanceID(),
		fmt.Sprintf("Added block %s to context %s", name, c.graph.TypeName(ctx)), data), nil
}

// applySettings writes settings given as strings, in name order. A setting
// whose setter fails is written directly to its field.
func (c *call) applySettings(node host.Object, settings map[string]string) ([]string, []map[string]any) {
	names := make([]string, 0, len(settings))
	for k := range settings {
		names = append(names, k)
	}
	sort.Strings(names)
	applied := []string{}
	var failed []map[string]any
	for _, name := range names {
		if err := c.writeSetting(node, name, settings[name]); err != nil {
			failed = append(failed, map[string]any{"setting": name, "error": message(err)})
			continue
		}
		applied = append(applied, name)
	}
	return applied, failed
}

func (c *call) writeSetting(node host.Object, name string, value any) error {
	_, err := c.applySetting(node, name, value)
	return err
}

// settingField resolves a setting by its declared name, then ignoring case.
func (c *call) settingField(node host.Object, name string) *settingMember {
	t := c.graph.TypeOf(node)
	if t == nil {
		return nil
	}
	if m := c.graph.Cache().Field(t, name); m != nil {
		return &settingMember{m}
	}
	for _, m := range t.Fields() {
		if strings.EqualFold(m.Name, name) {
			return &settingMember{m}
		}
	}
	return nil
}

type settingMember struct{ *host.Member }

// nameOr returns the declared name, or fallback when the member is unknown.
func (s *settingMember) nameOr(fallback string) string {
	if s == nil {
		return fallback
	}
	return s.Name
}

func (c *call) removeBlock(p Params) (domain.Result, error) {
	var a blockRef
	if err := Decode(p, &a); err != nil {
		return domain.Result{}, err
	}
	if blank(a.Path) || a.id() == 0 {
		return domain.Result{}, required("Path and blockId (or id) are required")
	}
	asset, err := c.open(a.Path)
	if err != nil {
		return domain.Result{}, err
	}
	blk, err := c.block(asset, a.id())
	if err != nil {
		return domain.Result{}, err
	}
	parent := c.owningContext(asset, blk)
	if parent == nil {
		return domain.Result{}, notFound("Could not find parent context for block")
	}
	if err := c.removeChild(parent, blk); err != nil {
		return domain.Result{}, internal(err, "Error removing block: %s", message(err))
	}
	c.invalidate(parent, CauseStructureChanged)
	if err := c.persist(asset); err != nil {
		return domain.Result{}, err
	}
	return domain.OK(fmt.Sprintf("Removed block %s from %s", c.graph.TypeName(blk), c.graph.TypeName(parent)),
		map[string]any{"removedId": a.id(), "contextId": parent.InstanceID()}), nil
}

func (c *call) reorderBlock(p Params) (domain.Result, error) {
	var a blockRef
	if err := Decode(p, &a); err != nil {
		return domain.Result{}, err
	}
	idx := struct {
		NewIndex int `mapstructure:"newIndex"`
	}{NewIndex: -1}
	if err := Decode(p, &idx); err != nil {
		return domain.Result{}, err
	}
	if blank(a.Path) || a.id() == 0 || idx.NewIndex < 0 {
		return domain.Result{}, required("path, blockId, and newIndex are required")
	}
	asset, err := c.open(a.Path)
	if err != nil {
		return domain.Result{}, err
	}
	blk, err := c.block(asset, a.id())
	if err != nil {
		return domain.Result{}, err
	}
	parent := c.owningContext(asset, blk)
	if parent == nil {
		return domain.Result{}, notFound("Parent context not found")
	}
	// AddChild moves a child that is already attached; its links survive.
	if err := c.addChild(parent, blk, idx.NewIndex); err != nil {
		return domain.Result{}, internal(err, "Error reordering block: %s", message(err))
	}
	c.invalidate(parent, CauseStructureChanged)
	if err := c.persist(asset); err != nil {
		return domain.Result{}, err
	}
	return domain.OK(fmt.Sprintf("Reordered %s to index %d", c.graph.TypeName(blk), idx.NewIndex), map[string]any{
		"blockId":    a.id(),
		"newIndex":   idx.NewIndex,
		"parentType": c.graph.TypeName(parent),
	}), nil
}

func (c *call) setBlockActivation(p Params) (domain.Result, error) {
	var a blockRef
	if err := Decode(p, &a); err != nil {
		return domain.Result{}, err
	}
	var en struct {
		Enabled *bool `mapstructure:"enabled"`
	}
	if err := Decode(p, &en); err != nil {
		return domain.Result{}, err
	}
	if blank(a.Path) || a.id() == 0 {
		return domain.Result{}, required("path and blockId are required")
	}
	asset, err := c.open(a.Path)
	if err != nil {
		return domain.Result{}, err
	}
	blk, err := c.block(asset, a.id())
	if err != nil {
		return domain.Result{}, err
	}
	if en.Enabled != nil {
		if err := c.graph.Set(blk, "enabled", *en.Enabled); err != nil {
			if ferr := c.graph.Set(blk, "m_Disabled", !*en.Enabled); ferr != nil {
				return domain.Result{}, internal(err, "Error setting activation: %s", message(err))
			}
		}
	}
	c.invalidate(blk, CauseSettingChanged)
	if err := c.persist(asset); err != nil {
		return domain.Result{}, err
	}
	state, _ := c.graph.Get(blk, "enabled")
	return domain.OK(fmt.Sprintf("Block %s activation set to %v", c.graph.TypeName(blk), state), map[string]any{
		"blockId":   a.id(),
		"blockType": c.graph.TypeName(blk),
		"enabled":   state,
	}), nil
}

func (c *call) addAttributeBlock(p Params) (domain.Result, error) {
	a := struct {
		Path        string `mapstructure:"path"`
		ContextID   int    `mapstructure:"contextId"`
		Attribute   string `mapstructure:"attribute"`
		Composition string `mapstructure:"composition"`
		Source      string `mapstructure:"source"`
		Random      string `mapstructure:"random"`
		Channels    string `mapstructure:"channels"`
		Index       int    `mapstructure:"index"`
	}{Composition: "Set", Source: "Slot", Random: "Off", Index: -1}
	if err := Decode(p, &a); err != nil {
		return domain.Result{}, err
	}
	if blank(a.Path) || a.ContextID == 0 || blank(a.Attribute) {
		names := make([]string, len(BuiltInAttributes))
		for i, attr := range BuiltInAttributes {
			names[i] = attr.Name
		}
		return domain.Result{}, domain.NewError(domain.CodeValidation, "path, contextId, and attribute are required",
			map[string]any{"availableAttributes": names})
	}
	if strings.EqualFold(a.Composition, "Set") {
		a.Composition = "Overwrite"
	}
	if strings.EqualFold(a.Source, "Port") {
		a.Source = "Slot"
	}
	if attr, ok := findAttribute(a.Attribute); ok {
		a.Attribute = attr.Name
	}

	asset, err := c.open(a.Path)
	if err != nil {
		return domain.Result{}, err
	}
	ctx, err := c.context(asset, a.ContextID, "Context")
	if err != nil {
		return domain.Result{}, err
	}
	t := c.typeNamed("SetAttribute", graph.TypeBlock)
	if t == nil {
		return domain.Result{}, domain.Errorf(domain.CodeResolution, "SetAttribute block type not found")
	}
	blk, err := c.instantiate(t)
	if err != nil {
		return domain.Result{}, err
	}
	if err := c.addChild(ctx, blk, a.Index); err != nil {
		return domain.Result{}, internal(err, "Error adding attribute block: %s", message(err))
	}
	settings := map[string]string{
		"attribute":   a.Attribute,
		"Composition": a.Composition,
		"Source":      a.Source,
		"Random":      a.Random,
	}
	if !blank(a.Channels) {
		settings["Channels"] = a.Channels
	}
	applied, failed := c.applySettings(blk, settings)
	c.invalidate(ctx, CauseStructureChanged)
	if err := c.persist(asset); err != nil {
		return domain.Result{}, err
	}
	data := map[string]any{
		"attribute":       a.Attribute,
		"composition":     a.Composition,
		"source":          a.Source,
		"random":          a.Random,
		"channels":        a.Channels,
		"blockType":       t.Name,
		"appliedSettings": applied,
	}
	if len(failed) > 0 {
		data["failedSettings"] = failed
	}
	return domain.Created(blk.InstanceID(),
		fmt.Sprintf("%s %s block added to %s", a.Composition, a.Attribute, c.graph.TypeName(ctx)), data), nil
}

func (c *call) listBlockTypes(p Params) (domain.Result, error) {
	var a struct {
		Filter string `mapstructure:"filter"`
	}
	if err := Decode(p, &a); err != nil {
		return domain.Result{}, err
	}
	cache := c.graph.Cache()
	base := cache.Type(graph.TypeBlock)
	if base == nil {
		return domain.Result{}, domain.Errorf(domain.CodeResolution, "Could not find VFXBlock base type")
	}
	type entry struct {
		Name               string `json:"name"`
		FullName           string `json:"fullName"`
		CompatibleContexts string `json:"compatibleContexts"`
	}
	types := []entry{}
	for _, t := range cache.Subtypes(base) {
		if t.Abstract || t == base {
			continue
		}
		if a.Filter != "" && !strings.Contains(strings.ToLower(t.Name), strings.ToLower(a.Filter)) {
			continue
		}
		types = append(types, entry{Name: t.Name, FullName: t.FullName(), CompatibleContexts: c.compatibleContexts(t)})
	}
	sort.SliceStable(types, func(i, j int) bool { return types[i].Name < types[j].Name })
	return domain.OK(fmt.Sprintf("Found %d block types", len(types)), map[string]any{
		"count":   len(types),
		"types":   types,
		"aliases": BlockAliasNames(),
	}), nil
}

// compatibleContexts reads the compatibility of a block type from a
// throwaway instance.
func (c *call) compatibleContexts(t *host.Type) string {
	obj, err := t.New()
	if err != nil {
		return "unknown"
	}
	v, ok := c.graph.Get(obj, "compatibleContexts")
	if !ok || graph.IsNil(v) {
		return "unknown"
	}
	return fmt.Sprint(v)
}
