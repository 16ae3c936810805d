package ops

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/aretw0/vfxbridge/pkg/domain"
	"github.com/aretw0/vfxbridge/pkg/graph"
	"github.com/aretw0/vfxbridge/pkg/host"
)

// settingProbe lists names tried when a node cannot enumerate its settings.
var settingProbe = []string{
	"m_Composition", "composition", "blendMode", "sortMode",
	"useAlphaClipping", "castShadows", "receiveShadows",
	"spaceMode", "space", "attributeSpace",
	"primitiveType", "shaderGraph", "topology",
	"useSoftParticle", "colorMapping", "uvMode",
	"attribute", "source", "channels", "sampleMode",
}

// spaceSettings are the setting names that carry a coordinate space.
var spaceSettings = []string{"space", "spaceMode", "attributeSpace", "m_Space"}

// SettingInfo describes one node setting.
type SettingInfo struct {
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Value      string   `json:"value,omitempty"`
	EnumValues []string `json:"enumValues,omitempty"`
}

func settingInfo(name string, declared reflect.Type, v any) SettingInfo {
	info := SettingInfo{Name: name}
	t := declared
	if t == nil && !graph.IsNil(v) {
		t = reflect.TypeOf(v)
	}
	if t != nil {
		info.Type = t.Name()
		info.EnumValues = host.EnumNames(t)
	}
	if !graph.IsNil(v) {
		info.Value = fmt.Sprint(v)
	}
	return info
}

func (c *call) setNodeSetting(p Params) (domain.Result, error) {
	var a nodeRef
	if err := Decode(p, &a); err != nil {
		return domain.Result{}, err
	}
	var s struct {
		SettingName string `mapstructure:"settingName"`
		Setting     string `mapstructure:"setting"`
	}
	if err := Decode(p, &s); err != nil {
		return domain.Result{}, err
	}
	name := first(s.SettingName, s.Setting)
	value := p.Raw("value")
	if blank(a.Path) || a.id() == 0 || blank(name) || value == nil {
		return domain.Result{}, required("Path, nodeId, settingName (or setting), and value are required")
	}
	asset, err := c.open(a.Path)
	if err != nil {
		return domain.Result{}, err
	}
	node, err := c.node(asset, a.id(), "Node")
	if err != nil {
		return domain.Result{}, err
	}
	applied, err := c.applySetting(node, name, value)
	if err != nil {
		return domain.Result{}, err
	}
	c.invalidate(node, CauseSettingChanged)
	if err := c.persist(asset); err != nil {
		return domain.Result{}, err
	}
	typeName := c.graph.TypeName(node)
	return domain.OK(fmt.Sprintf("Set setting '%s' to %v on %s", name, applied, typeName), map[string]any{
		"nodeId":   a.id(),
		"nodeType": typeName,
		"setting":  name,
		"value":    fmt.Sprint(applied),
	}), nil
}

// applySetting is the typed form of writeSetting used by set_node_setting:
// conversion failures are validation errors and a missing setter and field
// is a resolution error.
func (c *call) applySetting(node host.Object, name string, value any) (any, error) {
	field := c.settingField(node, name)
	typeName := c.graph.TypeName(node)
	v := value
	if field != nil {
		cv, err := graph.Coerce(value, field.Type())
		if err != nil {
			if field.Type() == reflect.TypeOf(host.SerializableType{}) {
				return nil, domain.NewError(domain.CodeValidation,
					fmt.Sprintf("Could not resolve SerializableType from '%v'", value),
					map[string]any{"setting": name, "nodeType": typeName}).Wrap(err)
			}
			return nil, domain.NewError(domain.CodeValidation,
				fmt.Sprintf("Could not convert %v for setting '%s': %v", value, name, err),
				map[string]any{"setting": name, "nodeType": typeName, "expectedType": field.Type().String()}).Wrap(err)
		}
		v = cv
	}
	_, callErr := c.graph.Call(node, "SetSettingValue", field.nameOr(name), v)
	if callErr == nil {
		return v, nil
	}
	if field == nil {
		return nil, domain.NewError(domain.CodeResolution,
			fmt.Sprintf("Could not find SetSettingValue method or field '%s' on %s", name, typeName),
			map[string]any{"error": message(callErr)}).Wrap(callErr)
	}
	c.logger.Debug("SetSettingValue failed, writing field", "setting", name, "err", callErr)
	if err := field.Set(node, v); err != nil {
		return nil, internal(err, "Error setting node setting: %s", message(err))
	}
	return v, nil
}

func (c *call) getNodeSettings(p Params) (domain.Result, error) {
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
	node, err := c.node(asset, a.id(), "Node")
	if err != nil {
		return domain.Result{}, err
	}
	settings, method := c.NodeSettings(node)
	t := c.graph.TypeOf(node)
	fullName := c.graph.TypeName(node)
	if t != nil {
		fullName = t.FullName()
	}
	return domain.OK(fmt.Sprintf("Found %d settings on %s (via %s)", len(settings), c.graph.TypeName(node), method),
		map[string]any{
			"nodeType":        c.graph.TypeName(node),
			"nodeFullType":    fullName,
			"discoveryMethod": method,
			"settings":        settings,
		}), nil
}

// NodeSettings enumerates the settings of node and names the strategy that
// found them: the GetSettings overloads, then a scan of setting fields, then
// a probe of common names through GetSettingValue.
func (e *Engine) NodeSettings(node host.Object) ([]SettingInfo, string) {
	out := []SettingInfo{}
	t := e.graph.TypeOf(node)

	for _, m := range e.graph.Overloads(node, "GetSettings") {
		params := m.Params()
		var args []any
		switch {
		case len(params) == 0:
		case len(params) == 1 && params[0].Kind() == reflect.Bool:
			args = []any{true}
		default:
			continue
		}
		res, err := m.Invoke(node, args...)
		if err != nil || len(res) == 0 {
			continue
		}
		for _, s := range graph.Elements(res[0]) {
			nv, _ := e.graph.Get(s, "name")
			name, _ := nv.(string)
			if name == "" {
				continue
			}
			var declared reflect.Type
			if t != nil {
				if f := t.Field(name); f != nil {
					declared = f.Type()
				}
			}
			v, _ := e.graph.Get(s, "value")
			out = append(out, settingInfo(name, declared, v))
		}
		if len(out) > 0 {
			return out, fmt.Sprintf("GetSettings(%d params)", len(params))
		}
	}

	if t != nil {
		for _, f := range t.Fields() {
			if !f.Setting {
				continue
			}
			v, _ := f.Get(node)
			out = append(out, settingInfo(f.Name, f.Type(), v))
		}
		if len(out) > 0 {
			return out, "VFXSettingAttribute scan"
		}
	}

	if len(e.graph.Overloads(node, "GetSettingValue")) > 0 {
		for _, name := range settingProbe {
			res, err := e.graph.Call(node, "GetSettingValue", name)
			if err != nil || len(res) == 0 || graph.IsNil(res[0]) {
				continue
			}
			out = append(out, settingInfo(name, nil, res[0]))
		}
		if len(out) > 0 {
			return out, "GetSettingValue probe"
		}
	}
	return out, "none"
}

func (c *call) setContextSettings(p Params) (domain.Result, error) {
	var a struct {
		Path      string         `mapstructure:"path"`
		ContextID int            `mapstructure:"contextId"`
		Settings  map[string]any `mapstructure:"settings"`
	}
	if err := Decode(p, &a); err != nil {
		return domain.Result{}, err
	}
	if blank(a.Path) || a.ContextID == 0 || len(a.Settings) == 0 {
		return domain.Result{}, required("path, contextId, and settings are required")
	}
	asset, err := c.open(a.Path)
	if err != nil {
		return domain.Result{}, err
	}
	node, err := c.node(asset, a.ContextID, "Context")
	if err != nil {
		return domain.Result{}, err
	}
	names := make([]string, 0, len(a.Settings))
	for k := range a.Settings {
		names = append(names, k)
	}
	sort.Strings(names)
	applied := []string{}
	failed := []map[string]any{}
	for _, name := range names {
		if _, err := c.applySetting(node, name, a.Settings[name]); err != nil {
			failed = append(failed, map[string]any{"setting": name, "error": message(err)})
			continue
		}
		applied = append(applied, name)
	}
	c.invalidate(node, CauseSettingChanged)
	if err := c.persist(asset); err != nil {
		return domain.Result{}, err
	}
	return domain.OK(fmt.Sprintf("Applied %d settings to %s", len(applied), c.graph.TypeName(node)), map[string]any{
		"applied":     applied,
		"failed":      failed,
		"contextType": c.graph.TypeName(node),
	}), nil
}

func (c *call) configureOutput(p Params) (domain.Result, error) {
	var a struct {
		Path        string         `mapstructure:"path"`
		ContextID   int            `mapstructure:"contextId"`
		Settings    map[string]any `mapstructure:"settings"`
		Orientation string         `mapstructure:"orientation"`
	}
	if err := Decode(p, &a); err != nil {
		return domain.Result{}, err
	}
	if blank(a.Path) || a.ContextID == 0 {
		return domain.Result{}, required("path and contextId are required")
	}
	asset, err := c.open(a.Path)
	if err != nil {
		return domain.Result{}, err
	}
	node, err := c.context(asset, a.ContextID, "Context")
	if err != nil {
		return domain.Result{}, err
	}
	names := make([]string, 0, len(a.Settings))
	for k := range a.Settings {
		names = append(names, k)
	}
	sort.Strings(names)
	applied := []string{}
	failed := []map[string]any{}
	for _, name := range names {
		if _, err := c.applySetting(node, name, a.Settings[name]); err != nil {
			failed = append(failed, map[string]any{"setting": name, "error": message(err)})
			continue
		}
		applied = append(applied, name)
	}

	var orientID any
	if !blank(a.Orientation) {
		if id, err := c.addOrient(node, a.Orientation); err != nil {
			failed = append(failed, map[string]any{"setting": "orientation", "error": message(err)})
		} else {
			orientID = id
			applied = append(applied, fmt.Sprintf("Orient(%s)", a.Orientation))
		}
	}
	c.invalidate(node, CauseSettingChanged)
	if err := c.persist(asset); err != nil {
		return domain.Result{}, err
	}
	return domain.OK(fmt.Sprintf("Configured output %s", c.graph.TypeName(node)), map[string]any{
		"applied":       applied,
		"failed":        failed,
		"orientBlockId": orientID,
		"contextType":   c.graph.TypeName(node),
	}), nil
}

// addOrient inserts an Orient block at the top of ctx in the given mode.
func (c *call) addOrient(ctx host.Object, mode string) (int, error) {
	t := c.typeNamed("Orient", graph.TypeBlock)
	if t == nil {
		return 0, domain.Errorf(domain.CodeResolution, "Orient block type not found")
	}
	blk, err := c.instantiate(t)
	if err != nil {
		return 0, err
	}
	if err := c.addChild(ctx, blk, 0); err != nil {
		return 0, err
	}
	if err := c.writeSetting(blk, "mode", mode); err != nil {
		return blk.InstanceID(), err
	}
	return blk.InstanceID(), nil
}

func (c *call) setSpace(p Params) (domain.Result, error) {
	var a nodeRef
	if err := Decode(p, &a); err != nil {
		return domain.Result{}, err
	}
	var s struct {
		Space string `mapstructure:"space"`
	}
	if err := Decode(p, &s); err != nil {
		return domain.Result{}, err
	}
	if blank(a.Path) || a.id() == 0 || blank(s.Space) {
		return domain.Result{}, required("Path, nodeId, and space (Local/World) are required")
	}
	asset, err := c.open(a.Path)
	if err != nil {
		return domain.Result{}, err
	}
	node, err := c.node(asset, a.id(), "Node")
	if err != nil {
		return domain.Result{}, err
	}
	via, ok := c.applySpace(node, s.Space)
	typeName := c.graph.TypeName(node)
	if !ok {
		return domain.Result{}, domain.Errorf(domain.CodeResolution,
			"Could not set space on %s. No space-related setting or property found.", typeName)
	}
	c.invalidate(node, CauseSettingChanged)
	if err := c.persist(asset); err != nil {
		return domain.Result{}, err
	}
	return domain.OK(fmt.Sprintf("Set space to '%s' on %s", s.Space, typeName), map[string]any{
		"nodeId":     a.id(),
		"space":      s.Space,
		"appliedVia": via,
	}), nil
}

// applySpace sets the coordinate space through a space setting, then a
// SetSpace method, then the input slots that carry a space.
func (c *call) applySpace(node host.Object, space string) (string, bool) {
	world := strings.EqualFold(space, "World")
	spaceValue := func(t reflect.Type) (any, error) {
		switch t.Kind() {
		case reflect.Bool:
			return world, nil
		case reflect.String:
			return space, nil
		}
		if len(host.EnumNames(t)) > 0 {
			return graph.Coerce(space, t)
		}
		if world {
			return graph.Coerce(1, t)
		}
		return graph.Coerce(0, t)
	}

	t := c.graph.TypeOf(node)
	if t != nil {
		for _, name := range spaceSettings {
			f := c.graph.Cache().Field(t, name)
			if f == nil || !f.Setting {
				continue
			}
			v, err := spaceValue(f.Type())
			if err != nil {
				continue
			}
			if _, err := c.graph.Call(node, "SetSettingValue", f.Name, v); err == nil {
				return "setting:" + f.Name, true
			}
			if err := f.Set(node, v); err == nil {
				return "field:" + f.Name, true
			}
		}
	}

	for _, m := range c.graph.Overloads(node, "SetSpace") {
		params := m.Params()
		if len(params) == 0 {
			continue
		}
		v, err := spaceValue(params[0])
		if err != nil {
			continue
		}
		args := []any{v}
		for i := 1; i < len(params); i++ {
			args = append(args, reflect.Zero(params[i]).Interface())
		}
		if _, err := m.Invoke(node, args...); err == nil {
			return "method:SetSpace", true
		}
	}

	set := 0
	for _, slot := range c.graph.Slots(node, false) {
		st := c.graph.TypeOf(slot)
		prop := c.graph.Cache().Property(st, "space")
		if prop == nil || !prop.CanSet() {
			continue
		}
		v, err := spaceValue(prop.Type())
		if err != nil {
			continue
		}
		if err := prop.Set(slot, v); err == nil {
			set++
		}
	}
	if set > 0 {
		return fmt.Sprintf("slots:%d", set), true
	}
	return "", false
}

func (c *call) setCapacity(p Params) (domain.Result, error) {
	a := struct {
		Path      string `mapstructure:"path"`
		ContextID int    `mapstructure:"contextId"`
		NodeID    int    `mapstructure:"nodeId"`
		Capacity  int    `mapstructure:"capacity"`
	}{Capacity: -1}
	if err := Decode(p, &a); err != nil {
		return domain.Result{}, err
	}
	id := a.ContextID
	if id == 0 {
		id = a.NodeID
	}
	if blank(a.Path) || id == 0 || a.Capacity <= 0 {
		return domain.Result{}, required("path, contextId (or nodeId), and positive capacity are required")
	}
	asset, err := c.open(a.Path)
	if err != nil {
		return domain.Result{}, err
	}
	ctx, err := c.node(asset, id, "Context")
	if err != nil {
		return domain.Result{}, err
	}
	typeName := c.graph.TypeName(ctx)
	data := c.contextData(ctx)
	if data == nil {
		return domain.Result{}, notFound("Could not resolve VFXData for context").
			WithDetails(map[string]any{"contextType": typeName, "contextId": id})
	}
	previous, via, ok := c.writeCapacity(data, a.Capacity)
	if !ok {
		return domain.Result{}, domain.NewError(domain.CodeValidation, "Could not set capacity on context data", map[string]any{
			"contextType": typeName,
			"dataType":    c.graph.TypeName(data),
			"expected":    "capacity property or m_Capacity field",
		})
	}
	c.invalidate(ctx, CauseSettingChanged)
	c.invalidate(asset.Root(), CauseStructureChanged)
	if err := c.persist(asset); err != nil {
		return domain.Result{}, err
	}
	return domain.OK(fmt.Sprintf("Set capacity to %d on %s[%d]", a.Capacity, typeName, id), map[string]any{
		"contextId":        id,
		"contextType":      typeName,
		"previousCapacity": previous,
		"capacity":         a.Capacity,
		"appliedVia":       via,
	}), nil
}

// contextData returns the particle data of a context through its data
// property or its m_Data field.
func (c *call) contextData(ctx host.Object) any {
	for _, name := range []string{"data", "m_Data"} {
		if v, ok := c.graph.Get(ctx, name); ok && !graph.IsNil(v) {
			return v
		}
	}
	return nil
}

func (c *call) writeCapacity(data any, capacity int) (int, string, bool) {
	t := c.graph.TypeOf(data)
	if t == nil {
		return 0, "", false
	}
	cache := c.graph.Cache()
	for _, cand := range []struct {
		m   *host.Member
		via string
	}{
		{cache.Property(t, "capacity"), "capacity property"},
		{cache.Field(t, "m_Capacity"), "m_Capacity field"},
	} {
		if cand.m == nil || !cand.m.CanSet() {
			continue
		}
		prev := 0
		if v, err := cand.m.Get(data); err == nil {
			if n, err := graph.Coerce(v, reflect.TypeOf(0)); err == nil {
				prev = n.(int)
			}
		}
		v, err := graph.Coerce(capacity, cand.m.Type())
		if err != nil {
			continue
		}
		if err := cand.m.Set(data, v); err != nil {
			continue
		}
		return prev, cand.via, true
	}
	return 0, "", false
}

func (c *call) setBounds(p Params) (domain.Result, error) {
	var a struct {
		Path      string `mapstructure:"path"`
		ContextID int    `mapstructure:"contextId"`
	}
	if err := Decode(p, &a); err != nil {
		return domain.Result{}, err
	}
	if blank(a.Path) || a.ContextID == 0 {
		return domain.Result{}, required("path and contextId are required")
	}
	asset, err := c.open(a.Path)
	if err != nil {
		return domain.Result{}, err
	}
	ctx, err := c.node(asset, a.ContextID, "Context")
	if err != nil {
		return domain.Result{}, err
	}
	applied := []string{}
	for _, b := range []struct{ key, slot string }{
		{"center", "bounds_center"},
		{"size", "bounds_size"},
	} {
		raw := p.Raw(b.key)
		if raw == nil {
			continue
		}
		slot := c.graph.FindSlot(ctx, b.slot, false)
		if slot == nil {
			return domain.Result{}, notFound("Input property '%s' not found on node", b.slot).
				WithDetails(map[string]any{"availableSlots": c.graph.SlotInfos(ctx, false)})
		}
		v, err := graph.Coerce(raw, reflect.TypeOf(host.Vector3{}))
		if err != nil {
			return domain.Result{}, domain.Errorf(domain.CodeValidation, "Invalid %s: %v", b.key, err).Wrap(err)
		}
		if err := c.graph.Set(slot, "value", v); err != nil {
			return domain.Result{}, internal(err, "Error setting bounds: %s", message(err))
		}
		applied = append(applied, b.key)
	}
	c.invalidate(ctx, CauseSettingChanged)
	if err := c.persist(asset); err != nil {
		return domain.Result{}, err
	}
	return domain.OK(fmt.Sprintf("Set bounds on %s", c.graph.TypeName(ctx)), map[string]any{"applied": applied}), nil
}
