package ops

import (
	"fmt"
	"reflect"

	"github.com/aretw0/vfxbridge/pkg/domain"
	"github.com/aretw0/vfxbridge/pkg/graph"
	"github.com/aretw0/vfxbridge/pkg/host"
)

type linkArgs struct {
	Path         string `mapstructure:"path"`
	ParentNodeID int    `mapstructure:"parentNodeId"`
	FromNodeID   int    `mapstructure:"fromNodeId"`
	ChildNodeID  int    `mapstructure:"childNodeId"`
	ToNodeID     int    `mapstructure:"toNodeId"`
	ParentSlot   string `mapstructure:"parentSlot"`
	FromSlot     string `mapstructure:"fromSlot"`
	ChildSlot    string `mapstructure:"childSlot"`
	ToSlot       string `mapstructure:"toSlot"`
}

func (a linkArgs) parent() int {
	if a.ParentNodeID != 0 {
		return a.ParentNodeID
	}
	return a.FromNodeID
}

func (a linkArgs) child() int {
	if a.ChildNodeID != 0 {
		return a.ChildNodeID
	}
	return a.ToNodeID
}

// endpoints is the resolved pair of slots of a data connection.
type endpoints struct {
	asset                 host.Asset
	parent, child         host.Object
	parentSlot, childSlot any
	fromName, toName      string
}

func (c *call) resolveLink(p Params) (*endpoints, error) {
	var a linkArgs
	if err := Decode(p, &a); err != nil {
		return nil, err
	}
	if blank(a.Path) {
		return nil, required("Path is required")
	}
	if a.parent() == 0 || a.child() == 0 {
		return nil, required("Parent and Child Node IDs are required")
	}
	asset, err := c.open(a.Path)
	if err != nil {
		return nil, err
	}
	parent := c.graph.Find(asset.Root(), a.parent())
	if parent == nil {
		return nil, notFound("Parent node %d not found", a.parent())
	}
	child := c.graph.Find(asset.Root(), a.child())
	if child == nil {
		return nil, notFound("Child node %d not found", a.child())
	}
	from := first(a.ParentSlot, a.FromSlot)
	to := first(a.ChildSlot, a.ToSlot)
	ps := c.graph.FindSlot(parent, from, true)
	if ps == nil {
		return nil, notFound("Output slot '%s' not found on parent", from).
			WithDetails(map[string]any{"availableSlots": c.graph.SlotInfos(parent, true)})
	}
	cs := c.graph.FindSlot(child, to, false)
	if cs == nil {
		return nil, notFound("Input slot '%s' not found on child", to).
			WithDetails(map[string]any{"availableSlots": c.graph.SlotInfos(child, false)})
	}
	return &endpoints{
		asset: asset, parent: parent, child: child,
		parentSlot: ps, childSlot: cs,
		fromName: c.graph.SlotName(ps), toName: c.graph.SlotName(cs),
	}, nil
}

func (e *endpoints) describe() string {
	return fmt.Sprintf("%d:%s -> %d:%s", e.parent.InstanceID(), e.fromName, e.child.InstanceID(), e.toName)
}

func (c *call) connectNodes(p Params) (domain.Result, error) {
	ep, err := c.resolveLink(p)
	if err != nil {
		return domain.Result{}, err
	}
	out, err := c.graph.Call(ep.childSlot, "Link", ep.parentSlot, false)
	if err != nil {
		return domain.Result{}, internal(err, "Error linking nodes: %s", message(err))
	}
	if ok, _ := out[0].(bool); !ok {
		return domain.Fail(domain.CodeInternalException, "Link failed (type mismatch or circular dependency?)", map[string]any{
			"fromSlotType": c.graph.SlotInfos(ep.parent, true),
			"toSlotType":   c.graph.SlotInfos(ep.child, false),
		}), nil
	}
	c.invalidate(ep.child, CauseConnectionChanged)
	if err := c.persist(ep.asset); err != nil {
		return domain.Result{}, err
	}
	return domain.OK("Connected "+ep.describe(), map[string]any{
		"fromNodeId": ep.parent.InstanceID(),
		"fromSlot":   ep.fromName,
		"toNodeId":   ep.child.InstanceID(),
		"toSlot":     ep.toName,
	}), nil
}

func (c *call) disconnectNodes(p Params) (domain.Result, error) {
	ep, err := c.resolveLink(p)
	if err != nil {
		return domain.Result{}, err
	}
	var errs []string
	done := false
	for _, m := range c.graph.Overloads(ep.childSlot, "Unlink") {
		var args []any
		switch len(m.Params()) {
		case 1:
			args = []any{ep.parentSlot}
		case 2:
			args = []any{ep.parentSlot, true}
		default:
			continue
		}
		if _, err := m.Invoke(ep.childSlot, args...); err != nil {
			errs = append(errs, fmt.Sprintf("Unlink(%dp): %s", len(args), message(err)))
			continue
		}
		done = true
		break
	}
	if !done {
		for _, m := range c.graph.Overloads(ep.childSlot, "UnlinkAll") {
			var args []any
			switch len(m.Params()) {
			case 0:
			case 1:
				args = []any{true}
			default:
				continue
			}
			if _, err := m.Invoke(ep.childSlot, args...); err != nil {
				errs = append(errs, fmt.Sprintf("UnlinkAll(%dp): %s", len(args), message(err)))
				continue
			}
			done = true
			break
		}
	}
	if !done {
		return domain.Result{}, domain.NewError(domain.CodeInternalException, "Could not disconnect slots",
			map[string]any{"errors": errs})
	}
	c.invalidate(ep.child, CauseConnectionChanged)
	if err := c.persist(ep.asset); err != nil {
		return domain.Result{}, err
	}
	return domain.OK("Disconnected "+ep.describe(), nil), nil
}

// Connection is one data link of a graph.
type Connection struct {
	FromNodeID   int    `json:"fromNodeId"`
	FromNodeType string `json:"fromNodeType"`
	FromSlot     string `json:"fromSlot"`
	ToNodeID     int    `json:"toNodeId"`
	ToNodeType   string `json:"toNodeType"`
	ToSlot       string `json:"toSlot"`
}

// Connections lists the data links of the graph below root.
func (e *Engine) Connections(root host.Object) []Connection {
	out := []Connection{}
	for _, m := range e.graph.Models(root) {
		if m == root {
			continue
		}
		for _, in := range e.graph.Slots(m, false) {
			for _, src := range e.graph.LinkedSources(in) {
				owner := e.graph.SlotOwner(src)
				if owner == nil {
					continue
				}
				out = append(out, Connection{
					FromNodeID:   owner.InstanceID(),
					FromNodeType: e.graph.TypeName(owner),
					FromSlot:     e.graph.SlotName(src),
					ToNodeID:     m.InstanceID(),
					ToNodeType:   e.graph.TypeName(m),
					ToSlot:       e.graph.SlotName(in),
				})
			}
		}
	}
	return out
}

func (c *call) getConnections(p Params) (domain.Result, error) {
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
	conns := c.Connections(asset.Root())
	return domain.OK(fmt.Sprintf("Found %d data connections", len(conns)), map[string]any{
		"count":       len(conns),
		"connections": conns,
	}), nil
}

// slotValueType is the type of the slot's current value, or its declared
// value type when the value is unset.
func (c *call) slotValueType(slot any) reflect.Type {
	if v, ok := c.graph.Get(slot, "value"); ok && !graph.IsNil(v) {
		return reflect.TypeOf(v)
	}
	if t, ok := c.graph.Get(slot, "valueType"); ok {
		if rt, ok := t.(reflect.Type); ok {
			return rt
		}
	}
	return nil
}
