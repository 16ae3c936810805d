package vfxsim

import (
	"encoding/json"
	"fmt"
	"reflect"
)

const snapshotFormat = 1

type snapshot struct {
	Format int            `json:"format"`
	Root   nodeSnapshot   `json:"root"`
	Links  []linkSnapshot `json:"links,omitempty"`
	Flows  []linkSnapshot `json:"flows,omitempty"`
}

type nodeSnapshot struct {
	ID       int                        `json:"id"`
	Type     string                     `json:"type"`
	Fields   map[string]json.RawMessage `json:"fields,omitempty"`
	Inputs   []json.RawMessage          `json:"inputs,omitempty"`
	Outputs  []json.RawMessage          `json:"outputs,omitempty"`
	Spaces   []SpaceKind                `json:"spaces,omitempty"`
	Children []nodeSnapshot             `json:"children,omitempty"`
}

// linkSnapshot is a data link (slot indices) or a flow link (port indices).
type linkSnapshot struct {
	From      int `json:"from"`
	FromIndex int `json:"fromIndex"`
	To        int `json:"to"`
	ToIndex   int `json:"toIndex"`
}

func encodeGraph(g *Graph) ([]byte, error) {
	snap := snapshot{Format: snapshotFormat}
	root, err := encodeNode(g, &snap)
	if err != nil {
		return nil, err
	}
	snap.Root = root
	return json.MarshalIndent(snap, "", "  ")
}

func encodeNode(n Node, snap *snapshot) (nodeSnapshot, error) {
	b := n.base()
	ns := nodeSnapshot{ID: b.ID, Type: b.htype.FullName(), Fields: map[string]json.RawMessage{}}
	for _, f := range b.htype.Fields() {
		switch f.Type().Kind() {
		case reflect.Interface, reflect.Func, reflect.Chan:
			continue
		}
		v, err := f.Get(n)
		if err != nil {
			return ns, err
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return ns, fmt.Errorf("encode %s.%s: %w", b.htype.Name, f.Name, err)
		}
		ns.Fields[f.Name] = raw
	}

	if so, ok := n.(slotOwner); ok {
		c := so.container()
		for i, s := range c.inputs {
			raw, err := json.Marshal(s.value)
			if err != nil {
				return ns, err
			}
			ns.Inputs = append(ns.Inputs, raw)
			ns.Spaces = append(ns.Spaces, s.space)
			for _, l := range s.Links {
				snap.Links = append(snap.Links, linkSnapshot{
					From: l.owner.InstanceID(), FromIndex: indexOf(l.owner.(slotOwner).container().outputs, l),
					To: b.ID, ToIndex: i,
				})
			}
		}
		for _, s := range c.outputs {
			raw, err := json.Marshal(s.value)
			if err != nil {
				return ns, err
			}
			ns.Outputs = append(ns.Outputs, raw)
		}
	}

	if cn, ok := n.(contextNode); ok {
		for i, fs := range cn.ctx().outFlow {
			for _, l := range fs.Links {
				snap.Flows = append(snap.Flows, linkSnapshot{From: b.ID, FromIndex: i, To: l.Context.InstanceID(), ToIndex: l.SlotIndex})
			}
		}
	}

	for _, ch := range b.children {
		cs, err := encodeNode(ch, snap)
		if err != nil {
			return ns, err
		}
		ns.Children = append(ns.Children, cs)
	}
	return ns, nil
}

func indexOf(slots []*Slot, s *Slot) int {
	for i, x := range slots {
		if x == s {
			return i
		}
	}
	return -1
}

func (l *library) decodeGraph(data []byte) (g *Graph, err error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode graph: %w", err)
	}
	if snap.Format != snapshotFormat {
		return nil, fmt.Errorf("decode graph: unsupported format %d", snap.Format)
	}
	defer func() {
		if r := recover(); r != nil {
			g, err = nil, fmt.Errorf("decode graph: %v", r)
		}
	}()

	byID := map[int]Node{}
	root, err := l.decodeNode(snap.Root, nil, byID)
	if err != nil {
		return nil, err
	}
	g, ok := root.(*Graph)
	if !ok {
		return nil, fmt.Errorf("decode graph: root is %s", root.base().Name())
	}

	for _, ls := range snap.Links {
		from, fok := byID[ls.From].(slotOwner)
		to, tok := byID[ls.To].(slotOwner)
		if !fok || !tok {
			return nil, fmt.Errorf("decode graph: dangling link %d -> %d", ls.From, ls.To)
		}
		outs, ins := from.container().outputs, to.container().inputs
		if ls.FromIndex < 0 || ls.FromIndex >= len(outs) || ls.ToIndex < 0 || ls.ToIndex >= len(ins) {
			return nil, fmt.Errorf("decode graph: link %d -> %d out of range", ls.From, ls.To)
		}
		connect(ins[ls.ToIndex], outs[ls.FromIndex])
	}
	for _, fs := range snap.Flows {
		from, fok := byID[fs.From].(contextNode)
		to, tok := byID[fs.To].(contextNode)
		if !fok || !tok {
			return nil, fmt.Errorf("decode graph: dangling flow %d -> %d", fs.From, fs.To)
		}
		linkFlow(from.ctx(), fs.FromIndex, to.ctx(), fs.ToIndex)
	}
	return g, nil
}

func (l *library) decodeNode(ns nodeSnapshot, parent Node, byID map[int]Node) (Node, error) {
	t, ok := l.byFullName[ns.Type]
	if !ok {
		return nil, fmt.Errorf("decode graph: unknown type %s", ns.Type)
	}
	obj, err := t.New()
	if err != nil {
		return nil, err
	}
	n := obj.(Node)
	n.base().ID = ns.ID
	l.ids.observe(ns.ID)
	byID[ns.ID] = n

	for name, raw := range ns.Fields {
		f := t.Field(name)
		if f == nil {
			continue
		}
		v := reflect.New(f.Type())
		if err := json.Unmarshal(raw, v.Interface()); err != nil {
			return nil, fmt.Errorf("decode %s.%s: %w", t.Name, name, err)
		}
		if err := f.Set(n, v.Elem().Interface()); err != nil {
			return nil, err
		}
	}
	if parent != nil {
		parent.base().AddChild(n, -1, false)
	}
	if r, ok := n.(restorer); ok {
		r.restored()
	}
	if so, ok := n.(slotOwner); ok {
		c := so.container()
		if err := restoreValues(c.inputs, ns.Inputs); err != nil {
			return nil, err
		}
		if err := restoreValues(c.outputs, ns.Outputs); err != nil {
			return nil, err
		}
		for i, sp := range ns.Spaces {
			if i < len(c.inputs) {
				c.inputs[i].space = sp
			}
		}
	}
	for _, cs := range ns.Children {
		if _, err := l.decodeNode(cs, n, byID); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func restoreValues(slots []*Slot, raws []json.RawMessage) error {
	for i, raw := range raws {
		if i >= len(slots) || string(raw) == "null" {
			continue
		}
		v := reflect.New(slots[i].valueType)
		if err := json.Unmarshal(raw, v.Interface()); err != nil {
			return fmt.Errorf("decode slot %s: %w", slots[i].name, err)
		}
		slots[i].value = v.Elem().Interface()
	}
	return nil
}
