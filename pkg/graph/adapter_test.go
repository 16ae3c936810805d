package graph_test

import (
	"testing"

	"github.com/aretw0/vfxbridge/pkg/graph"
	"github.com/aretw0/vfxbridge/pkg/host"
	"github.com/aretw0/vfxbridge/pkg/resolve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSlot struct {
	Links []any `vfx:"link"`

	name   string
	owner  *fakeNode
	broken bool
}

func (s *fakeSlot) Name() string {
	if s.broken {
		panic("slot name unavailable")
	}
	return s.name
}

func (s *fakeSlot) Owner() host.Object { return s.owner }

type fakeLink struct {
	Source *fakeSlot `vfx:"source"`
}

type fakeNode struct {
	id   int
	in   []*fakeSlot
	out  []*fakeSlot
	kids []*fakeNode
	boom bool
}

func (n *fakeNode) InstanceID() int          { return n.id }
func (n *fakeNode) InputSlots() []*fakeSlot  { return n.in }
func (n *fakeNode) OutputSlots() []*fakeSlot { return n.out }
func (n *fakeNode) Children() []*fakeNode {
	if n.boom {
		panic("corrupt subtree")
	}
	return n.kids
}

type modules []*host.Module

func (m modules) Modules() []*host.Module { return m }

func newAdapter() *graph.Adapter {
	m := host.NewModule("fake")
	host.Define[fakeNode](m, "Editor.VFX", nil, host.Named("VFXModel"))
	host.Define[fakeSlot](m, "Editor.VFX", nil, host.Named("VFXSlot"))
	host.Define[fakeLink](m, "Editor.VFX", nil, host.Named("VFXSlotLink"))
	return graph.New(resolve.New(modules{m}))
}

func nodeWithInputs(names ...string) *fakeNode {
	n := &fakeNode{id: 1}
	for _, name := range names {
		n.in = append(n.in, &fakeSlot{name: name, owner: n})
	}
	return n
}

func TestFindSlot_Tiers(t *testing.T) {
	a := newAdapter()

	t.Run("exact beats earlier case-insensitive", func(t *testing.T) {
		n := nodeWithInputs("SIZE", "Size")
		assert.Same(t, n.in[1], a.FindSlot(n, "Size", false))
	})

	t.Run("case-insensitive", func(t *testing.T) {
		n := nodeWithInputs("SIZE", "Color")
		assert.Same(t, n.in[0], a.FindSlot(n, "size", false))
	})

	t.Run("bracketed index", func(t *testing.T) {
		n := nodeWithInputs("a", "b", "c", "d")
		assert.Same(t, n.in[2], a.FindSlot(n, "[2]", false))
		assert.Same(t, n.in[3], a.FindSlot(n, "3", false))
		assert.Nil(t, a.FindSlot(n, "[4]", false))
	})

	t.Run("sole slot for empty name", func(t *testing.T) {
		n := nodeWithInputs("whatever")
		assert.Same(t, n.in[0], a.FindSlot(n, "", false))

		two := nodeWithInputs("a", "b")
		assert.Nil(t, a.FindSlot(two, "", false))
	})

	t.Run("unreadable names never match", func(t *testing.T) {
		n := nodeWithInputs("", "Size")
		n.in[0].broken = true
		assert.Nil(t, a.FindSlot(n, "", false))
		assert.Same(t, n.in[1], a.FindSlot(n, "size", false))
		assert.Equal(t, "", a.SlotName(n.in[0]))
	})

	t.Run("missing direction", func(t *testing.T) {
		n := nodeWithInputs("a")
		assert.Nil(t, a.FindSlot(n, "a", true))
	})
}

func TestModules_DepthFirstAndTolerant(t *testing.T) {
	a := newAdapter()
	leaf := &fakeNode{id: 4}
	broken := &fakeNode{id: 3, boom: true, kids: []*fakeNode{{id: 99}}}
	mid := &fakeNode{id: 2, kids: []*fakeNode{leaf}}
	root := &fakeNode{id: 1, kids: []*fakeNode{mid, broken}}

	var ids []int
	for _, m := range a.Models(root) {
		ids = append(ids, m.InstanceID())
	}
	assert.Equal(t, []int{1, 2, 4, 3}, ids)
	assert.Nil(t, a.Find(root, 99))
	assert.Same(t, leaf, a.Find(root, 4))
}

func TestLinkedSources_UnwrapsRecords(t *testing.T) {
	a := newAdapter()
	up := &fakeNode{id: 7}
	direct := &fakeSlot{name: "out", owner: up}
	viaSource := &fakeSlot{name: "out2", owner: up}
	in := &fakeSlot{name: "in", Links: []any{direct, &fakeLink{Source: viaSource}, "junk"}}

	got := a.LinkedSources(in)
	require.Len(t, got, 2)
	assert.Same(t, direct, got[0])
	assert.Same(t, viaSource, got[1])
	assert.Equal(t, 7, a.SlotOwner(got[1]).InstanceID())
}

func TestSlotInfos(t *testing.T) {
	a := newAdapter()
	n := nodeWithInputs("a", "")
	infos := a.SlotInfos(n, false)
	require.Len(t, infos, 2)
	assert.Equal(t, graph.SlotInfo{Index: 1, Name: "", Type: "VFXSlot", ValueType: "unknown"}, infos[1])
	assert.Empty(t, a.SlotInfos(n, true))
}
