package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/vfxbridge/pkg/graph"
	"github.com/aretw0/vfxbridge/pkg/host"
	"github.com/aretw0/vfxbridge/pkg/ops"
)

// Kind classifies a node for styling.
type Kind string

const (
	KindContext   Kind = "context"
	KindOperator  Kind = "operator"
	KindParameter Kind = "parameter"
)

// Node is one drawable model of a graph. Blocks are drawn inside contexts.
type Node struct {
	ID     int
	Type   string
	Name   string
	Kind   Kind
	Blocks []string
}

// FlowEdge is a flow link between two contexts.
type FlowEdge struct {
	From, To int
}

// View is a snapshot of a graph ready for rendering.
type View struct {
	Nodes []Node
	Flow  []FlowEdge
	Data  []ops.Connection
}

// Capture walks the graph below root through the engine's adapter.
func Capture(eng *ops.Engine, root host.Object) View {
	a := eng.Adapter()
	var v View
	for _, m := range a.Models(root) {
		if m == root || a.IsA(m, graph.TypeBlock) {
			continue
		}
		n := Node{ID: m.InstanceID(), Type: a.TypeName(m), Name: a.DisplayName(m), Kind: KindOperator}
		switch {
		case a.IsA(m, graph.TypeContext):
			n.Kind = KindContext
			for _, b := range a.Children(m) {
				n.Blocks = append(n.Blocks, a.TypeName(b))
			}
			for _, l := range a.FlowLinks(m) {
				v.Flow = append(v.Flow, FlowEdge{From: n.ID, To: l.ToContextID})
			}
		case a.IsA(m, graph.TypeParameter):
			n.Kind = KindParameter
		}
		v.Nodes = append(v.Nodes, n)
	}
	v.Data = eng.Connections(root)
	sort.Slice(v.Nodes, func(i, j int) bool { return v.Nodes[i].ID < v.Nodes[j].ID })
	return v
}

// GenerateMermaid produces a Mermaid flowchart of v. Shapes follow the
// node kind:
// - Context: [Rectangle] listing its blocks
// - Operator: ([Stadium])
// - Parameter: [/Parallelogram/]
// Flow links are thick arrows, data links are labelled with their slots.
func GenerateMermaid(v View) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, n := range v.Nodes {
		opener, closer := "([", "])"
		switch n.Kind {
		case KindContext:
			opener, closer = "[", "]"
		case KindParameter:
			opener, closer = "[/", "/]"
		}
		label := escape(n.Name)
		if n.Name != n.Type && n.Type != "" {
			label = fmt.Sprintf("%s <br/> <i>%s</i>", label, escape(n.Type))
		}
		for _, b := range n.Blocks {
			label += " <br/> • " + escape(b)
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", nodeID(n.ID), opener, label, closer)
	}

	for _, e := range v.Flow {
		fmt.Fprintf(&sb, "    %s ==> %s\n", nodeID(e.From), nodeID(e.To))
	}
	for _, c := range v.Data {
		fmt.Fprintf(&sb, "    %s -. \"%s → %s\" .-> %s\n",
			nodeID(c.FromNodeID), escape(c.FromSlot), escape(c.ToSlot), nodeID(c.ToNodeID))
	}

	sb.WriteString("\n    classDef context fill:#e1f5fe,stroke:#01579b,color:#000;\n")
	sb.WriteString("    classDef parameter fill:#fff3e0,stroke:#e65100,color:#000;\n")
	for _, n := range v.Nodes {
		if n.Kind == KindContext || n.Kind == KindParameter {
			fmt.Fprintf(&sb, "    class %s %s;\n", nodeID(n.ID), n.Kind)
		}
	}
	return sb.String()
}

func nodeID(id int) string {
	return fmt.Sprintf("n%d", id)
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
