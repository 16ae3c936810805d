package vfxsim

import (
	"fmt"
	"strings"
)

// CustomAttribute is a user-declared particle attribute.
type CustomAttribute struct {
	Name        string `json:"name" vfx:"name"`
	Type        string `json:"type" vfx:"type"`
	Description string `json:"description,omitempty" vfx:"description"`
}

// Graph is the root model of an effect asset.
type Graph struct {
	Model
	CustomAttributes []*CustomAttribute `vfx:"m_CustomAttributes"`

	pending bool
	errors  []string
	version int
}

func (g *Graph) setup() {}

func (g *Graph) accepts(child Node) bool {
	switch child.(type) {
	case contextNode, *Parameter:
		return true
	case blockNode, *Graph:
		return false
	}
	_, ok := child.(slotOwner)
	return ok
}

// onInvalidate is the consistency pass. It panics while a parameter has no
// output slot.
func (g *Graph) onInvalidate(_ Node, cause InvalidationCause) {
	g.version++
	if cause != KUIChanged {
		g.pending = true
	}
	for _, ch := range g.children {
		if p, ok := ch.(*Parameter); ok && len(p.outputs) == 0 {
			panic(fmt.Sprintf("parameter %d has no output slot", p.ID))
		}
	}
}

// Version increases on every invalidation reaching the graph.
func (g *Graph) Version() int { return g.version }

func (g *Graph) CompilationPending() bool { return g.pending }

// CompileErrors returns the errors of the last compilation.
func (g *Graph) CompileErrors() []string {
	return append([]string(nil), g.errors...)
}

// Compile validates the graph and records its errors.
func (g *Graph) Compile() []string {
	var errs []string
	for _, ch := range g.children {
		switch n := ch.(type) {
		case contextNode:
			c := n.ctx()
			if c.kind != KindSpawner && len(c.inFlow) > 0 && len(c.inFlow[0].Links) == 0 {
				errs = append(errs, fmt.Sprintf("%s (%d) has no input flow", c.Name(), c.ID))
			}
			if c.kind == KindInit && c.ParticleData != nil && c.ParticleData.Cap == 0 {
				errs = append(errs, fmt.Sprintf("%s (%d) has zero capacity", c.Name(), c.ID))
			}
			for _, b := range c.children {
				switch blk := b.(type) {
				case *SetAttribute:
					if !g.knownAttribute(blk.Attribute) {
						errs = append(errs, fmt.Sprintf("%s (%d) writes unknown attribute %q", blk.Name(), blk.ID, blk.Attribute))
					}
				case *CustomHLSLBlock:
					if strings.TrimSpace(blk.BodyContent) == "" && blk.Enabled() {
						errs = append(errs, fmt.Sprintf("%s (%d) has no shader code", blk.Name(), blk.ID))
					}
				}
			}
		case *Parameter:
			if len(n.outputs) == 0 {
				errs = append(errs, fmt.Sprintf("parameter %d has no output slot", n.ID))
			}
		case *CustomHLSL:
			if strings.TrimSpace(n.HLSLCode) == "" {
				errs = append(errs, fmt.Sprintf("%s (%d) has no shader code", n.Name(), n.ID))
			}
		}
	}
	g.errors = errs
	g.pending = false
	return g.CompileErrors()
}

func (g *Graph) knownAttribute(name string) bool {
	if _, ok := attributeDefaults[name]; ok {
		return true
	}
	for _, ca := range g.CustomAttributes {
		if ca.Name == name {
			return true
		}
	}
	return false
}

// AddCustomAttribute panics on duplicates and unsupported types.
func (g *Graph) AddCustomAttribute(name, typeName, description string) {
	if name == "" {
		panic("custom attribute name is empty")
	}
	if g.knownAttribute(name) {
		panic(fmt.Sprintf("attribute %q already exists", name))
	}
	if _, ok := customAttributeDefaults[lower(typeName)]; !ok {
		panic(fmt.Sprintf("unsupported custom attribute type %q", typeName))
	}
	g.CustomAttributes = append(g.CustomAttributes, &CustomAttribute{Name: name, Type: typeName, Description: description})
}

// RemoveCustomAttribute reports whether the attribute existed.
func (g *Graph) RemoveCustomAttribute(name string) bool {
	for i, ca := range g.CustomAttributes {
		if ca.Name == name {
			g.CustomAttributes = append(g.CustomAttributes[:i], g.CustomAttributes[i+1:]...)
			return true
		}
	}
	return false
}
