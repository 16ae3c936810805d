package dsl

import (
	"github.com/aretw0/vfxbridge/pkg/batch"
)

// Builder manages the batch construction.
type Builder struct {
	ops []*OpBuilder
}

// New creates a new batch builder.
func New() *Builder {
	return &Builder{}
}

// Op appends an operation running action.
func (b *Builder) Op(action string) *OpBuilder {
	ob := &OpBuilder{
		op: batch.Operation{
			Op:     action,
			Params: make(map[string]batch.Value),
		},
		builder: b,
	}
	b.ops = append(b.ops, ob)
	return ob
}

// Node adds a node of type typ and binds its id to ref.
func (b *Builder) Node(ref, typ string) *OpBuilder {
	return b.Op("add_node").As(ref).Set("type", typ)
}

// Link links the flow of context from into context to.
func (b *Builder) Link(from, to string) *OpBuilder {
	return b.Op("link_contexts").Ref("fromContextId", from).Ref("toContextId", to)
}

// Chain links each context to the next one.
func (b *Builder) Chain(refs ...string) *Builder {
	for i := 1; i < len(refs); i++ {
		b.Link(refs[i-1], refs[i])
	}
	return b
}

// Block adds a block of type blockType to context ctx.
func (b *Builder) Block(ctx, blockType string) *OpBuilder {
	return b.Op("add_block").Ref("contextId", ctx).Set("blockType", blockType)
}

// Attribute adds a SetAttribute block for attr to context ctx.
func (b *Builder) Attribute(ctx, attr, composition string) *OpBuilder {
	return b.Op("add_attribute_block").Ref("contextId", ctx).
		Set("attribute", attr).Set("composition", composition)
}

// Capacity sets the particle capacity of context ctx.
func (b *Builder) Capacity(ctx string, n int) *OpBuilder {
	return b.Op("set_capacity").Ref("contextId", ctx).Set("capacity", n)
}

// Property adds an exposed property and binds its id to ref.
func (b *Builder) Property(ref, name, typ string) *OpBuilder {
	return b.Op("add_property").As(ref).Set("name", name).Set("type", typ).Set("exposed", true)
}

// Len reports the number of operations added so far.
func (b *Builder) Len() int {
	return len(b.ops)
}

// Build returns the operations in the order they were added.
func (b *Builder) Build() []batch.Operation {
	out := make([]batch.Operation, len(b.ops))
	for i, ob := range b.ops {
		out[i] = ob.Build()
	}
	return out
}
