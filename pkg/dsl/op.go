package dsl

import "github.com/aretw0/vfxbridge/pkg/batch"

// OpBuilder provides a fluent API for configuring an operation.
type OpBuilder struct {
	op      batch.Operation
	builder *Builder
}

// As binds the id the operation produces to ref.
func (o *OpBuilder) As(ref string) *OpBuilder {
	o.op.Ref = batch.RefTo(ref).Name
	return o
}

// Set adds a literal parameter. A batch.Value is stored as is.
func (o *OpBuilder) Set(key string, v any) *OpBuilder {
	o.op.Params[key] = batch.Lit(v)
	return o
}

// Ref adds a parameter resolved from a ref bound earlier in the batch.
func (o *OpBuilder) Ref(key, name string) *OpBuilder {
	o.op.Params[key] = batch.RefTo(name)
	return o
}

// At sets the node position.
func (o *OpBuilder) At(x, y int) *OpBuilder {
	return o.Set("position", []any{x, y})
}

// Then returns the parent builder, for chaining.
func (o *OpBuilder) Then() *Builder {
	return o.builder
}

// Build returns a copy of the operation.
func (o *OpBuilder) Build() batch.Operation {
	params := make(map[string]batch.Value, len(o.op.Params))
	for k, v := range o.op.Params {
		params[k] = v
	}
	return batch.Operation{Op: o.op.Op, Ref: o.op.Ref, Params: params}
}
