/*
Package dsl provides a fluent builder for batch descriptors.

It lets Go code describe a run of graph actions, with symbolic refs between
them, without writing wire-form maps by hand. The built-in recipes are
written with it.

Example usage:

	b := dsl.New()

	b.Node("spawn", "VFXBasicSpawner").At(-600, 0)
	b.Node("init", "VFXBasicInitialize").At(-200, 0)
	b.Link("spawn", "init")
	b.Capacity("init", 5000)

	ops := b.Build()
	// ... pass ops to batch.Runner.Run
*/
package dsl
