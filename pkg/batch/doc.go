// Package batch runs ordered lists of graph actions as one unit.
//
// Operations may bind the identity they produce to a ref; later operations
// name it with a Ref value (written "$name" in JSON and YAML). Every action
// runs deferred, then the graph gets a single consistency pass and a single
// save. A failed operation is reported and skipped, never fatal.
//
// contextRef, fromRef and toRef fill contextId, fromId and toId. A
// reference under those keys replaces an explicit id in the same operation.
//
// Recipes are named templates that expand to a batch. Built-in recipes are
// written with pkg/dsl; user recipes are Documents served by a
// ports.RecipeLoader:
//
//	name: sparks
//	defaults:
//	  capacity: 500
//	operations:
//	  - op: add_node
//	    ref: init
//	    type: VFXBasicInitialize
//	  - op: set_capacity
//	    contextId: $init
//	    capacity: "{{ capacity }}"
package batch
