/*
Package vfxbridge drives node-based VFX graphs through a small set of named
actions.

A Bridge owns a headless graph editor, a resolution cache over the editor's
type surface and an action registry. Every action takes loosely typed
parameters and returns a domain.Result envelope: success, a classified
error_code, a message and optional data. Actions on the same asset path are
serialized; actions on different paths run in parallel.

# Usage

	ctx := context.Background()
	b := vfxbridge.New(vfxbridge.WithStore(file.New(".vfxbridge/assets")))

	if err := b.CreateGraph(ctx, "Assets/VFX/Sparks.vfx"); err != nil {
		log.Fatal(err)
	}

	res := b.Execute(ctx, "add_node", map[string]any{
		"path": "Assets/VFX/Sparks.vfx",
		"type": "VFXBasicSpawner",
	})
	if !res.Success {
		log.Fatalf("%s: %s", res.ErrorCode, res.Message)
	}

Several actions can be applied in one step with batch_execute, binding the
ids they produce to refs later operations use, or expanded from a named
recipe with create_from_recipe. See packages batch and dsl.
*/
package vfxbridge
