/*
Package vfxsim is a headless node-graph editor for visual-effect assets.

It owns graphs made of contexts (spawner, initialize, update, output, GPU
event), the blocks nested inside them, free-standing operators and exposed
parameters. Its object model is published only through host.Module, so the
bridge reaches it the same way it would reach any versioned editor: by name,
through the resolution cache.

Like the editors it stands in for, the model has sharp edges that callers must
work around:

  - Structural edits with notify=true run the consistency pass, which panics
    while any parameter is still missing its output slot.
  - Context flow links panic on incompatible kinds or out-of-range ports.
  - Overload sets (Unlink, UnlinkAll, LinkTo, LinkFrom, Invalidate) are only
    reachable through the published method table.

Graphs are persisted as JSON snapshots through a ports.AssetStore.
*/
package vfxsim
