/*
Package host describes the capability surface through which the bridge talks to
the editor that owns the graph.

The editor's object model is internal and changes between releases, so nothing
in the bridge holds a compiled reference to it. Instead the editor publishes
Modules of Types, and callers discover Methods and Members on those Types by
name at runtime (see package resolve for the memoizing layer).

Types are declared with Define, which reflects the exported method set of a Go
type and accepts options for overloads, non-public members and statics:

	mod := host.NewModule("Editor.VFX")
	slot := host.Define[Slot](mod, "Editor.VFX", nil,
		host.Named("VFXSlot"),
		host.Overload("Unlink", (*Slot).unlinkNotify),
	)

Properties are exposed as Name()/SetName() method pairs and fields as struct
fields tagged `vfx:"name[,setting][,internal]"`.
*/
package host
