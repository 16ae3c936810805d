package host

import "context"

// Object is anything living in a host graph. Identities are stable for the
// lifetime of the host session.
type Object interface {
	InstanceID() int
}

// Asset is an opened graph asset.
type Asset interface {
	Path() string
	Root() Object
}

// Host is the editor that owns graphs.
type Host interface {
	// Modules lists the modules currently loaded. The set changes on reload.
	Modules() []*Module

	// TypeOf returns the declared type of a host object.
	TypeOf(obj any) (*Type, bool)

	// OpenGraph loads (or returns the already open) graph asset at path.
	OpenGraph(ctx context.Context, path string) (Asset, error)

	// Persist writes the asset through the host's own persistence path.
	Persist(ctx context.Context, asset Asset) error

	// OnReload registers fn to run synchronously after the module set changes.
	OnReload(fn func())
}
