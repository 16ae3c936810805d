// Package middleware wraps asset stores with extra behavior, such as
// encryption at rest.
package middleware

import "github.com/aretw0/vfxbridge/pkg/ports"

// Middleware allows wrapping an AssetStore to add behavior.
type Middleware func(ports.AssetStore) ports.AssetStore

// Chain wraps store with mws; the first middleware is the outermost.
func Chain(store ports.AssetStore, mws ...Middleware) ports.AssetStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
