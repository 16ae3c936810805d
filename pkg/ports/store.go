package ports

import (
	"context"
)

// AssetStore persists serialized graph assets.
type AssetStore interface {
	// Save writes the asset bytes at path, replacing any previous version.
	Save(ctx context.Context, path string, data []byte) error

	// Load returns the asset bytes at path.
	// Returns domain.ErrAssetNotFound if nothing is stored there.
	Load(ctx context.Context, path string) ([]byte, error)

	// Delete removes the asset at path. Deleting a missing asset is not an error.
	Delete(ctx context.Context, path string) error

	// List returns the stored asset paths in lexical order.
	List(ctx context.Context) ([]string, error)
}
