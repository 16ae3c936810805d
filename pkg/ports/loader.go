package ports

import "context"

// RecipeLoader retrieves recipe documents by name.
type RecipeLoader interface {
	// GetRecipe returns the raw recipe document.
	GetRecipe(name string) ([]byte, error)

	// ListRecipes returns the names of every recipe document available.
	ListRecipes() ([]string, error)
}

// Watchable is implemented by backends that can signal changes.
type Watchable interface {
	// Watch returns a channel signaled whenever the backend changed.
	Watch(ctx context.Context) (<-chan struct{}, error)
}
