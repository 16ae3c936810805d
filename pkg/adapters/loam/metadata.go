package loam

// RecipeMetadata is the frontmatter of a recipe document.
// The markdown body doubles as the description when none is given.
type RecipeMetadata struct {
	Name        string           `json:"name" mapstructure:"name"`
	Description string           `json:"description" mapstructure:"description"`
	Defaults    map[string]any   `json:"defaults,omitempty" mapstructure:"defaults"`
	Operations  []map[string]any `json:"operations" mapstructure:"operations"`
}
